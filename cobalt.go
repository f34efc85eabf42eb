package cobalt

import (
	"net"

	"github.com/cobalt-web/cobalt/config"
	"github.com/cobalt-web/cobalt/http"
	"github.com/cobalt-web/cobalt/internal/parser/http1"
	serverhttp "github.com/cobalt-web/cobalt/internal/server/http"
	"github.com/cobalt-web/cobalt/internal/transfer"
	"github.com/cobalt-web/cobalt/kv"
	"github.com/cobalt-web/cobalt/logging"
	"github.com/cobalt-web/cobalt/router"
	"github.com/cobalt-web/cobalt/router/inbuilt"
	"github.com/cobalt-web/cobalt/transport"
	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/utils/buffer"
	"github.com/rs/zerolog"
)

// App ties the pieces together: it owns the configuration, binds listeners
// and hands every accepted connection its own request pipeline.
type App struct {
	cfg   *config.Config
	addrs []string
	sup   transport.Supervisor
	hooks hooks
}

type hooks struct {
	onStart func()
	onStop  func()
}

// New returns an application serving on addr once Serve is called.
func New(addr string) *App {
	return &App{
		cfg:   config.Default(),
		addrs: []string{addr},
		sup:   transport.NewSupervisor(),
	}
}

// Tune replaces the default configuration. Modify config.Default() instead of
// constructing config.Config from scratch, zero values are rarely meaningful.
func (a *App) Tune(cfg *config.Config) *App {
	if cfg != nil {
		a.cfg = cfg
	}

	return a
}

// Listen adds one more address to serve on, next to the one passed to New.
func (a *App) Listen(addr string) *App {
	a.addrs = append(a.addrs, addr)
	return a
}

// NotifyOnStart calls the callback once all the listeners are bound. Being
// bound, they may still need a moment to start accepting.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.onStart = cb
	return a
}

// NotifyOnStop calls the callback after every listener went down and all the
// connections were served to completion.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.onStop = cb
	return a
}

// Serve finalizes the router and blocks, serving until Stop is called or a
// listener fails. Passing nil serves an empty inbuilt router, every request
// then yields 404.
func (a *App) Serve(r router.Router) error {
	if r == nil {
		r = inbuilt.New()
	}

	if err := r.OnStart(); err != nil {
		return err
	}

	log := logging.NewFromConfig(a.cfg.Log)

	for _, addr := range a.addrs {
		if err := a.sup.Add(addr, transport.NewTCP(), a.newConnHandler(r, log)); err != nil {
			return err
		}

		log.Debug().Str("addr", addr).Msg("bound")
	}

	if a.hooks.onStart != nil {
		a.hooks.onStart()
	}

	err := a.sup.Run(a.cfg.NET)

	if a.hooks.onStop != nil {
		a.hooks.onStop()
	}

	return err
}

// Stop gracefully shuts the application down: listeners stop accepting, the
// connections in flight finish their cycles, Serve returns.
func (a *App) Stop() {
	a.sup.Stop()
}

// newConnHandler builds the per-connection pipeline constructor. Everything a
// cycle mutates is allocated here, per connection, so connections never share
// state except the frozen router.
func (a *App) newConnHandler(r router.Router, log zerolog.Logger) func(net.Conn) {
	cfg := a.cfg

	return func(conn net.Conn) {
		client := transport.NewClient(
			conn, cfg.NET.ReadTimeout, cfg.NET.WriteTimeout,
			make([]byte, cfg.NET.ReadBufferSize),
		)

		request := http.NewRequest(
			cfg, http.NewResponse(), client, nil,
			kv.NewPrealloc(cfg.Headers.Number.Default),
			kv.NewPrealloc(cfg.URI.ParamsPrealloc),
		)
		body := http1.NewBodyReader(
			client, chunkedbody.NewParser(chunkedbody.DefaultSettings()), cfg.Body,
		)
		request.Body = http.NewBody(request, body, cfg)

		parser := http1.NewParser(
			request,
			buffer.New(cfg.Headers.Space.Default, cfg.Headers.Space.Maximal),
			buffer.New(cfg.Headers.Space.Default, cfg.Headers.Space.Maximal),
			buffer.New(cfg.URI.RequestLineSize.Default, cfg.URI.RequestLineSize.Maximal),
			cfg.Headers,
		)
		encoder := transfer.NewEncoder(cfg.HTTP, cfg.Headers.Default)

		connLog := log.With().Str("remote", conn.RemoteAddr().String()).Logger()
		serverhttp.NewServer(r, parser, body, encoder, connLog).Run(client, request)
	}
}
