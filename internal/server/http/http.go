package http

import (
	"fmt"

	"github.com/cobalt-web/cobalt/http"
	"github.com/cobalt-web/cobalt/http/status"
	"github.com/cobalt-web/cobalt/internal/parser/http1"
	"github.com/cobalt-web/cobalt/internal/transfer"
	"github.com/cobalt-web/cobalt/router"
	"github.com/cobalt-web/cobalt/transport"
	"github.com/rs/zerolog"
)

// Server drives a single connection through request cycles: parse the head,
// dispatch via the router, encode the response, repeat until the peer leaves
// or keep-alive ends. One instance owns one connection, so no state here is
// shared between connections.
type Server struct {
	router  router.Router
	parser  *http1.Parser
	body    *http1.BodyReader
	encoder *transfer.Encoder
	log     zerolog.Logger
}

func NewServer(
	r router.Router,
	parser *http1.Parser,
	body *http1.BodyReader,
	encoder *transfer.Encoder,
	log zerolog.Logger,
) *Server {
	return &Server{
		router:  r,
		parser:  parser,
		body:    body,
		encoder: encoder,
		log:     log,
	}
}

// Run serves the connection until the first non-recoverable condition and
// closes it. Malformed requests are answered with an error response first,
// dead peers are simply let go.
func (s *Server) Run(client transport.Client, request *http.Request) {
	for s.serve(client, request) {
	}

	_ = client.Close()
}

func (s *Server) serve(client transport.Client, request *http.Request) (ok bool) {
	data, err := client.Read()
	if err != nil {
		// nothing arrived: the peer went away or sat idle past the read
		// timeout. There is nobody to respond to.
		s.log.Debug().Err(err).Msg("connection closed")
		return false
	}

	state, extra, err := s.parser.Parse(data)
	switch state {
	case http1.Pending:
		return true
	case http1.HeadersCompleted:
		client.Pushback(extra)
		s.body.Init(request)

		response := s.router.OnRequest(request)

		if request.Hijacked() {
			// the connection belongs to the handler now, any further byte
			// would corrupt its protocol
			return false
		}

		switch err := s.encoder.Write(request.Proto, request, response, client); err {
		case nil:
		case status.ErrCloseConnection:
			return false
		default:
			s.log.Debug().Err(err).Msg("transfer aborted")
			return false
		}

		if err := s.reset(request); err != nil {
			s.log.Debug().Err(err).Msg("dropping the connection: leftover body unreadable")
			return false
		}

		return true
	case http1.Error:
		// the head is beyond repair, no further request boundary can be
		// trusted. Respond and close.
		response := s.router.OnError(request, err).
			Header("Connection", "close")
		_ = s.encoder.Write(request.Proto, request, response, client)
		s.log.Debug().Err(err).Msg("malformed request")

		return false
	default:
		panic(fmt.Sprintf("BUG: got unexpected parser state: %v", state))
	}
}

// reset readies the shared per-connection state for the next cycle. The body
// leftovers are drained off the wire so the next head starts at a message
// boundary.
func (s *Server) reset(request *http.Request) error {
	if err := request.Body.Reset(); err != nil {
		return err
	}

	request.Reset()
	request.Response().Clear()

	return nil
}
