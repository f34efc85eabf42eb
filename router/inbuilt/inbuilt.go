package inbuilt

import (
	"github.com/cobalt-web/cobalt/http"
	"github.com/cobalt-web/cobalt/http/method"
	"github.com/cobalt-web/cobalt/http/status"
)

// Router is the included router.Router implementation. It supports multiple
// methods per path, trailing wildcards capturing the path tail, groups with
// inherited middlewares, overridable error handlers, and serving HEAD via the
// GET handler when no dedicated one exists.
//
// The lifecycle has two phases: routes are registered freely until the server
// calls OnStart, afterwards the table is frozen and shared by all connections
// without locking.
type Router struct {
	root        *Router
	groups      []*Router
	prefix      string
	middlewares []Middleware
	registrar   *registrar
	errHandlers errorHandlers
	table       table
	frozen      bool
	err         error
}

// New constructs a root router.
func New() *Router {
	r := &Router{
		registrar:   newRegistrar(),
		errHandlers: newErrorHandlers(),
	}
	r.root = r

	return r
}

// OnStart merges the groups into the root, builds the lookup table and
// freezes the router. Any registration error collected on the way, duplicate
// routes above all, is returned here and is expected to abort the launch.
func (r *Router) OnStart() error {
	if r.root.frozen {
		return ErrRouterFrozen
	}
	if r.root.err != nil {
		return r.root.err
	}

	merged := newRegistrar()
	if err := r.registrar.mergeInto(merged, r.middlewares); err != nil {
		return err
	}
	for _, group := range r.groups {
		if err := group.registrar.mergeInto(merged, group.middlewares); err != nil {
			return err
		}
	}

	r.table = merged.build()
	r.root.frozen = true

	return nil
}

// OnRequest resolves the request path and runs the matched middleware chain
// and handler. Dead ends are turned into 404 or 405 right away, no user code
// is involved in these.
func (r *Router) OnRequest(request *http.Request) *http.Response {
	path := stripTrailingSlash(request.Path)

	if rt, param, tail := r.table.lookup(request.Method, path); rt != nil {
		return r.serve(rt, param, tail, request)
	}

	// requests for HEAD fall back to the GET handler, the transfer encoder
	// strips the body off anyway
	if request.Method == method.HEAD {
		if rt, param, tail := r.table.lookup(method.GET, path); rt != nil {
			return r.serve(rt, param, tail, request)
		}
	}

	if allow := r.table.allowed(path); len(allow) > 0 {
		request.Env.AllowedMethods = allow
		return r.OnError(request, status.ErrMethodNotAllowed)
	}

	return r.OnError(request, status.ErrNotFound)
}

func (r *Router) serve(rt *route, param, tail string, request *http.Request) *http.Response {
	if len(param) > 0 {
		request.Params.Add(param, tail)
	}

	for _, middleware := range rt.chain {
		if !middleware(request) {
			// the stopping middleware owns the response. If it wrote nothing,
			// the builder stays an empty 200
			return request.Response()
		}
	}

	if resp := rt.handler(request); resp != nil {
		return resp
	}

	return request.Respond()
}

// OnError renders an error into a response via the registered error handlers.
// The error itself is exposed to them through request.Env.Error.
func (r *Router) OnError(request *http.Request, err error) *http.Response {
	request.Env.Error = err

	handler := r.root.errHandlers.get(errorCode(err))
	if resp := handler(request); resp != nil {
		return resp
	}

	return request.Respond().Code(errorCode(err))
}
