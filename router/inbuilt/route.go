package inbuilt

import (
	"github.com/cobalt-web/cobalt/http/method"
	"github.com/cobalt-web/cobalt/http/status"
)

// Route registers a handler for the method and path pattern, with optional
// middlewares running before it in the passed order. The call is chainable;
// registration errors, duplicates above all, are collected and returned from
// OnStart instead of failing in place.
//
// Calling it after the server has started panics with ErrRouterFrozen.
func (r *Router) Route(m method.Method, path string, handler Handler, middlewares ...Middleware) *Router {
	if r.root.frozen {
		panic(ErrRouterFrozen)
	}

	err := r.registrar.add(r.prefix+path, m, &route{handler: handler, chain: middlewares})
	if err != nil && r.root.err == nil {
		r.root.err = err
	}

	return r
}

// RouteMethods registers the same handler for a set of methods at once.
func (r *Router) RouteMethods(ms []method.Method, path string, handler Handler, middlewares ...Middleware) *Router {
	for _, m := range ms {
		r.Route(m, path, handler, middlewares...)
	}

	return r
}

// RouteError overrides a handler used to render error responses. Passing
// status codes binds the handler to them specifically, passing none makes it
// the fallback for every error without a dedicated handler. The error itself
// is available via request.Env.Error, and for 405 the allowed methods via
// request.Env.AllowedMethods.
//
// Note: error handlers are shared, so calling this on a group affects the
// root and all other groups as well.
func (r *Router) RouteError(handler Handler, codes ...status.Code) *Router {
	if r.root.frozen {
		panic(ErrRouterFrozen)
	}

	if len(codes) == 0 {
		r.root.errHandlers.universal = handler
		return r
	}

	for _, code := range codes {
		r.root.errHandlers.perCode[code] = handler
	}

	return r
}
