package inbuilt

import (
	"github.com/cobalt-web/cobalt/http/method"
)

// Resource is a thin wrapper over a group, attaching multiple methods (and
// point-applied middlewares) to a single path a bit more conveniently than
// ordinary groups do.
type Resource struct {
	group *Router
}

// Resource returns a resource for the path, relative to the router it is
// created from.
func (r *Router) Resource(path string) Resource {
	return Resource{group: r.Group(path)}
}

// Use applies middlewares to all the resource's handlers, both already
// registered and future ones.
func (r Resource) Use(middlewares ...Middleware) Resource {
	r.group.Use(middlewares...)
	return r
}

// Route is a shortcut to group.Route, bypassing an empty path into it.
func (r Resource) Route(m method.Method, handler Handler, middlewares ...Middleware) Resource {
	r.group.Route(m, "", handler, middlewares...)
	return r
}

// Get registers a handler for GET-requests.
func (r Resource) Get(handler Handler, middlewares ...Middleware) Resource {
	return r.Route(method.GET, handler, middlewares...)
}

// Head registers a handler for HEAD-requests.
func (r Resource) Head(handler Handler, middlewares ...Middleware) Resource {
	return r.Route(method.HEAD, handler, middlewares...)
}

// Post registers a handler for POST-requests.
func (r Resource) Post(handler Handler, middlewares ...Middleware) Resource {
	return r.Route(method.POST, handler, middlewares...)
}

// Put registers a handler for PUT-requests.
func (r Resource) Put(handler Handler, middlewares ...Middleware) Resource {
	return r.Route(method.PUT, handler, middlewares...)
}

// Delete registers a handler for DELETE-requests.
func (r Resource) Delete(handler Handler, middlewares ...Middleware) Resource {
	return r.Route(method.DELETE, handler, middlewares...)
}

// Connect registers a handler for CONNECT-requests.
func (r Resource) Connect(handler Handler, middlewares ...Middleware) Resource {
	return r.Route(method.CONNECT, handler, middlewares...)
}

// Options registers a handler for OPTIONS-requests.
func (r Resource) Options(handler Handler, middlewares ...Middleware) Resource {
	return r.Route(method.OPTIONS, handler, middlewares...)
}

// Trace registers a handler for TRACE-requests.
func (r Resource) Trace(handler Handler, middlewares ...Middleware) Resource {
	return r.Route(method.TRACE, handler, middlewares...)
}

// Patch registers a handler for PATCH-requests.
func (r Resource) Patch(handler Handler, middlewares ...Middleware) Resource {
	return r.Route(method.PATCH, handler, middlewares...)
}
