package inbuilt

/*
This file is responsible for endpoint groups and middleware attachment
*/

// Group returns a router registering everything under the prefix. The group
// inherits a copy of the parent's middlewares, so middlewares added to the
// group afterwards never affect the parent. Error handlers stay shared with
// the root.
func (r *Router) Group(prefix string) *Router {
	if r.root.frozen {
		panic(ErrRouterFrozen)
	}

	group := &Router{
		root:        r.root,
		prefix:      r.prefix + prefix,
		middlewares: append([]Middleware(nil), r.middlewares...),
		registrar:   newRegistrar(),
	}
	r.root.groups = append(r.root.groups, group)

	return group
}

// Use attaches middlewares to every route of this router, including routes
// registered before the call. They run ahead of per-route middlewares, in
// the order they were attached.
func (r *Router) Use(middlewares ...Middleware) *Router {
	if r.root.frozen {
		panic(ErrRouterFrozen)
	}

	r.middlewares = append(r.middlewares, middlewares...)

	return r
}
