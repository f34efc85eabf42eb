package inbuilt

import (
	"github.com/cobalt-web/cobalt/http"
)

type (
	// Handler processes a request and returns a response, usually built via
	// request.Respond(). Returning nil is treated as an empty 200 OK.
	Handler func(request *http.Request) *http.Response

	// Middleware runs before the handler. Returning true passes control
	// further down the chain, false stops the cycle right away, and whatever
	// the middleware has written into the response builder is sent as-is.
	Middleware func(request *http.Request) bool
)

// route is a handler with its middleware chain in the final execution order.
type route struct {
	handler Handler
	chain   []Middleware
}
