package router

import (
	"github.com/cobalt-web/cobalt/http"
)

// Router is the contract the server dispatches through.
//
// OnStart is called exactly once, after configuration but before the first
// connection is accepted. Implementations use it to finalize internal
// structures; returning an error aborts the launch. After it returns, the
// implementation must be safe for concurrent use by independent connections.
//
// OnRequest serves a single request cycle and must always come back with a
// response, even if the path is a dead end. OnError turns a request cycle,
// failed before or after the handler, into a response.
type Router interface {
	OnStart() error
	OnRequest(request *http.Request) *http.Response
	OnError(request *http.Request, err error) *http.Response
}
