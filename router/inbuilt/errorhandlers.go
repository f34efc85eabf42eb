package inbuilt

import (
	"errors"

	"github.com/cobalt-web/cobalt/http"
	"github.com/cobalt-web/cobalt/http/method"
	"github.com/cobalt-web/cobalt/http/mime"
	"github.com/cobalt-web/cobalt/http/status"
)

// errorHandlers picks the most specific handler for a status code, falling
// back to the universal one.
type errorHandlers struct {
	universal Handler
	perCode   map[status.Code]Handler
}

func newErrorHandlers() errorHandlers {
	return errorHandlers{
		universal: genericErrorHandler,
		perCode: map[status.Code]Handler{
			status.MethodNotAllowed: generic405Handler,
		},
	}
}

func (e errorHandlers) get(code status.Code) Handler {
	if handler, found := e.perCode[code]; found {
		return handler
	}

	return e.universal
}

func errorCode(err error) status.Code {
	var httpErr status.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return status.InternalServerError
}

// genericErrorHandler renders the status text as a plain-text body. The
// original error text never reaches the peer: it may carry internals nobody
// outside has business seeing.
func genericErrorHandler(request *http.Request) *http.Response {
	code := errorCode(request.Env.Error)

	return request.Respond().
		Code(code).
		ContentType(mime.Plain).
		String(string(status.Text(code)))
}

// generic405Handler advertises the methods the path does serve. OPTIONS
// requests get the list as a discovery response instead of an error.
func generic405Handler(request *http.Request) *http.Response {
	resp := request.Respond()
	if len(request.Env.AllowedMethods) > 0 {
		resp.Header("Allow", request.Env.AllowedMethods)
	}

	if request.Method == method.OPTIONS {
		return resp
	}

	return resp.
		Code(status.MethodNotAllowed).
		ContentType(mime.Plain).
		String(string(status.Text(status.MethodNotAllowed)))
}
