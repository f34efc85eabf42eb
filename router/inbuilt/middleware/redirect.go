package middleware

import (
	"github.com/cobalt-web/cobalt/http"
	"github.com/cobalt-web/cobalt/http/status"
	"github.com/cobalt-web/cobalt/router/inbuilt"
)

// Redirect answers requests for the path with a temporary redirect to the
// location, stopping the chain. Requests for other paths pass through.
func Redirect(from, to string) inbuilt.Middleware {
	return func(request *http.Request) bool {
		if request.Path != from {
			return true
		}

		request.Respond().
			Code(status.TemporaryRedirect).
			Header("Location", to)

		return false
	}
}
