package middleware

import (
	"context"

	"github.com/cobalt-web/cobalt/http"
	"github.com/cobalt-web/cobalt/router/inbuilt"
)

// CustomContext substitutes the request context. Note that the context field
// lives as long as the connection does, surviving into follow-up requests on
// the same connection.
func CustomContext(ctx context.Context) inbuilt.Middleware {
	return func(request *http.Request) bool {
		request.Ctx = ctx
		return true
	}
}
