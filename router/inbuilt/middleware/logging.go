package middleware

import (
	"github.com/cobalt-web/cobalt/http"
	"github.com/cobalt-web/cobalt/router/inbuilt"
	"github.com/rs/zerolog"
)

// LogRequests logs every request entering the chain at debug level. The path
// goes through http.Escape, so a crafted request cannot smuggle control
// sequences into the log stream.
func LogRequests(log zerolog.Logger) inbuilt.Middleware {
	return func(request *http.Request) bool {
		event := log.Debug().
			Str("method", request.Method.String()).
			Str("path", http.Escape(request.Path))
		if request.Remote != nil {
			event = event.Str("remote", request.Remote.String())
		}
		event.Msg("request")

		return true
	}
}
