package inbuilt

import (
	"path"
	"strings"

	"github.com/cobalt-web/cobalt/http"
	"github.com/cobalt-web/cobalt/http/status"
)

// Static serves files from the root directory for all GET-requests under the
// prefix, e.g. Static("/assets", "./static") makes GET /assets/app.css read
// ./static/app.css. The captured tail is checked against path traversal, a
// request trying to climb out of the root is answered with 404.
func (r *Router) Static(prefix, root string, middlewares ...Middleware) *Router {
	pattern := strings.TrimSuffix(prefix, "/") + "/*"

	return r.Get(pattern, func(request *http.Request) *http.Response {
		tail := request.Params.Value("*")
		if !isSafe(tail) {
			return http.Error(request, status.ErrNotFound)
		}

		return request.Respond().File(path.Join(root, tail))
	}, middlewares...)
}

// isSafe rejects paths with dot-dot segments.
func isSafe(tail string) bool {
	for len(tail) > 0 {
		segment := tail
		if slash := strings.IndexByte(tail, '/'); slash != -1 {
			segment, tail = tail[:slash], tail[slash+1:]
		} else {
			tail = ""
		}

		if segment == ".." {
			return false
		}
	}

	return true
}
