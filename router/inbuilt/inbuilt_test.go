package inbuilt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cobalt-web/cobalt/config"
	"github.com/cobalt-web/cobalt/http"
	"github.com/cobalt-web/cobalt/http/method"
	"github.com/cobalt-web/cobalt/http/mime"
	"github.com/cobalt-web/cobalt/http/status"
	"github.com/cobalt-web/cobalt/kv"
	"github.com/cobalt-web/cobalt/transport/dummy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRequest() *http.Request {
	return http.NewRequest(
		config.Default(), http.NewResponse(), dummy.NewNopClient(), nil, kv.New(), kv.New(),
	)
}

func dispatch(r *Router, m method.Method, path string) *http.Response {
	request := getRequest()
	request.Method = m
	request.Path = path

	return r.OnRequest(request)
}

func respondWith(body string) Handler {
	return func(request *http.Request) *http.Response {
		return request.Respond().String(body)
	}
}

func headerValue(resp *http.Response, key string) (string, bool) {
	for _, header := range resp.Reveal().Headers {
		if header.Key == key {
			return header.Value, true
		}
	}

	return "", false
}

func TestRoute(t *testing.T) {
	r := New()
	r.Route(method.GET, "/", respondWith("root"))
	r.Route(method.POST, "/", http.Respond)
	r.Route(method.POST, "/hello", http.Respond)
	require.NoError(t, r.OnStart())

	t.Run("GET /", func(t *testing.T) {
		resp := dispatch(r, method.GET, "/")
		require.Equal(t, status.OK, resp.Reveal().Code)
		require.Equal(t, "root", string(resp.Reveal().Body))
	})

	t.Run("POST /", func(t *testing.T) {
		resp := dispatch(r, method.POST, "/")
		require.Equal(t, status.OK, resp.Reveal().Code)
	})

	t.Run("POST /hello", func(t *testing.T) {
		resp := dispatch(r, method.POST, "/hello")
		require.Equal(t, status.OK, resp.Reveal().Code)
	})

	t.Run("trailing slash", func(t *testing.T) {
		resp := dispatch(r, method.POST, "/hello/")
		require.Equal(t, status.OK, resp.Reveal().Code)
	})

	t.Run("HEAD / falls back to GET", func(t *testing.T) {
		// no HEAD handler is registered, so the GET one is expected to be
		// called. Stripping the body off is the transfer encoder's job
		resp := dispatch(r, method.HEAD, "/")
		require.Equal(t, status.OK, resp.Reveal().Code)
		require.Equal(t, "root", string(resp.Reveal().Body))
	})
}

func TestHeadHandlerPreferred(t *testing.T) {
	r := New().
		Get("/", respondWith("get")).
		Head("/", respondWith("head"))
	require.NoError(t, r.OnStart())

	resp := dispatch(r, method.HEAD, "/")
	require.Equal(t, "head", string(resp.Reveal().Body))
}

func testMethodShorthand(
	t *testing.T, router *Router,
	route func(string, Handler, ...Middleware) *Router,
	m method.Method,
) {
	route("/", http.Respond)
	require.Contains(t, router.registrar.patterns, "/")
	require.NotNil(t, router.registrar.patterns["/"].methods[m])
}

func TestMethodShorthands(t *testing.T) {
	r := New()

	t.Run("GET", func(t *testing.T) {
		testMethodShorthand(t, r, r.Get, method.GET)
	})
	t.Run("HEAD", func(t *testing.T) {
		testMethodShorthand(t, r, r.Head, method.HEAD)
	})
	t.Run("POST", func(t *testing.T) {
		testMethodShorthand(t, r, r.Post, method.POST)
	})
	t.Run("PUT", func(t *testing.T) {
		testMethodShorthand(t, r, r.Put, method.PUT)
	})
	t.Run("DELETE", func(t *testing.T) {
		testMethodShorthand(t, r, r.Delete, method.DELETE)
	})
	t.Run("CONNECT", func(t *testing.T) {
		testMethodShorthand(t, r, r.Connect, method.CONNECT)
	})
	t.Run("OPTIONS", func(t *testing.T) {
		testMethodShorthand(t, r, r.Options, method.OPTIONS)
	})
	t.Run("TRACE", func(t *testing.T) {
		testMethodShorthand(t, r, r.Trace, method.TRACE)
	})
	t.Run("PATCH", func(t *testing.T) {
		testMethodShorthand(t, r, r.Patch, method.PATCH)
	})
}

func TestRouteMethods(t *testing.T) {
	r := New()
	r.RouteMethods([]method.Method{method.GET, method.POST, method.PUT}, "/multi", http.Respond)
	require.NoError(t, r.OnStart())

	for _, m := range []method.Method{method.GET, method.POST, method.PUT} {
		resp := dispatch(r, m, "/multi")
		assert.Equal(t, status.OK, resp.Reveal().Code, m.String())
	}

	resp := dispatch(r, method.DELETE, "/multi")
	require.Equal(t, status.MethodNotAllowed, resp.Reveal().Code)
}

func TestGroups(t *testing.T) {
	r := New().
		Get("/", http.Respond)

	api := r.Group("/api")

	api.Group("/v1").
		Get("/hello", http.Respond)

	api.Group("/v2").
		Get("/world", http.Respond)

	require.NoError(t, r.OnStart())

	require.Contains(t, r.table.static, "/")
	require.Contains(t, r.table.static, "/api/v1/hello")
	require.Contains(t, r.table.static, "/api/v2/world")
	require.Equal(t, 3, len(r.table.static))

	resp := dispatch(r, method.GET, "/api/v1/hello")
	require.Equal(t, status.OK, resp.Reveal().Code)
}

func TestResource(t *testing.T) {
	r := New()
	r.Resource("/").
		Get(http.Respond).
		Post(http.Respond)

	api := r.Group("/api")
	api.Resource("/stat").
		Get(http.Respond).
		Post(http.Respond)

	require.NoError(t, r.OnStart())

	t.Run("root", func(t *testing.T) {
		require.Equal(t, status.OK, dispatch(r, method.GET, "/").Reveal().Code)
		require.Equal(t, status.OK, dispatch(r, method.POST, "/").Reveal().Code)
	})

	t.Run("group", func(t *testing.T) {
		require.Equal(t, status.OK, dispatch(r, method.GET, "/api/stat").Reveal().Code)
		require.Equal(t, status.OK, dispatch(r, method.POST, "/api/stat").Reveal().Code)
	})
}

func TestDuplicates(t *testing.T) {
	t.Run("same method and path", func(t *testing.T) {
		r := New().
			Get("/", http.Respond).
			Get("/", http.Respond)
		err := r.OnStart()
		require.ErrorIs(t, err, ErrDuplicateRoute)
		require.Contains(t, err.Error(), "GET /")
	})

	t.Run("collision between root and group", func(t *testing.T) {
		r := New().
			Get("/api/users", http.Respond)
		r.Group("/api").
			Get("/users", http.Respond)
		require.ErrorIs(t, r.OnStart(), ErrDuplicateRoute)
	})

	t.Run("same path different methods is fine", func(t *testing.T) {
		r := New().
			Get("/", http.Respond).
			Post("/", http.Respond)
		require.NoError(t, r.OnStart())
	})
}

func TestInvalidPatterns(t *testing.T) {
	for _, pattern := range []string{
		"no-leading-slash",
		"",
		"/files/*/deep",
		"/files/*name/deep",
		"/files/**",
		"/files/sub*",
	} {
		t.Run(pattern, func(t *testing.T) {
			r := New().Get(pattern, http.Respond)
			require.ErrorIs(t, r.OnStart(), ErrInvalidPattern)
		})
	}
}

func TestFrozen(t *testing.T) {
	r := New().
		Get("/", http.Respond)
	require.NoError(t, r.OnStart())

	require.PanicsWithValue(t, ErrRouterFrozen, func() {
		r.Get("/late", http.Respond)
	})
	require.PanicsWithValue(t, ErrRouterFrozen, func() {
		r.Use(func(*http.Request) bool { return true })
	})
	require.PanicsWithValue(t, ErrRouterFrozen, func() {
		r.Group("/late")
	})
	require.PanicsWithValue(t, ErrRouterFrozen, func() {
		r.RouteError(http.Respond)
	})
	require.ErrorIs(t, r.OnStart(), ErrRouterFrozen)
}

func TestWildcard(t *testing.T) {
	r := New().
		Get("/files/*", func(request *http.Request) *http.Response {
			return request.Respond().String(request.Params.Value("*"))
		}).
		Get("/users/*rest", func(request *http.Request) *http.Response {
			return request.Respond().String(request.Params.Value("rest"))
		})
	require.NoError(t, r.OnStart())

	t.Run("anonymous tail", func(t *testing.T) {
		resp := dispatch(r, method.GET, "/files/readme.md")
		require.Equal(t, status.OK, resp.Reveal().Code)
		require.Equal(t, "readme.md", string(resp.Reveal().Body))
	})

	t.Run("multi-segment tail", func(t *testing.T) {
		resp := dispatch(r, method.GET, "/files/docs/guide/intro.md")
		require.Equal(t, status.OK, resp.Reveal().Code)
		require.Equal(t, "docs/guide/intro.md", string(resp.Reveal().Body))
	})

	t.Run("named tail", func(t *testing.T) {
		resp := dispatch(r, method.GET, "/users/42/avatar")
		require.Equal(t, "42/avatar", string(resp.Reveal().Body))
	})

	t.Run("empty tail misses", func(t *testing.T) {
		require.Equal(t, status.NotFound, dispatch(r, method.GET, "/files").Reveal().Code)
		require.Equal(t, status.NotFound, dispatch(r, method.GET, "/files/").Reveal().Code)
	})
}

func TestTieBreak(t *testing.T) {
	r := New().
		Get("/files/special", respondWith("literal")).
		Get("/files/*", respondWith("files")).
		Get("/*", respondWith("fallback"))
	require.NoError(t, r.OnStart())

	t.Run("exact match beats wildcards", func(t *testing.T) {
		require.Equal(t, "literal", string(dispatch(r, method.GET, "/files/special").Reveal().Body))
	})

	t.Run("longest prefix wins", func(t *testing.T) {
		require.Equal(t, "files", string(dispatch(r, method.GET, "/files/other").Reveal().Body))
	})

	t.Run("shortest prefix catches the rest", func(t *testing.T) {
		require.Equal(t, "fallback", string(dispatch(r, method.GET, "/anything/else").Reveal().Body))
	})
}

func TestNotFound(t *testing.T) {
	r := New().
		Get("/", http.Respond)
	require.NoError(t, r.OnStart())

	resp := dispatch(r, method.GET, "/missing")
	require.Equal(t, status.NotFound, resp.Reveal().Code)
	require.Equal(t, "Not Found", string(resp.Reveal().Body))
	require.Equal(t, mime.Plain, resp.Reveal().ContentType)
}

func TestMethodNotAllowed(t *testing.T) {
	r := New().
		Get("/", http.Respond).
		Get("/files/exact", http.Respond).
		Post("/files/*", http.Respond)
	require.NoError(t, r.OnStart())

	t.Run("single method", func(t *testing.T) {
		resp := dispatch(r, method.POST, "/")
		require.Equal(t, status.MethodNotAllowed, resp.Reveal().Code)
		allow, found := headerValue(resp, "Allow")
		require.True(t, found)
		require.Equal(t, "GET", allow)
	})

	t.Run("allow unites exact and wildcard methods", func(t *testing.T) {
		resp := dispatch(r, method.DELETE, "/files/exact")
		require.Equal(t, status.MethodNotAllowed, resp.Reveal().Code)
		allow, found := headerValue(resp, "Allow")
		require.True(t, found)
		require.Equal(t, "GET,POST", allow)
	})

	t.Run("options discovery stays 200", func(t *testing.T) {
		resp := dispatch(r, method.OPTIONS, "/")
		require.Equal(t, status.OK, resp.Reveal().Code)
		allow, found := headerValue(resp, "Allow")
		require.True(t, found)
		require.Equal(t, "GET", allow)
	})

	t.Run("unknown path is still 404", func(t *testing.T) {
		resp := dispatch(r, method.POST, "/missing")
		require.Equal(t, status.NotFound, resp.Reveal().Code)
	})
}

func TestMiddlewares(t *testing.T) {
	mark := func(journal *[]string, name string, proceed bool) Middleware {
		return func(request *http.Request) bool {
			*journal = append(*journal, name)
			return proceed
		}
	}

	t.Run("chain runs in attachment order", func(t *testing.T) {
		var journal []string
		r := New()
		r.Use(mark(&journal, "first", true), mark(&journal, "second", true))
		r.Get("/", respondWith("handled"), mark(&journal, "route", true))
		require.NoError(t, r.OnStart())

		resp := dispatch(r, method.GET, "/")
		require.Equal(t, "handled", string(resp.Reveal().Body))
		require.Equal(t, []string{"first", "second", "route"}, journal)
	})

	t.Run("false stops the chain", func(t *testing.T) {
		var journal []string
		deny := func(request *http.Request) bool {
			journal = append(journal, "deny")
			request.Respond().Code(status.Forbidden).String("denied")
			return false
		}

		handlerRan := false
		r := New()
		r.Use(mark(&journal, "first", true), deny, mark(&journal, "third", true))
		r.Get("/", func(request *http.Request) *http.Response {
			handlerRan = true
			return request.Respond()
		})
		require.NoError(t, r.OnStart())

		resp := dispatch(r, method.GET, "/")
		require.Equal(t, []string{"first", "deny"}, journal)
		require.False(t, handlerRan)
		require.Equal(t, status.Forbidden, resp.Reveal().Code)
		require.Equal(t, "denied", string(resp.Reveal().Body))
	})

	t.Run("silent false yields an empty 200", func(t *testing.T) {
		r := New()
		r.Get("/", respondWith("never"), func(*http.Request) bool { return false })
		require.NoError(t, r.OnStart())

		var resp *http.Response
		require.NotPanics(t, func() {
			resp = dispatch(r, method.GET, "/")
		})
		require.Equal(t, status.OK, resp.Reveal().Code)
		require.Empty(t, resp.Reveal().Body)
	})

	t.Run("use applies to routes registered before", func(t *testing.T) {
		var journal []string
		r := New()
		r.Get("/", http.Respond)
		r.Use(mark(&journal, "late", true))
		require.NoError(t, r.OnStart())

		dispatch(r, method.GET, "/")
		require.Equal(t, []string{"late"}, journal)
	})

	t.Run("groups inherit middlewares", func(t *testing.T) {
		var journal []string
		r := New()
		r.Use(mark(&journal, "root", true))
		r.Group("/api").
			Use(mark(&journal, "group", true)).
			Get("/hello", http.Respond, mark(&journal, "route", true))
		require.NoError(t, r.OnStart())

		dispatch(r, method.GET, "/api/hello")
		require.Equal(t, []string{"root", "group", "route"}, journal)
	})

	t.Run("skipped for dead ends", func(t *testing.T) {
		var journal []string
		r := New()
		r.Use(mark(&journal, "never", true))
		r.Get("/", http.Respond)
		require.NoError(t, r.OnStart())

		require.Equal(t, status.NotFound, dispatch(r, method.GET, "/missing").Reveal().Code)
		require.Equal(t, status.MethodNotAllowed, dispatch(r, method.POST, "/").Reveal().Code)
		require.Empty(t, journal)
	})
}

func TestRouteError(t *testing.T) {
	t.Run("override concrete code", func(t *testing.T) {
		r := New().
			Get("/", http.Respond).
			RouteError(func(request *http.Request) *http.Response {
				return request.Respond().
					Code(status.NotFound).
					String("nothing here")
			}, status.NotFound)
		require.NoError(t, r.OnStart())

		resp := dispatch(r, method.GET, "/missing")
		require.Equal(t, status.NotFound, resp.Reveal().Code)
		require.Equal(t, "nothing here", string(resp.Reveal().Body))

		// 405 keeps its own default
		resp = dispatch(r, method.POST, "/")
		require.Equal(t, status.MethodNotAllowed, resp.Reveal().Code)
		require.Equal(t, "Method Not Allowed", string(resp.Reveal().Body))
	})

	t.Run("universal fallback", func(t *testing.T) {
		r := New().
			Get("/", http.Respond).
			RouteError(func(request *http.Request) *http.Response {
				return request.Respond().
					Code(status.Teapot).
					String("caught")
			})
		require.NoError(t, r.OnStart())

		resp := dispatch(r, method.GET, "/missing")
		require.Equal(t, status.Teapot, resp.Reveal().Code)
		require.Equal(t, "caught", string(resp.Reveal().Body))
	})

	t.Run("error value is exposed via env", func(t *testing.T) {
		var seen error
		r := New().
			RouteError(func(request *http.Request) *http.Response {
				seen = request.Env.Error
				return request.Respond().Code(status.BadRequest)
			}, status.BadRequest)
		require.NoError(t, r.OnStart())

		request := getRequest()
		resp := r.OnError(request, status.ErrMalformedRequest)
		require.Equal(t, status.BadRequest, resp.Reveal().Code)
		require.Equal(t, status.ErrMalformedRequest, seen)
	})
}

func TestOnError(t *testing.T) {
	t.Run("http error picks its code", func(t *testing.T) {
		r := New()
		require.NoError(t, r.OnStart())

		resp := r.OnError(getRequest(), status.ErrBodyTooLarge)
		require.Equal(t, status.RequestEntityTooLarge, resp.Reveal().Code)
		require.Equal(t, "Request Entity Too Large", string(resp.Reveal().Body))
	})

	t.Run("internals never leak", func(t *testing.T) {
		r := New()
		require.NoError(t, r.OnStart())

		resp := r.OnError(getRequest(), errors.New("dial tcp 10.0.0.5: connection refused"))
		require.Equal(t, status.InternalServerError, resp.Reveal().Code)
		require.Equal(t, "Internal Server Error", string(resp.Reveal().Body))
		require.NotContains(t, string(resp.Reveal().Body), "10.0.0.5")
	})
}

func TestStatic(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "style.css"), []byte("body{}"), 0o644))

	r := New().Static("/assets", root)
	require.NoError(t, r.OnStart())

	t.Run("serves a file", func(t *testing.T) {
		resp := dispatch(r, method.GET, "/assets/style.css")
		require.Equal(t, status.OK, resp.Reveal().Code)
		require.False(t, resp.Reveal().Attachment.Empty())
		require.Equal(t, int64(6), resp.Reveal().Attachment.Size())
		resp.Reveal().Attachment.Close()
	})

	t.Run("missing file", func(t *testing.T) {
		resp := dispatch(r, method.GET, "/assets/nothing.css")
		require.Equal(t, status.NotFound, resp.Reveal().Code)
	})

	t.Run("traversal is cut off", func(t *testing.T) {
		resp := dispatch(r, method.GET, "/assets/../secrets.txt")
		require.Equal(t, status.NotFound, resp.Reveal().Code)

		resp = dispatch(r, method.GET, "/assets/sub/../../secrets.txt")
		require.Equal(t, status.NotFound, resp.Reveal().Code)
	})
}

func TestIsSafe(t *testing.T) {
	require.True(t, isSafe("style.css"))
	require.True(t, isSafe("sub/dir/style.css"))
	require.True(t, isSafe("..hidden"))
	require.True(t, isSafe("dots../file"))
	require.False(t, isSafe(".."))
	require.False(t, isSafe("../file"))
	require.False(t, isSafe("sub/../../file"))
	require.False(t, isSafe("sub/.."))
}
