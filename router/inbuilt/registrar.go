package inbuilt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cobalt-web/cobalt/http/method"
)

var (
	// ErrDuplicateRoute is reported when a (method, pattern) pair is registered
	// twice. The error surfaces from OnStart and aborts the server launch.
	ErrDuplicateRoute = errors.New("route already registered")
	// ErrInvalidPattern is reported for patterns the router cannot serve, e.g.
	// a wildcard followed by more segments.
	ErrInvalidPattern = errors.New("invalid route pattern")
	// ErrRouterFrozen signals a modification attempt past OnStart. The route
	// table is shared lock-free between connections, so it stays read-only
	// once the server is accepting them.
	ErrRouterFrozen = errors.New("the route table is frozen after startup")
)

// methodsMap is indexed by the method enum directly. The zero value matches
// nothing.
type methodsMap [method.Count + 1]*route

func (m methodsMap) mark(present *[method.Count + 1]bool) {
	for i, rt := range m {
		if rt != nil {
			present[i] = true
		}
	}
}

// patternEntry is a parsed pattern: for static ones prefix is the whole path
// and param is empty, for wildcard ones prefix is the literal part including
// the trailing slash, and param names the captured tail.
type patternEntry struct {
	prefix  string
	param   string
	methods methodsMap
}

// registrar accumulates routes before the table is built. Patterns are keyed
// by their normalized form, and the insertion order is kept so overlapping
// wildcards resolve deterministically later on.
type registrar struct {
	patterns map[string]*patternEntry
	order    []string
}

func newRegistrar() *registrar {
	return &registrar{patterns: make(map[string]*patternEntry)}
}

func (r *registrar) add(pattern string, m method.Method, rt *route) error {
	pattern = stripTrailingSlash(pattern)
	entry, found := r.patterns[pattern]
	if !found {
		prefix, param, err := parsePattern(pattern)
		if err != nil {
			return err
		}

		entry = &patternEntry{prefix: prefix, param: param}
		r.patterns[pattern] = entry
		r.order = append(r.order, pattern)
	}

	if entry.methods[m] != nil {
		return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, m.String(), pattern)
	}

	entry.methods[m] = rt

	return nil
}

// mergeInto re-registers every route into dst, prepending the group-wide
// middlewares to each route's own chain. Collisions with already merged
// routes are reported the same way ordinary duplicates are.
func (r *registrar) mergeInto(dst *registrar, global []Middleware) error {
	for _, pattern := range r.order {
		entry := r.patterns[pattern]

		for m, rt := range entry.methods {
			if rt == nil {
				continue
			}

			final := &route{handler: rt.handler, chain: joinChains(global, rt.chain)}
			if err := dst.add(pattern, method.Method(m), final); err != nil {
				return err
			}
		}
	}

	return nil
}

func joinChains(global, local []Middleware) []Middleware {
	if len(global) == 0 {
		return local
	}

	chain := make([]Middleware, 0, len(global)+len(local))
	chain = append(chain, global...)

	return append(chain, local...)
}

// parsePattern splits a pattern into its literal prefix and the wildcard
// param name, empty for purely literal patterns. A wildcard is a final
// segment starting with an asterisk: bare `*` captures the tail under the
// anonymous "*" key, `*name` captures it under the given name.
func parsePattern(pattern string) (prefix, param string, err error) {
	if len(pattern) == 0 || pattern[0] != '/' {
		return "", "", fmt.Errorf("%w: %q must start with a slash", ErrInvalidPattern, pattern)
	}

	star := strings.IndexByte(pattern, '*')
	if star == -1 {
		return pattern, "", nil
	}
	if pattern[star-1] != '/' {
		return "", "", fmt.Errorf("%w: %q wildcard must form its own segment", ErrInvalidPattern, pattern)
	}

	param = pattern[star+1:]
	if strings.ContainsAny(param, "/*") {
		return "", "", fmt.Errorf("%w: %q wildcard must be the final segment", ErrInvalidPattern, pattern)
	}
	if len(param) == 0 {
		param = "*"
	}

	return pattern[:star], param, nil
}

// stripTrailingSlash brings both patterns and request paths to a common form,
// so /hello/ and /hello are the same route. The root path stays intact.
func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	return path
}
