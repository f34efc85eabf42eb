package inbuilt

import (
	"sort"
	"strings"

	"github.com/cobalt-web/cobalt/http/method"
)

// table is the frozen form of the registrar. Reads are lock-free: nothing
// writes to it once built.
type table struct {
	static    map[string]methodsMap
	wildcards []wildcardRoute
}

// wildcardRoute serves all paths sharing the literal prefix and having a
// non-empty tail behind it.
type wildcardRoute struct {
	// prefix includes the slash separating it from the tail, e.g. the
	// /files/* pattern turns into the "/files/" prefix.
	prefix  string
	param   string
	methods methodsMap
}

func (w *wildcardRoute) matches(path string) bool {
	return len(path) > len(w.prefix) && path[:len(w.prefix)] == w.prefix
}

func (r *registrar) build() table {
	t := table{static: make(map[string]methodsMap, len(r.patterns))}

	for _, pattern := range r.order {
		entry := r.patterns[pattern]
		if len(entry.param) == 0 {
			t.static[entry.prefix] = entry.methods
			continue
		}

		t.wildcards = append(t.wildcards, wildcardRoute{
			prefix:  entry.prefix,
			param:   entry.param,
			methods: entry.methods,
		})
	}

	// An exact match always wins over wildcards, and among wildcards the
	// longest literal prefix does. The stable sort keeps equally specific
	// patterns in registration order.
	sort.SliceStable(t.wildcards, func(i, j int) bool {
		return len(t.wildcards[i].prefix) > len(t.wildcards[j].prefix)
	})

	return t
}

// lookup resolves a request path against routes carrying the method. Wildcard
// matches report the param name and the captured tail, so changing the tail
// alone can never change which route is picked.
func (t *table) lookup(m method.Method, path string) (rt *route, param, tail string) {
	if rt := t.static[path][m]; rt != nil {
		return rt, "", ""
	}

	for i := range t.wildcards {
		w := &t.wildcards[i]
		if w.methods[m] != nil && w.matches(path) {
			return w.methods[m], w.param, path[len(w.prefix):]
		}
	}

	return nil, "", ""
}

// allowed reports the methods registered on the path across both the exact
// entry and every matching wildcard, comma-separated for the Allow header.
// An empty string means the path matches nothing at all.
func (t *table) allowed(path string) string {
	var present [method.Count + 1]bool

	if entry, found := t.static[path]; found {
		entry.mark(&present)
	}
	for i := range t.wildcards {
		if w := &t.wildcards[i]; w.matches(path) {
			w.methods.mark(&present)
		}
	}

	var allowed string
	for i, ok := range present {
		if ok {
			allowed += method.Method(i).String() + ","
		}
	}

	return strings.TrimSuffix(allowed, ",")
}
