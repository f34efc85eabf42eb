package transfer

import (
	"strconv"
	"strings"

	"github.com/indigo-web/utils/strcomp"
)

type rangeOutcome uint8

const (
	// rangeFull means no byte window applies and the resource is served whole.
	rangeFull rangeOutcome = iota
	// rangePartial carries a satisfiable window, inclusive on both ends.
	rangePartial
	// rangeUnsatisfiable means the request named a window the resource cannot
	// provide and must bounce with 416.
	rangeUnsatisfiable
)

type window struct {
	start, end int64
}

func (w window) length() int64 {
	return w.end - w.start + 1
}

// evaluateRange interprets a Range header value against a resource of total
// bytes. An absent header, a foreign unit or a non-bytes expression yields
// rangeFull, as RFC 7233 instructs to ignore ranges a server does not
// understand. A bytes expression that cannot be satisfied (start beyond the
// resource, empty window, multiple ranges, or garbage where digits belong)
// yields rangeUnsatisfiable. The end bound is clamped to the last byte, and
// the suffix form -N wider than the resource covers it whole.
func evaluateRange(header string, total int64) (window, rangeOutcome) {
	if header == "" {
		return window{}, rangeFull
	}

	unit, spec, ok := strings.Cut(header, "=")
	if !ok || !strcomp.EqualFold(strings.TrimSpace(unit), "bytes") {
		return window{}, rangeFull
	}

	// multiple ranges are rejected rather than partially honored, so that
	// the response never silently differs from what was asked
	if strings.IndexByte(spec, ',') != -1 {
		return window{}, rangeUnsatisfiable
	}

	startStr, endStr, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return window{}, rangeUnsatisfiable
	}

	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	if len(startStr) == 0 {
		return evaluateSuffix(endStr, total)
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start >= total {
		return window{}, rangeUnsatisfiable
	}

	end := total - 1
	if len(endStr) > 0 {
		end, err = strconv.ParseInt(endStr, 10, 64)
		switch {
		case err != nil, end < start:
			return window{}, rangeUnsatisfiable
		case end >= total:
			end = total - 1
		}
	}

	return window{start, end}, rangePartial
}

// evaluateSuffix handles the -N form: the last N bytes of the resource.
func evaluateSuffix(suffix string, total int64) (window, rangeOutcome) {
	n, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil || n <= 0 || total == 0 {
		return window{}, rangeUnsatisfiable
	}

	start := total - n
	if start < 0 {
		start = 0
	}

	return window{start, total - 1}, rangePartial
}
