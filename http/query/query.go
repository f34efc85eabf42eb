package query

import (
	"errors"

	"github.com/cobalt-web/cobalt/internal/qparams"
	"github.com/cobalt-web/cobalt/internal/urlencoded"
	"github.com/cobalt-web/cobalt/kv"
)

// ErrNoSuchKey is returned by Get when the parameter isn't present.
var ErrNoSuchKey = errors.New("no entry by the key")

type Params = *kv.Storage

// Query provides lazy access to URI parameters. The raw bytes are kept as they
// arrived and get parsed on first access only, as most requests never use them.
type Query struct {
	params Params
	buff   []byte
	raw    []byte
	parsed bool
	err    error
}

func New(underlying *kv.Storage) *Query {
	return &Query{
		params: underlying,
	}
}

// Update sets a new raw value, invalidating previously parsed parameters.
func (q *Query) Update(raw []byte) {
	q.raw = raw
	q.err = nil

	if q.parsed {
		q.parsed = false
		q.params.Clear()
	}
}

// Get returns the value of the parameter. If the parameter was sent more than
// once, the last occurrence wins. A flag parameter (key with no equals sign)
// reports an empty string. ErrNoSuchKey is returned when there is no such
// parameter, status.ErrBadQuery when the query is malformed.
func (q *Query) Get(key string) (value string, err error) {
	if err = q.parse(); err != nil {
		return "", err
	}

	found := false

	for _, pair := range q.params.Expose() {
		if pair.Key == key {
			value, found = pair.Value, true
		}
	}

	if !found {
		return "", ErrNoSuchKey
	}

	return value, nil
}

// Unwrap parses the query, if not parsed yet, and returns all the parameters
// as they are.
func (q *Query) Unwrap() (Params, error) {
	return q.params, q.parse()
}

// Raw returns the query exactly as it appeared in the request line.
func (q *Query) Raw() []byte {
	return q.raw
}

func (q *Query) parse() error {
	if q.parsed {
		return q.err
	}

	q.parsed = true
	q.buff, q.err = qparams.Parse(q.raw, q.buff[:0], qparams.Into(q.params), urlencoded.Decode, "")

	return q.err
}
