package query

import (
	"testing"

	"github.com/cobalt-web/cobalt/http/status"
	"github.com/cobalt-web/cobalt/kv"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	t.Run("get existing key", func(t *testing.T) {
		q := New(kv.New())
		q.Update([]byte("hello=world"))

		value, err := q.Get("hello")
		require.NoError(t, err)
		require.Equal(t, "world", value)
	})

	t.Run("get non-existing key", func(t *testing.T) {
		q := New(kv.New())
		q.Update([]byte("hello=world"))

		_, err := q.Get("lorem")
		require.ErrorIs(t, err, ErrNoSuchKey)
	})

	t.Run("last occurrence wins", func(t *testing.T) {
		q := New(kv.New())
		q.Update([]byte("id=1&name=a&id=2"))

		value, err := q.Get("id")
		require.NoError(t, err)
		require.Equal(t, "2", value)
	})

	t.Run("percent-decoded", func(t *testing.T) {
		q := New(kv.New())
		q.Update([]byte("greeting=hello%20world%21"))

		value, err := q.Get("greeting")
		require.NoError(t, err)
		require.Equal(t, "hello world!", value)
	})

	t.Run("flag key has empty value", func(t *testing.T) {
		q := New(kv.New())
		q.Update([]byte("verbose&level=5"))

		value, err := q.Get("verbose")
		require.NoError(t, err)
		require.Empty(t, value)
	})

	t.Run("malformed query", func(t *testing.T) {
		q := New(kv.New())
		q.Update([]byte("=value"))

		_, err := q.Get("whatever")
		require.ErrorIs(t, err, status.ErrBadQuery)

		// the error must be sticky across further calls
		_, err = q.Get("whatever")
		require.ErrorIs(t, err, status.ErrBadQuery)
	})

	t.Run("update invalidates parsed params", func(t *testing.T) {
		q := New(kv.New())
		q.Update([]byte("a=1"))

		_, err := q.Get("a")
		require.NoError(t, err)

		q.Update([]byte("b=2"))
		_, err = q.Get("a")
		require.ErrorIs(t, err, ErrNoSuchKey)

		value, err := q.Get("b")
		require.NoError(t, err)
		require.Equal(t, "2", value)
	})

	t.Run("unwrap exposes everything", func(t *testing.T) {
		q := New(kv.New())
		q.Update([]byte("a=1&a=2&b=3"))

		params, err := q.Unwrap()
		require.NoError(t, err)
		require.Equal(t, []kv.Pair{{"a", "1"}, {"a", "2"}, {"b", "3"}}, params.Expose())
	})

	t.Run("raw is untouched", func(t *testing.T) {
		q := New(kv.New())
		raw := []byte("a=%31")
		q.Update(raw)

		_, err := q.Get("a")
		require.NoError(t, err)
		require.Equal(t, []byte("a=%31"), q.Raw())
	})
}
