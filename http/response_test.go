package http

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cobalt-web/cobalt/http/mime"
	"github.com/cobalt-web/cobalt/http/status"
	"github.com/cobalt-web/cobalt/internal/response"
	"github.com/stretchr/testify/require"
)

func TestResponse(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		resp, err := NewResponse().TryJSON([]int{1, 2, 3})
		require.NoError(t, err)

		fields := resp.Reveal()
		require.Equal(t, "[1,2,3]", string(fields.Body))
		require.Equal(t, mime.JSON, fields.ContentType)
	})

	t.Run("headers are appended", func(t *testing.T) {
		fields := NewResponse().
			Header("Hello", "world").
			Header("Hello", "nether").
			Header("Sier", "ra", "madre").
			Reveal()

		require.Equal(t, []response.Header{
			{Key: "Hello", Value: "world"},
			{Key: "Hello", Value: "nether"},
			{Key: "Sier", Value: "ra"},
			{Key: "Sier", Value: "madre"},
		}, fields.Headers)
	})

	t.Run("managed headers are redirected", func(t *testing.T) {
		fields := NewResponse().
			Header("Content-Type", mime.JSON).
			Header("Transfer-Encoding", "chunked").
			Header("Content-Length", "42").
			Reveal()

		require.Empty(t, fields.Headers)
		require.Equal(t, mime.JSON, fields.ContentType)
		require.True(t, fields.Chunked)
	})

	t.Run("headers map", func(t *testing.T) {
		fields := NewResponse().
			Headers(map[string][]string{"Hello": {"world"}}).
			Reveal()

		require.Equal(t, []response.Header{{Key: "Hello", Value: "world"}}, fields.Headers)
	})

	t.Run("error with known code", func(t *testing.T) {
		fields := NewResponse().Error(status.ErrNotFound).Reveal()
		require.Equal(t, status.NotFound, fields.Code)
	})

	t.Run("error with unknown code", func(t *testing.T) {
		fields := NewResponse().Error(errors.New("something went wrong")).Reveal()
		require.Equal(t, status.InternalServerError, fields.Code)
		require.Equal(t, "something went wrong", string(fields.Body))
	})

	t.Run("error code override", func(t *testing.T) {
		fields := NewResponse().Error(errors.New("denied"), status.Teapot).Reveal()
		require.Equal(t, status.Teapot, fields.Code)
	})

	t.Run("nil error is a no-op", func(t *testing.T) {
		fields := NewResponse().Error(nil).Reveal()
		require.Equal(t, status.OK, fields.Code)
	})

	t.Run("writer appends to the body", func(t *testing.T) {
		resp := NewResponse().String("Hello")
		n, err := resp.Write([]byte(", world!"))
		require.NoError(t, err)
		require.Equal(t, 8, n)
		require.Equal(t, "Hello, world!", string(resp.Reveal().Body))
	})

	t.Run("clear", func(t *testing.T) {
		resp := NewResponse().
			Code(status.Teapot).
			Status("I'm Positive").
			ContentType(mime.JSON).
			Header("Hello", "world").
			String("Hello, world!").
			Attachment(strings.NewReader("hi"), 2).
			Chunked().
			Ranged().
			Clear()

		fields := resp.Reveal()
		require.Equal(t, status.OK, fields.Code)
		require.Empty(t, fields.Status)
		require.Equal(t, response.DefaultContentType, fields.ContentType)
		require.Empty(t, fields.Headers)
		require.Empty(t, fields.Body)
		require.True(t, fields.Attachment.Empty())
		require.False(t, fields.Chunked)
		require.False(t, fields.Ranged)
	})
}

func TestResponseFile(t *testing.T) {
	t.Run("existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "greeting.txt")
		require.NoError(t, os.WriteFile(path, []byte("Hello, world!"), 0o644))

		resp, err := NewResponse().TryFile(path)
		require.NoError(t, err)

		fields := resp.Reveal()
		require.False(t, fields.Attachment.Empty())
		require.Equal(t, int64(13), fields.Attachment.Size())
		fields.Attachment.Close()
	})

	t.Run("non-existing file", func(t *testing.T) {
		_, err := NewResponse().TryFile(filepath.Join(t.TempDir(), "nonexistent"))
		require.EqualError(t, err, status.ErrNotFound.Error())
	})

	t.Run("directory", func(t *testing.T) {
		_, err := NewResponse().TryFile(t.TempDir())
		require.EqualError(t, err, status.ErrNotFound.Error())
	})

	t.Run("error is reported via the builder", func(t *testing.T) {
		fields := NewResponse().File(filepath.Join(t.TempDir(), "nonexistent")).Reveal()
		require.Equal(t, status.NotFound, fields.Code)
	})
}
