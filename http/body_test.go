package http

import (
	"errors"
	"io"
	"testing"

	"github.com/cobalt-web/cobalt/config"
	"github.com/cobalt-web/cobalt/http/form"
	"github.com/cobalt-web/cobalt/http/mime"
	"github.com/cobalt-web/cobalt/http/status"
	"github.com/cobalt-web/cobalt/kv"
	"github.com/cobalt-web/cobalt/transport/dummy"
	"github.com/stretchr/testify/require"
)

// staticRetriever replays its pieces one by one, attaching io.EOF to the last
// one, just like the real body reader does.
type staticRetriever struct {
	pieces [][]byte
	err    error
}

func (s *staticRetriever) Retrieve() ([]byte, error) {
	if len(s.pieces) == 0 {
		if s.err != nil {
			return nil, s.err
		}

		return nil, io.EOF
	}

	piece := s.pieces[0]
	s.pieces = s.pieces[1:]
	if len(s.pieces) == 0 && s.err == nil {
		return piece, io.EOF
	}

	return piece, nil
}

func getBody(contentType string, pieces ...[]byte) (*Body, *staticRetriever) {
	cfg := config.Default()
	request := NewRequest(cfg, NewResponse(), dummy.NewNopClient(), nil, kv.New(), kv.New())
	request.ContentType = contentType
	source := &staticRetriever{pieces: pieces}
	body := NewBody(request, source, cfg)
	request.Body = body

	return body, source
}

func TestBody(t *testing.T) {
	t.Run("bytes across pieces", func(t *testing.T) {
		body, _ := getBody("", []byte("Hello, "), []byte("world!"))
		data, err := body.Bytes()
		require.NoError(t, err)
		require.Equal(t, "Hello, world!", string(data))

		// the second call comes from the cache, the stream is already drained
		data, err = body.Bytes()
		require.NoError(t, err)
		require.Equal(t, "Hello, world!", string(data))
	})

	t.Run("string", func(t *testing.T) {
		body, _ := getBody("", []byte("Hello, world!"))
		str, err := body.String()
		require.NoError(t, err)
		require.Equal(t, "Hello, world!", str)
	})

	t.Run("callback", func(t *testing.T) {
		body, _ := getBody("", []byte("Hello, "), []byte("world!"))

		var collected []byte
		err := body.Callback(func(data []byte) error {
			collected = append(collected, data...)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, "Hello, world!", string(collected))
	})

	t.Run("callback error is propagated", func(t *testing.T) {
		body, _ := getBody("", []byte("Hello, "), []byte("world!"))
		brokenPipe := errors.New("cannot write the piece anywhere")

		err := body.Callback(func([]byte) error {
			return brokenPipe
		})
		require.ErrorIs(t, err, brokenPipe)
	})

	t.Run("reader", func(t *testing.T) {
		body, _ := getBody("", []byte("Hello, "), []byte("world!"))
		data, err := io.ReadAll(body)
		require.NoError(t, err)
		require.Equal(t, "Hello, world!", string(data))
	})

	t.Run("network error is reported", func(t *testing.T) {
		body, source := getBody("", []byte("Hello, "))
		source.err = status.ErrConnectionAborted

		_, err := body.Bytes()
		require.EqualError(t, err, status.ErrConnectionAborted.Error())
		require.EqualError(t, body.Error(), status.ErrConnectionAborted.Error())
	})

	t.Run("discard", func(t *testing.T) {
		body, _ := getBody("", []byte("Hello, "), []byte("world!"))
		require.NoError(t, body.Discard())
		require.NoError(t, body.Discard())
	})

	t.Run("reset drops the cache", func(t *testing.T) {
		body, source := getBody("", []byte("first"))
		data, err := body.Bytes()
		require.NoError(t, err)
		require.Equal(t, "first", string(data))

		require.NoError(t, body.Reset())
		source.pieces = [][]byte{[]byte("second")}

		data, err = body.Bytes()
		require.NoError(t, err)
		require.Equal(t, "second", string(data))
	})
}

func TestBodyJSON(t *testing.T) {
	t.Run("matching content type", func(t *testing.T) {
		body, _ := getBody(mime.JSON, []byte(`{"hello": "world"}`))

		model := struct {
			Hello string `json:"hello"`
		}{}
		require.NoError(t, body.JSON(&model))
		require.Equal(t, "world", model.Hello)
	})

	t.Run("mismatching content type", func(t *testing.T) {
		body, _ := getBody(mime.HTML, []byte(`{"hello": "world"}`))

		model := struct{}{}
		err := body.JSON(&model)
		require.EqualError(t, err, status.ErrUnsupportedMediaType.Error())
	})
}

func TestBodyForm(t *testing.T) {
	t.Run("urlencoded", func(t *testing.T) {
		body, _ := getBody(mime.FormUrlencoded, []byte("name=John+Doe&tag=%23go&tag=web"))

		f, err := body.Form()
		require.NoError(t, err)
		require.Equal(t, []form.Data{
			{Name: "name", Value: "John Doe"},
			{Name: "tag", Value: "#go"},
			{Name: "tag", Value: "web"},
		}, f.Fields)
	})

	t.Run("empty urlencoded", func(t *testing.T) {
		body, _ := getBody(mime.FormUrlencoded)

		f, err := body.Form()
		require.NoError(t, err)
		require.Empty(t, f.Fields)
	})

	t.Run("parsed once", func(t *testing.T) {
		body, _ := getBody(mime.FormUrlencoded, []byte("color=red"))

		first, err := body.Form()
		require.NoError(t, err)
		second, err := body.Form()
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.Equal(t, []form.Data{{Name: "color", Value: "red"}}, second.Fields)
	})

	t.Run("unsupported media type", func(t *testing.T) {
		body, _ := getBody(mime.Plain, []byte("just text"))

		_, err := body.Form()
		require.EqualError(t, err, status.ErrUnsupportedMediaType.Error())
	})

	t.Run("multipart", func(t *testing.T) {
		payload := "--boundary\r\n" +
			"Content-Disposition: form-data; name=\"username\"\r\n" +
			"\r\n" +
			"johndoe\r\n" +
			"--boundary--\r\n"
		body, _ := getBody(mime.Multipart+"; boundary=boundary", []byte(payload))

		f, err := body.Form()
		require.NoError(t, err)
		require.Equal(t, []form.Data{{Name: "username", Value: "johndoe"}}, f.Fields)
	})

	t.Run("multipart without a boundary", func(t *testing.T) {
		body, _ := getBody(mime.Multipart, []byte("--x--\r\n"))

		_, err := body.Form()
		require.EqualError(t, err, status.ErrBadMultipart.Error())
	})
}
