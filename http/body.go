package http

import (
	"io"
	"os"
	"strings"

	"github.com/cobalt-web/cobalt/config"
	"github.com/cobalt-web/cobalt/http/form"
	"github.com/cobalt-web/cobalt/http/mime"
	"github.com/cobalt-web/cobalt/http/status"
	"github.com/cobalt-web/cobalt/internal/multipart"
	"github.com/cobalt-web/cobalt/internal/qparams"
	"github.com/cobalt-web/cobalt/internal/urlencoded"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

type BodyCallback func([]byte) error

type Retriever interface {
	// Retrieve reads and returns a piece of body available for processing.
	// io.EOF signals the body's end and may arrive along the final piece.
	Retrieve() ([]byte, error)
}

type retriever = Retriever

// Body provides access to the message body. The underlying stream can be
// consumed exactly once, yet Bytes and Form cache their results, so repeated
// calls are fine.
type Body struct {
	retriever
	request    *Request
	cfg        *config.Config
	form       form.Form
	buff       []byte
	formbuff   []byte
	pending    []byte
	error      error
	formErr    error
	parsedForm bool
}

func NewBody(r *Request, impl retriever, cfg *config.Config) *Body {
	return &Body{
		retriever: impl,
		request:   r,
		cfg:       cfg,
	}
}

// Callback invokes the callback every time there is a piece of body available
// for reading. If the callback returns an error, it'll be passed back to the
// caller. The callback isn't notified when there is no more data or a
// networking error has occurred.
//
// Please note: this method can be used only once.
func (b *Body) Callback(cb BodyCallback) error {
	if b.error != nil {
		return b.error
	}

	for {
		var data []byte
		data, b.error = b.Retrieve()
		switch b.error {
		case nil:
		case io.EOF:
			return cb(data)
		default:
			return b.error
		}

		if b.error = cb(data); b.error != nil {
			return b.error
		}
	}
}

// Bytes returns the whole body at once in a byte representation.
func (b *Body) Bytes() ([]byte, error) {
	if len(b.buff) != 0 {
		return b.buff, nil
	}

	if b.error != nil {
		return nil, b.error
	}

	if b.buff == nil {
		b.buff = make([]byte, 0, b.cfg.Body.Form.BufferPrealloc)
	}

	for {
		var data []byte
		data, b.error = b.Retrieve()
		b.buff = append(b.buff, data...)
		switch b.error {
		case nil:
		case io.EOF:
			return b.buff, nil
		default:
			return nil, b.error
		}
	}
}

// String returns the whole body at once in a string representation.
func (b *Body) String() (string, error) {
	bytes, err := b.Bytes()
	return uf.B2S(bytes), err
}

// Read implements the io.Reader interface.
func (b *Body) Read(into []byte) (n int, err error) {
	if len(b.pending) == 0 && b.error == nil {
		b.pending, b.error = b.Retrieve()
	}

	n = copy(into, b.pending)
	b.pending = b.pending[n:]

	if len(b.pending) == 0 && b.error != nil {
		err = b.error
	}

	return n, err
}

// JSON convoys the request's body to a json unmarshaller automatically and
// behaves in a similar manner.
//
// Please note: the method cannot be used on requests with Content-Type
// incompatible with mime.JSON (status.ErrUnsupportedMediaType is returned then).
func (b *Body) JSON(model any) error {
	if !mime.Complies(mime.JSON, b.request.ContentType) {
		return status.ErrUnsupportedMediaType
	}

	data, err := b.Bytes()
	if err != nil {
		return err
	}

	iterator := json.ConfigDefault.BorrowIterator(data)
	iterator.ReadVal(model)
	err = iterator.Error
	json.ConfigDefault.ReturnIterator(iterator)

	return err
}

// Form decodes the body according to its MIME type. Url-encoded forms are
// decoded in place, multipart ones are streamed: text parts land in
// Form.Fields, file parts are spooled to disk and exposed via Form.Files.
// If the request's MIME type differs from both mime.FormUrlencoded and
// mime.Multipart, status.ErrUnsupportedMediaType is returned. The result is
// parsed once and cached, as the underlying stream cannot be rewound.
func (b *Body) Form() (*form.Form, error) {
	if b.parsedForm {
		if b.formErr != nil {
			return nil, b.formErr
		}

		return &b.form, nil
	}

	b.parsedForm = true

	if b.formErr = b.parseForm(); b.formErr != nil {
		return nil, b.formErr
	}

	return &b.form, nil
}

func (b *Body) parseForm() error {
	if b.form.Fields == nil {
		b.form.Fields = make([]form.Data, 0, b.cfg.Body.Form.EntriesPrealloc)
	}

	switch {
	case mime.Complies(mime.FormUrlencoded, b.request.ContentType):
		raw, err := b.Bytes()
		if err != nil {
			return err
		}
		if len(raw) == 0 {
			return nil
		}

		if b.formbuff == nil {
			b.formbuff = make([]byte, 0, b.cfg.Body.Form.BufferPrealloc)
		}

		b.formbuff, err = qparams.Parse(raw, b.formbuff[:0], func(k, v string) {
			b.form.Fields = append(b.form.Fields, form.Data{Name: k, Value: v})
		}, urlencoded.FormDecode, "")

		return err
	case mime.Complies(mime.Multipart, b.request.ContentType):
		boundary, ok := b.multipartBoundary()
		if !ok || len(boundary) == 0 {
			return status.ErrBadMultipart
		}

		return multipart.Parse(b.cfg.Body.Form, &b.form, boundary, b.Retrieve)
	default:
		return status.ErrUnsupportedMediaType
	}
}

// Discard discards the rest of the body (if any). If no networking error was
// encountered, nil is returned.
func (b *Body) Discard() error {
	for b.error == nil {
		_, b.error = b.Retrieve()
	}

	if b.error == io.EOF {
		return nil
	}

	return b.error
}

// Error returns a previously encountered error, otherwise nil.
func (b *Body) Error() error {
	return b.error
}

// Reset readies the body for the next cycle: spooled files nobody claimed are
// removed, leftovers of the stream are discarded.
func (b *Body) Reset() error {
	if b.parsedForm {
		for i := range b.form.Files {
			if file := &b.form.Files[i]; !file.Claimed() {
				_ = os.Remove(file.Path)
			}
		}

		b.form.Clear()
		b.parsedForm = false
		b.formErr = nil
	}

	if err := b.Discard(); err != nil {
		return err
	}

	b.error = nil
	b.buff = b.buff[:0]
	b.pending = nil

	return nil
}

func (b *Body) multipartBoundary() (boundary string, ok bool) {
	params := b.request.ContentType
	semicolon := strings.IndexByte(params, ';')
	if semicolon == -1 {
		return "", false
	}

	for params = params[semicolon+1:]; len(params) > 0; {
		var param string
		if i := strings.IndexByte(params, ';'); i != -1 {
			param, params = params[:i], params[i+1:]
		} else {
			param, params = params, ""
		}

		key, value, found := strings.Cut(param, "=")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "boundary") {
			continue
		}

		value = strings.TrimSpace(value)
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}

		if len(boundary) != 0 {
			// multiple boundary parameters smell malice
			return "", false
		}

		boundary = value
	}

	return boundary, true
}
