package http

import (
	"io"
	"os"

	"github.com/cobalt-web/cobalt/http/mime"
	"github.com/cobalt-web/cobalt/http/status"
	"github.com/cobalt-web/cobalt/internal/response"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

// preallocRespHeaders fits most responses without growing the slice.
const preallocRespHeaders = 7

type Response struct {
	fields *response.Fields
}

// NewResponse returns a new instance of the Response object with the status code
// set to 200 OK, pre-allocated space for headers and text/html content-type.
//
// NOTE: inside of handlers, prefer Request.Respond() instead.
func NewResponse() *Response {
	return &Response{
		&response.Fields{
			Code:        status.OK,
			Headers:     make([]response.Header, 0, preallocRespHeaders),
			ContentType: response.DefaultContentType,
		},
	}
}

// Code sets a Response code and the corresponding status text. In case of
// an unknown code the status text turns into "Unknown Status Code", which can
// be overridden via Status.
func (r *Response) Code(code status.Code) *Response {
	r.fields.Code = code
	return r
}

// Status sets a custom status text. Clients ignore it almost universally, so
// there is rarely a reason to call it.
func (r *Response) Status(stat status.Status) *Response {
	r.fields.Status = stat
	return r
}

// ContentType sets a custom Content-Type header value.
func (r *Response) ContentType(value mime.MIME) *Response {
	r.fields.ContentType = value
	return r
}

// Header adds header values to a key. Values of an already existing key are
// extended, not replaced. Content-Type is redirected to ContentType,
// Transfer-Encoding and Content-Length are owned by the transfer encoder:
// the former is controlled via Chunked, the latter is computed.
func (r *Response) Header(key string, values ...string) *Response {
	if len(values) == 0 {
		return r
	}

	switch {
	case strcomp.EqualFold(key, "content-type"):
		return r.ContentType(values[0])
	case strcomp.EqualFold(key, "transfer-encoding"):
		if strcomp.EqualFold(values[0], "chunked") {
			return r.Chunked()
		}

		return r
	case strcomp.EqualFold(key, "content-length"):
		return r
	}

	for i := range values {
		r.fields.Headers = append(r.fields.Headers, response.Header{
			Key:   key,
			Value: values[i],
		})
	}

	return r
}

// Headers merges the passed headers into the Response.
func (r *Response) Headers(headers map[string][]string) *Response {
	resp := r

	for k, v := range headers {
		resp = resp.Header(k, v...)
	}

	return resp
}

// String sets the response's body to the passed string.
func (r *Response) String(body string) *Response {
	return r.Bytes(uf.S2B(body))
}

// Bytes sets the response's body to the passed slice WITHOUT COPYING. Changing
// the passed slice later will affect the response by itself.
func (r *Response) Bytes(body []byte) *Response {
	r.fields.Body = body
	return r
}

// Write implements the io.Writer interface. It always returns n=len(b) and err=nil.
func (r *Response) Write(b []byte) (n int, err error) {
	r.fields.Body = append(r.fields.Body, b...)
	return len(b), nil
}

// TryFile tries to open a file for reading and returns a Response carrying it
// as a sized attachment. Content-Type is derived from the path's extension.
func (r *Response) TryFile(path string) (*Response, error) {
	fd, err := os.Open(path)
	if err != nil {
		// if we can't open it, it doesn't exist
		return r, status.ErrNotFound
	}

	stat, err := fd.Stat()
	if err != nil {
		// ...and if we can't get stats on it, it exists, however something in system went wrong
		_ = fd.Close()
		return r, status.ErrInternalServerError
	}
	if stat.IsDir() {
		_ = fd.Close()
		return r, status.ErrNotFound
	}

	r.fields.ContentType = mime.ByExtension(path)

	return r.Attachment(fd, stat.Size()), nil
}

// File opens a file for reading and returns a Response with the attachment set
// to the file descriptor. An occurred error is reported via Error.
func (r *Response) File(path string) *Response {
	resp, err := r.TryFile(path)
	if err != nil {
		return r.Error(err)
	}

	return resp
}

// Filename instructs the client to treat the body as a download saved under
// the passed name.
func (r *Response) Filename(name string) *Response {
	return r.Header("Content-Disposition", `attachment; filename="`+name+`"`)
}

// Attachment sets the response's body to the reader. The in-memory body, if
// set, is ignored then. Passing a non-positive size means the length is
// unknown upfront and implies chunked transfer.
func (r *Response) Attachment(reader io.Reader, size int64) *Response {
	r.fields.Attachment = response.NewAttachment(reader, size)
	return r
}

// Chunked switches the body to chunked framing: hex-sized chunks and a zero
// terminal chunk instead of Content-Length. Independent of Ranged, the two
// may be combined in any order.
func (r *Response) Chunked() *Response {
	r.fields.Chunked = true
	return r
}

// Ranged advertises Accept-Ranges: bytes and makes the transfer encoder honor
// the request's Range header: a satisfiable single range turns the response
// into 206 Partial Content carrying only the requested window, an
// unsatisfiable one into 416. Independent of Chunked.
func (r *Response) Ranged() *Response {
	r.fields.Ranged = true
	return r
}

// TryJSON serializes a model (usually a pointer to a structure) into the body,
// setting the content type to application/json.
func (r *Response) TryJSON(model any) (*Response, error) {
	r.fields.Body = r.fields.Body[:0]
	stream := json.ConfigDefault.BorrowStream(r)
	stream.WriteVal(model)
	err := stream.Flush()
	json.ConfigDefault.ReturnStream(stream)

	return r.ContentType(mime.JSON), err
}

// JSON does the same as TryJSON does, except the returned error is implicitly
// wrapped by Error.
func (r *Response) JSON(model any) *Response {
	resp, err := r.TryJSON(model)
	if err != nil {
		return r.Error(err)
	}

	return resp
}

// Error returns a response builder with an error set. Passing nil is a no-op.
// An instance of status.HTTPError sets the corresponding code, any other error
// results in its text as the body with the code defaulting to 500 Internal
// Server Error, unless overridden by the optional code argument (only the
// first one is used).
func (r *Response) Error(err error, code ...status.Code) *Response {
	if err == nil {
		return r
	}

	if http, ok := err.(status.HTTPError); ok {
		return r.Code(http.Code)
	}

	c := status.InternalServerError
	if len(code) > 0 {
		// peek the first, ignore the rest
		c = code[0]
	}

	return r.
		Code(c).
		String(err.Error())
}

// Reveal returns the values filled by the builder. Used mostly internally.
func (r *Response) Reveal() *response.Fields {
	return r.fields
}

// Clear discards everything done with the Response object before.
func (r *Response) Clear() *Response {
	*r.fields = r.fields.Clear()
	return r
}

// Respond is a predicate to request.Respond(). May be used as a dummy handler.
func Respond(request *Request) *Response {
	return request.Respond()
}

// Code is a predicate to request.Respond().Code(...)
func Code(request *Request, code status.Code) *Response {
	return request.Respond().Code(code)
}

// String is a predicate to request.Respond().String(...)
func String(request *Request, str string) *Response {
	return request.Respond().String(str)
}

// Bytes is a predicate to request.Respond().Bytes(...)
func Bytes(request *Request, b []byte) *Response {
	return request.Respond().Bytes(b)
}

// File is a predicate to request.Respond().File(...)
func File(request *Request, path string) *Response {
	return request.Respond().File(path)
}

// Error is a predicate to request.Respond().Error(...)
func Error(request *Request, err error, code ...status.Code) *Response {
	return request.Respond().Error(err, code...)
}

// JSON is a predicate to request.Respond().JSON(...)
func JSON(request *Request, model any) *Response {
	return request.Respond().JSON(model)
}
