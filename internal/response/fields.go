package response

import (
	"io"

	"github.com/cobalt-web/cobalt/http/mime"
	"github.com/cobalt-web/cobalt/http/status"
)

const DefaultContentType = mime.HTML

type Header struct {
	Key, Value string
}

// Attachment is an io.Reader body with an explicitly known size. Sized content
// can be sliced by range requests; a non-positive size forces chunked transfer,
// as there is nothing to put into Content-Length.
type Attachment struct {
	content io.Reader
	size    int64
}

func NewAttachment(content io.Reader, size int64) Attachment {
	return Attachment{
		content: content,
		size:    size,
	}
}

func (a Attachment) Content() io.Reader {
	return a.content
}

func (a Attachment) Size() int64 {
	return a.size
}

func (a Attachment) Empty() bool {
	return a.content == nil
}

func (a Attachment) Close() {
	if closer, ok := a.content.(io.Closer); ok {
		_ = closer.Close()
	}
}

// Fields is the response builder's backing state, consumed by the transfer
// encoder once the handler returns.
type Fields struct {
	Attachment  Attachment
	Status      status.Status
	ContentType string
	Headers     []Header
	Body        []byte
	Code        status.Code
	// Chunked switches the body to chunked framing. Independent of Ranged:
	// both may be set, in any order.
	Chunked bool
	// Ranged advertises Accept-Ranges and makes the encoder honor the
	// request's Range header for this response.
	Ranged bool
}

func (f Fields) Clear() Fields {
	f.Code = status.OK
	f.Status = ""
	f.ContentType = DefaultContentType
	f.Headers = f.Headers[:0]
	f.Body = nil
	f.Attachment = Attachment{}
	f.Chunked = false
	f.Ranged = false

	return f
}
