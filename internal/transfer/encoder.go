package transfer

import (
	"io"
	"strconv"

	"github.com/cobalt-web/cobalt/config"
	"github.com/cobalt-web/cobalt/http"
	"github.com/cobalt-web/cobalt/http/method"
	"github.com/cobalt-web/cobalt/http/proto"
	"github.com/cobalt-web/cobalt/http/status"
	"github.com/cobalt-web/cobalt/internal/response"
	"github.com/cobalt-web/cobalt/transport"
	"github.com/indigo-web/utils/strcomp"
)

const (
	contentType      = "Content-Type: "
	contentLength    = "Content-Length: "
	transferEncoding = "Transfer-Encoding: "
	contentRange     = "Content-Range: "
	acceptRanges     = "Accept-Ranges: "
	connection       = "Connection: "
	colonSP          = ": "
)

// minStreamBuffSize keeps the chunk scratch area usable even when the
// configured transfer buffer is unreasonably small.
const minStreamBuffSize = 16

var (
	crlf             = []byte("\r\n")
	chunkedFinalizer = []byte("0\r\n\r\n")
)

// Encoder turns the builder state left by a handler into the actual bytes on
// the wire: status line, headers, then the body as plain, chunked or ranged
// transfer. One instance serves one connection, its buffers are recycled
// between cycles.
type Encoder struct {
	buff []byte
	// stream is not allocated until the first streamed body, sparing the
	// connections that only ever send memory bodies
	stream         []byte
	streamBuffSize int
	defaultHeaders defaultHeaders
}

func NewEncoder(cfg config.HTTP, defHdrs map[string]string) *Encoder {
	streamBuffSize := cfg.TransferBuffSize
	if streamBuffSize < minStreamBuffSize {
		streamBuffSize = minStreamBuffSize
	}

	return &Encoder{
		buff:           make([]byte, 0, cfg.ResponseBuffSize),
		streamBuffSize: streamBuffSize,
		defaultHeaders: processDefaultHeaders(defHdrs),
	}
}

// Write encodes and sends the response. The returned error is nil when the
// connection may serve another request, status.ErrCloseConnection when it
// must be closed gracefully after the sent response, and
// status.ErrConnectionAborted when the transfer broke mid-way and the
// connection is beyond recovery.
func (e *Encoder) Write(
	protocol proto.Proto,
	request *http.Request,
	resp *http.Response,
	client transport.Client,
) error {
	defer e.clear()

	fields := resp.Reveal()

	var (
		streamed = !fields.Attachment.Empty()
		total    int64
	)

	if streamed {
		defer fields.Attachment.Close()
		total = fields.Attachment.Size()
	} else {
		total = int64(len(fields.Body))
	}

	var (
		// a streamed body of unknown size can neither carry Content-Length
		// nor satisfy ranges, leaving chunked framing the only option
		sized     = !streamed || total > 0
		chunked   = fields.Chunked || !sized
		rangeable = fields.Ranged && sized
		keepAlive = isKeepAlive(protocol, request)
		code      = fields.Code
		text      = fields.Status
		w         = window{0, total - 1}
		outcome   = rangeFull
	)

	if rangeable {
		w, outcome = evaluateRange(request.Headers.Value("range"), total)
		switch outcome {
		case rangeFull:
			w = window{0, total - 1}
		case rangePartial:
			code, text = status.PartialContent, ""
		case rangeUnsatisfiable:
			code, text = status.RequestedRangeNotSatisfiable, ""
		}
	}

	e.renderProtocol(protocol)
	e.renderStatusLine(code, text)
	e.renderHeaders(fields)
	e.renderConnection(protocol, keepAlive, fields)

	if rangeable {
		e.renderKnownHeader(acceptRanges, "bytes")
	}

	if outcome == rangeUnsatisfiable {
		// the body the handler prepared is dropped: sending the whole
		// resource under a 416 would defeat the point
		e.renderUnsatisfiedRange(total)
		e.renderContentLength(0)
		e.renderKnownHeader(contentType, fields.ContentType)
		e.crlf()

		if err := e.flush(client); err != nil {
			return err
		}

		return e.finish(keepAlive)
	}

	if outcome == rangePartial {
		e.renderContentRange(w, total)
	}

	if chunked {
		e.renderKnownHeader(transferEncoding, "chunked")
	} else {
		e.renderContentLength(w.length())
	}

	e.renderKnownHeader(contentType, fields.ContentType)
	e.crlf()

	// HEAD responses mirror the corresponding GET head-for-head, body omitted
	headOnly := request.Method == method.HEAD

	if !streamed {
		if !headOnly {
			body := fields.Body[w.start : w.end+1]
			if chunked {
				e.appendChunkedBody(body)
			} else {
				e.buff = append(e.buff, body...)
			}
		}

		if err := e.flush(client); err != nil {
			return err
		}

		return e.finish(keepAlive)
	}

	if err := e.flush(client); err != nil {
		return err
	}

	if headOnly {
		return e.finish(keepAlive)
	}

	if err := position(fields.Attachment.Content(), w.start); err != nil {
		return status.ErrConnectionAborted
	}

	if e.stream == nil {
		e.stream = make([]byte, e.streamBuffSize)
	}

	var err error
	if chunked {
		remaining := int64(-1)
		if sized {
			remaining = w.length()
		}

		err = e.writeChunkedStream(fields.Attachment.Content(), remaining, client)
	} else {
		err = e.writePlainStream(fields.Attachment.Content(), w.length(), client)
	}

	if err != nil {
		return err
	}

	return e.finish(keepAlive)
}

// position brings the streamed body to the window start, preferring a seek
// and falling back to skim-reading for sources that cannot seek.
func position(r io.Reader, offset int64) error {
	if offset == 0 {
		return nil
	}

	if seeker, ok := r.(io.Seeker); ok {
		_, err := seeker.Seek(offset, io.SeekStart)
		return err
	}

	_, err := io.CopyN(io.Discard, r, offset)

	return err
}

func (e *Encoder) writePlainStream(r io.Reader, remaining int64, client transport.Client) error {
	for remaining > 0 {
		piece := e.stream
		if remaining < int64(len(piece)) {
			piece = piece[:remaining]
		}

		n, err := r.Read(piece)

		if n > 0 {
			if _, werr := client.Write(piece[:n]); werr != nil {
				return status.ErrConnectionAborted
			}

			remaining -= int64(n)
		}

		switch err {
		case nil:
		case io.EOF:
			if remaining > 0 {
				// the source dried up before the promised byte count was
				// sent; the framing is broken and cannot be mended
				return status.ErrConnectionAborted
			}
		default:
			return status.ErrConnectionAborted
		}
	}

	return nil
}

// writeChunkedStream frames the source into chunks sized by the stream
// buffer. Negative remaining means the source length is unknown and it is
// streamed until io.EOF.
func (e *Encoder) writeChunkedStream(r io.Reader, remaining int64, client transport.Client) error {
	const (
		hexValueOffset = 8
		crlfSize       = 2
		buffOffset     = hexValueOffset + crlfSize
	)

	sized := remaining >= 0

	for {
		if sized && remaining == 0 {
			break
		}

		piece := e.stream[buffOffset : len(e.stream)-crlfSize]
		if sized && remaining < int64(len(piece)) {
			piece = piece[:remaining]
		}

		n, err := r.Read(piece)

		if n > 0 {
			// the hex length is rendered right-aligned against the data so
			// that a single contiguous slice can be written out
			hex := strconv.AppendUint(e.stream[:0], uint64(n), 16)
			blankSpace := hexValueOffset - len(hex)
			copy(e.stream[blankSpace:], hex)
			copy(e.stream[hexValueOffset:], crlf)
			copy(e.stream[buffOffset+n:], crlf)

			if _, werr := client.Write(e.stream[blankSpace : buffOffset+n+crlfSize]); werr != nil {
				return status.ErrConnectionAborted
			}

			if sized {
				remaining -= int64(n)
			}
		}

		switch err {
		case nil:
		case io.EOF:
			if remaining > 0 {
				return status.ErrConnectionAborted
			}

			return e.writeFinalizer(client)
		default:
			return status.ErrConnectionAborted
		}
	}

	return e.writeFinalizer(client)
}

func (e *Encoder) writeFinalizer(client transport.Client) error {
	if _, err := client.Write(chunkedFinalizer); err != nil {
		return status.ErrConnectionAborted
	}

	return nil
}

// appendChunkedBody frames a memory body. It always fits a single chunk,
// anything in memory is by definition small enough.
func (e *Encoder) appendChunkedBody(body []byte) {
	if len(body) > 0 {
		e.buff = strconv.AppendUint(e.buff, uint64(len(body)), 16)
		e.crlf()
		e.buff = append(e.buff, body...)
		e.crlf()
	}

	e.buff = append(e.buff, chunkedFinalizer...)
}

func (e *Encoder) renderStatusLine(code status.Code, text status.Status) {
	e.buff = strconv.AppendInt(e.buff, int64(code), 10)
	e.sp()

	if text == "" {
		text = status.Text(code)
	}

	e.buff = append(e.buff, text...)
	e.crlf()
}

func (e *Encoder) renderHeaders(fields *response.Fields) {
	for _, header := range fields.Headers {
		e.renderHeader(header)
		e.defaultHeaders.Exclude(header.Key)
	}

	for _, header := range e.defaultHeaders {
		if header.Excluded {
			continue
		}

		e.buff = append(e.buff, header.Full...)
	}
}

// renderConnection tells the peer what happens to the connection, unless the
// handler already did. HTTP/1.0 peers assume close and must be explicitly
// told to keep alive, HTTP/1.1 peers the other way around.
func (e *Encoder) renderConnection(protocol proto.Proto, keepAlive bool, fields *response.Fields) {
	if hasHeader(fields.Headers, "connection") {
		return
	}

	switch {
	case !keepAlive:
		e.renderKnownHeader(connection, "close")
	case protocol == proto.HTTP10:
		e.renderKnownHeader(connection, "keep-alive")
	}
}

func (e *Encoder) renderContentRange(w window, total int64) {
	e.buff = append(e.buff, contentRange...)
	e.buff = append(e.buff, "bytes "...)
	e.buff = strconv.AppendInt(e.buff, w.start, 10)
	e.buff = append(e.buff, '-')
	e.buff = strconv.AppendInt(e.buff, w.end, 10)
	e.buff = append(e.buff, '/')
	e.buff = strconv.AppendInt(e.buff, total, 10)
	e.crlf()
}

func (e *Encoder) renderUnsatisfiedRange(total int64) {
	e.buff = append(e.buff, contentRange...)
	e.buff = append(e.buff, "bytes */"...)
	e.buff = strconv.AppendInt(e.buff, total, 10)
	e.crlf()
}

// renderHeader renders the header into the buffer, CRLF included.
func (e *Encoder) renderHeader(header response.Header) {
	e.buff = append(e.buff, header.Key...)
	e.buff = append(e.buff, colonSP...)
	e.buff = append(e.buff, header.Value...)
	e.crlf()
}

func (e *Encoder) renderContentLength(value int64) {
	e.buff = strconv.AppendInt(append(e.buff, contentLength...), value, 10)
	e.crlf()
}

func (e *Encoder) renderKnownHeader(key, value string) {
	e.buff = append(e.buff, key...)
	e.buff = append(e.buff, value...)
	e.crlf()
}

func (e *Encoder) renderProtocol(protocol proto.Proto) {
	e.buff = append(e.buff, protocol.String()...)
}

func (e *Encoder) flush(client transport.Client) error {
	if _, err := client.Write(e.buff); err != nil {
		return status.ErrConnectionAborted
	}

	return nil
}

func (e *Encoder) finish(keepAlive bool) error {
	if !keepAlive {
		return status.ErrCloseConnection
	}

	return nil
}

func (e *Encoder) sp() {
	e.buff = append(e.buff, ' ')
}

func (e *Encoder) crlf() {
	e.buff = append(e.buff, crlf...)
}

func (e *Encoder) clear() {
	e.buff = e.buff[:0]
	e.defaultHeaders.Reset()
}

func isKeepAlive(protocol proto.Proto, request *http.Request) bool {
	switch protocol {
	case proto.HTTP10:
		return strcomp.EqualFold(request.Connection, "keep-alive")
	case proto.HTTP11:
		return !strcomp.EqualFold(request.Connection, "close")
	default:
		return false
	}
}

func hasHeader(headers []response.Header, key string) bool {
	for _, header := range headers {
		if strcomp.EqualFold(header.Key, key) {
			return true
		}
	}

	return false
}

func processDefaultHeaders(hdrs map[string]string) defaultHeaders {
	processed := make(defaultHeaders, 0, len(hdrs))

	for key, value := range hdrs {
		full := key + colonSP + value + "\r\n"
		processed = append(processed, defaultHeader{
			// only the rendered line is retained, letting the original map
			// be collected
			Key:  full[:len(key)],
			Full: full,
		})
	}

	return processed
}

type defaultHeader struct {
	Excluded bool
	Key      string
	Full     string
}

type defaultHeaders []defaultHeader

func (d defaultHeaders) Exclude(key string) {
	for i, header := range d {
		if strcomp.EqualFold(header.Key, key) {
			d[i].Excluded = true
			return
		}
	}
}

func (d defaultHeaders) Reset() {
	for i := range d {
		d[i].Excluded = false
	}
}
