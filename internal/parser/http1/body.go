package http1

import (
	"io"

	"github.com/cobalt-web/cobalt/config"
	"github.com/cobalt-web/cobalt/http"
	"github.com/cobalt-web/cobalt/http/status"
	"github.com/cobalt-web/cobalt/transport"
	"github.com/indigo-web/chunkedbody"
)

var _ http.Retriever = new(BodyReader)

// BodyReader feeds http.Body with pieces of the message body taken straight
// from the wire: either until Content-Length is exhausted or, for chunked
// bodies, until the terminal zero chunk. Bytes past the body are pushed back
// to the client for the next cycle.
type BodyReader struct {
	plain     plainBodyReader
	chunked   chunkedBodyReader
	isChunked bool
	eof       bool
}

func NewBodyReader(client transport.Client, chunkedParser *chunkedbody.Parser, cfg config.Body) *BodyReader {
	return &BodyReader{
		plain:   newPlainBodyReader(client, cfg.MaxSize),
		chunked: newChunkedBodyReader(client, cfg.MaxSize, chunkedParser),
	}
}

// Init readies the reader for the message whose head was just parsed.
func (b *BodyReader) Init(request *http.Request) {
	b.isChunked = request.Chunked
	if b.isChunked {
		b.chunked.init(request)
	} else {
		b.plain.init(request)
	}

	b.eof = request.ContentLength == 0 && !b.isChunked
}

func (b *BodyReader) Retrieve() ([]byte, error) {
	if b.eof {
		return nil, io.EOF
	}

	var (
		piece []byte
		err   error
	)

	if b.isChunked {
		piece, err = b.chunked.read()
	} else {
		piece, err = b.plain.read()
	}

	if err == io.EOF {
		b.eof = true
	}

	return piece, err
}

type plainBodyReader struct {
	client     transport.Client
	maxBodyLen int64
	bytesLeft  int64
}

func newPlainBodyReader(client transport.Client, maxBodyLen int64) plainBodyReader {
	return plainBodyReader{
		client:     client,
		maxBodyLen: maxBodyLen,
	}
}

func (p *plainBodyReader) init(request *http.Request) {
	p.bytesLeft = int64(request.ContentLength)
}

func (p *plainBodyReader) read() (body []byte, err error) {
	if p.bytesLeft == 0 {
		return nil, io.EOF
	}

	if p.bytesLeft > p.maxBodyLen {
		return nil, status.ErrBodyTooLarge
	}

	data, err := p.client.Read()
	if err != nil {
		return nil, err
	}

	if dataLen := int64(len(data)); dataLen >= p.bytesLeft {
		body, data = data[:p.bytesLeft], data[p.bytesLeft:]
		p.client.Pushback(data)
		p.bytesLeft = 0
		err = io.EOF
	} else {
		p.bytesLeft -= dataLen
		body = data
	}

	return body, err
}

type chunkedBodyReader struct {
	client     transport.Client
	maxBodyLen int64
	received   int64
	hasTrailer bool
	parser     *chunkedbody.Parser
}

func newChunkedBodyReader(client transport.Client, maxBodyLen int64, parser *chunkedbody.Parser) chunkedBodyReader {
	return chunkedBodyReader{
		client:     client,
		maxBodyLen: maxBodyLen,
		parser:     parser,
	}
}

func (c *chunkedBodyReader) init(request *http.Request) {
	c.hasTrailer = request.HasTrailer
	c.received = 0
}

func (c *chunkedBodyReader) read() (body []byte, err error) {
	data, err := c.client.Read()
	if err != nil {
		return nil, err
	}

	chunk, extra, err := c.parser.Parse(data, c.hasTrailer)
	switch err {
	case nil, io.EOF:
	default:
		return nil, err
	}

	if c.received += int64(len(chunk)); c.received > c.maxBodyLen {
		return nil, status.ErrBodyTooLarge
	}

	c.client.Pushback(extra)

	return chunk, err
}
