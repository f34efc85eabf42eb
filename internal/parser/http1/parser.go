package http1

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cobalt-web/cobalt/config"
	"github.com/cobalt-web/cobalt/http"
	"github.com/cobalt-web/cobalt/http/method"
	"github.com/cobalt-web/cobalt/http/proto"
	"github.com/cobalt-web/cobalt/http/status"
	"github.com/cobalt-web/cobalt/internal/urlencoded"
	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
	"golang.org/x/net/http/httpguts"
)

// Parser is a stream-based HTTP/1 request head parser. It fills the request
// object in place and consumes pieces of arbitrary length, so a head torn
// apart by the network at any byte still parses. Once the head is complete,
// HeadersCompleted is returned along with all the data left beyond it; the
// body is processed separately.
type Parser struct {
	request         *http.Request
	startLineBuff   *buffer.Buffer
	headerKeyBuff   *buffer.Buffer
	headerValueBuff *buffer.Buffer
	headerKey       string
	headersCfg      *config.Headers
	headersNumber   int
	contentLength   int
	state           parserState
}

func NewParser(
	request *http.Request, keyBuff, valBuff, startLineBuff *buffer.Buffer, headersCfg config.Headers,
) *Parser {
	return &Parser{
		state:           eMethod,
		request:         request,
		headersCfg:      &headersCfg,
		startLineBuff:   startLineBuff,
		headerKeyBuff:   keyBuff,
		headerValueBuff: valBuff,
	}
}

func (p *Parser) Parse(data []byte) (state RequestState, extra []byte, err error) {
	request := p.request
	headerKeyBuff := p.headerKeyBuff
	headerValueBuff := p.headerValueBuff

	switch p.state {
	case eMethod:
		goto method
	case ePath:
		goto path
	case eHeaderKey:
		goto headerKey
	case eContentLength:
		goto contentLength
	case eContentLengthCR:
		goto contentLengthCR
	case eHeaderValue:
		goto headerValue
	case eHeaderValueCRLFCR:
		goto headerValueCRLFCR
	default:
		panic(fmt.Sprintf("BUG: unexpected state: %v", p.state))
	}

method:
	{
		sp := bytes.IndexByte(data, ' ')
		if sp == -1 {
			if !p.startLineBuff.Append(data) {
				return Error, nil, status.ErrTooLongRequestLine
			}

			return Pending, nil, nil
		}

		var methodValue []byte
		if p.startLineBuff.SegmentLength() == 0 {
			methodValue = data[:sp]
		} else {
			if !p.startLineBuff.Append(data[:sp]) {
				return Error, nil, status.ErrTooLongRequestLine
			}

			methodValue = p.startLineBuff.Finish()
		}

		if len(methodValue) == 0 {
			return Error, nil, status.ErrBadRequest
		}

		request.Method = method.Parse(uf.B2S(methodValue))
		if request.Method == method.Unknown {
			return Error, nil, status.ErrMethodNotImplemented
		}

		data = data[sp+1:]
		p.state = ePath
		goto path
	}

path:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.startLineBuff.Append(data) {
				return Error, nil, status.ErrURITooLong
			}

			return Pending, nil, nil
		}

		if !p.startLineBuff.Append(data[:lf]) {
			return Error, nil, status.ErrURITooLong
		}

		pathAndProto := p.startLineBuff.Finish()
		sp := bytes.LastIndexByte(pathAndProto, ' ')
		if sp == -1 {
			return Error, nil, status.ErrBadRequest
		}

		reqPath, reqProto := pathAndProto[:sp], pathAndProto[sp+1:]
		if len(reqProto) > 0 && reqProto[len(reqProto)-1] == '\r' {
			reqProto = reqProto[:len(reqProto)-1]
		}

		query := bytes.IndexByte(reqPath, '?')
		if query != -1 {
			request.Query.Update(reqPath[query+1:])
			reqPath = reqPath[:query]
		} else {
			// otherwise, clients on a keep-alive connection would see the
			// previous request's query
			request.Query.Update(nil)
		}

		if len(reqPath) == 0 || !validPath(reqPath) {
			return Error, nil, status.ErrBadRequest
		}

		reqPath, _, err = urlencoded.Decode(reqPath, reqPath[:0])
		if err != nil {
			return Error, nil, err
		}

		request.Path = uf.B2S(reqPath)
		request.Proto = proto.FromBytes(reqProto)
		if request.Proto == proto.Unknown {
			return Error, nil, status.ErrHTTPVersionNotSupported
		}

		data = data[lf+1:]
		p.state = eHeaderKey
		goto headerKey
	}

headerKey:
	{
		if len(data) == 0 {
			return Pending, nil, nil
		}

		switch data[0] {
		case '\n':
			p.reset()

			return HeadersCompleted, data[1:], nil
		case '\r':
			data = data[1:]
			p.state = eHeaderValueCRLFCR
			goto headerValueCRLFCR
		}

		colon := bytes.IndexByte(data, ':')
		if colon == -1 {
			if !headerKeyBuff.Append(data) {
				return Error, nil, status.ErrHeaderFieldsTooLarge
			}

			return Pending, nil, nil
		}

		if !headerKeyBuff.Append(data[:colon]) {
			return Error, nil, status.ErrHeaderFieldsTooLarge
		}

		p.headerKey = uf.B2S(headerKeyBuff.Finish())
		if !httpguts.ValidHeaderFieldName(p.headerKey) {
			return Error, nil, status.ErrBadRequest
		}

		data = data[colon+1:]

		if p.headersNumber++; p.headersNumber > p.headersCfg.Number.Maximal {
			return Error, nil, status.ErrTooManyHeaders
		}

		if strcomp.EqualFold(p.headerKey, "content-length") {
			if p.contentLength != 0 {
				// a second Content-Length is a smuggling attempt
				return Error, nil, status.ErrBadRequest
			}

			p.state = eContentLength
			goto contentLength
		}

		p.state = eHeaderValue
		goto headerValue
	}

contentLength:
	for i, char := range data {
		if char == ' ' {
			continue
		}

		if char < '0' || char > '9' {
			data = data[i:]
			goto contentLengthEnd
		}

		p.contentLength = p.contentLength*10 + int(char-'0')
		if p.contentLength < 0 {
			// overflown. Such a body cannot be taken in anyway
			return Error, nil, status.ErrBodyTooLarge
		}
	}

	return Pending, nil, nil

contentLengthEnd:
	// data is guaranteed to hold at least 1 byte here: the only way to get
	// here is to meet a non-digit character in the loop above
	request.ContentLength = p.contentLength

	switch data[0] {
	case ' ':
	case '\r':
		data = data[1:]
		p.state = eContentLengthCR
		goto contentLengthCR
	case '\n':
		data = data[1:]
		p.state = eHeaderKey
		goto headerKey
	default:
		return Error, nil, status.ErrBadRequest
	}

contentLengthCR:
	if len(data) == 0 {
		return Pending, nil, nil
	}

	if data[0] != '\n' {
		return Error, nil, status.ErrBadRequest
	}

	data = data[1:]
	p.state = eHeaderKey
	goto headerKey

headerValue:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !headerValueBuff.Append(data) {
				return Error, nil, status.ErrHeaderFieldsTooLarge
			}

			return Pending, nil, nil
		}

		if !headerValueBuff.Append(data[:lf]) {
			return Error, nil, status.ErrHeaderFieldsTooLarge
		}

		data = data[lf+1:]
		value := uf.B2S(trimPrefixSpaces(headerValueBuff.Finish()))
		if len(value) > 0 && value[len(value)-1] == '\r' {
			value = value[:len(value)-1]
		}

		if !httpguts.ValidHeaderFieldValue(value) {
			return Error, nil, status.ErrBadRequest
		}

		request.Headers.Add(p.headerKey, value)

		switch len(p.headerKey) {
		case 7:
			if strcomp.EqualFold(p.headerKey, "trailer") {
				request.HasTrailer = true
			}
		case 10:
			if strcomp.EqualFold(p.headerKey, "connection") {
				request.Connection = value
			}
		case 12:
			if strcomp.EqualFold(p.headerKey, "content-type") {
				request.ContentType = value
			}
		case 17:
			if strcomp.EqualFold(p.headerKey, "transfer-encoding") {
				chunked, supported := parseTransferEncoding(value)
				if !supported {
					return Error, nil, status.ErrUnsupportedEncoding
				}

				request.Chunked = chunked
			}
		}

		p.state = eHeaderKey
		goto headerKey
	}

headerValueCRLFCR:
	if len(data) == 0 {
		return Pending, nil, nil
	}

	if data[0] == '\n' {
		p.reset()

		return HeadersCompleted, data[1:], nil
	}

	return Error, nil, status.ErrBadRequest
}

func (p *Parser) reset() {
	p.headersNumber = 0
	p.startLineBuff.Clear()
	p.headerKeyBuff.Clear()
	p.headerValueBuff.Clear()
	p.contentLength = 0
	p.state = eMethod
}

// parseTransferEncoding scans the comma-separated codings list. Only chunked
// and identity are understood, anything else renders the body unreadable and
// must bounce the request off.
func parseTransferEncoding(value string) (chunked, supported bool) {
	supported = true

	for len(value) > 0 {
		var token string
		comma := strings.IndexByte(value, ',')
		if comma == -1 {
			token, value = value, ""
		} else {
			token, value = value[:comma], value[comma+1:]
		}

		switch token = strings.TrimSpace(token); {
		case len(token) == 0:
		case strcomp.EqualFold(token, "chunked"):
			chunked = true
		case strcomp.EqualFold(token, "identity"):
		default:
			return false, false
		}
	}

	return chunked, supported
}

// validPath ensures the raw path consists of printable ASCII only. Anything
// else must arrive percent-encoded.
func validPath(path []byte) bool {
	for _, c := range path {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}

	return true
}

func trimPrefixSpaces(b []byte) []byte {
	for i, char := range b {
		if char != ' ' {
			return b[i:]
		}
	}

	return b[:0]
}
