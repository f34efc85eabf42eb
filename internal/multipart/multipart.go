package multipart

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cobalt-web/cobalt/config"
	"github.com/cobalt-web/cobalt/http/form"
	"github.com/cobalt-web/cobalt/http/mime"
	"github.com/cobalt-web/cobalt/http/status"
	"github.com/cobalt-web/cobalt/internal/urlencoded"
	"github.com/dchest/uniuri"
	"github.com/indigo-web/utils/uf"
)

// RFC 2046 caps the boundary at 70 characters.
const maxBoundaryLength = 70

// maxPartHeaderSize bounds a single part's header block. Anything bigger is
// junk, not headers.
const maxPartHeaderSize = 16 * 1024

var (
	crlf     = []byte("\r\n")
	crlfcrlf = []byte("\r\n\r\n")
)

type state uint8

const (
	statePreamble state = iota + 1
	stateDelimTail
	stateHeaders
	stateContent
	stateDone
)

// Parse streams a multipart/form-data body into f. Text parts are gathered in
// memory and land in f.Fields, file parts (those carrying a filename) are
// spooled to disk under cfg.SpoolDirectory and appear in f.Files. The body is
// consumed piece by piece via next, so a file of any size passes through a
// fixed-size window.
func Parse(cfg config.BodyForm, f *form.Form, boundary string, next func() ([]byte, error)) error {
	if len(boundary) == 0 || len(boundary) > maxBoundaryLength {
		return status.ErrBadMultipart
	}

	p := parser{
		cfg:   cfg,
		form:  f,
		delim: append([]byte("\r\n--"), boundary...),
		// the first delimiter is allowed to come with no preceding CRLF,
		// a virtual one unifies the lookup
		pending: []byte("\r\n"),
		state:   statePreamble,
	}

	if err := p.run(next); err != nil {
		p.dropSpool()
		return err
	}

	return nil
}

type parser struct {
	cfg     config.BodyForm
	form    *form.Form
	delim   []byte
	pending []byte
	state   state
	eof     bool

	// current part
	name        string
	filename    string
	contentType string
	isFile      bool
	value       []byte
	spool       *os.File
	spoolPath   string
	spoolSize   int64

	decodeBuff []byte
}

func (p *parser) run(next func() ([]byte, error)) error {
	for {
		proceed, err := p.step()
		if err != nil {
			return err
		}

		if p.state == stateDone {
			return nil
		}

		if proceed {
			continue
		}

		// the state stalled, only more input can advance it
		if p.eof {
			return status.ErrBadMultipart
		}

		data, err := next()
		switch err {
		case nil:
		case io.EOF:
			p.eof = true
		default:
			return err
		}

		p.pending = append(p.pending, data...)
	}
}

func (p *parser) step() (bool, error) {
	switch p.state {
	case statePreamble:
		return p.preamble(), nil
	case stateDelimTail:
		return p.delimTail()
	case stateHeaders:
		return p.headers()
	default:
		return p.content()
	}
}

// preamble discards everything up to the first delimiter.
func (p *parser) preamble() bool {
	idx := bytes.Index(p.pending, p.delim)
	if idx == -1 {
		if keep := len(p.delim) - 1; len(p.pending) > keep {
			p.pending = p.pending[len(p.pending)-keep:]
		}

		return false
	}

	p.pending = p.pending[idx+len(p.delim):]
	p.state = stateDelimTail

	return true
}

// delimTail decides whether the matched delimiter opens another part or closes
// the body. Transport padding between the boundary and its CRLF is tolerated.
func (p *parser) delimTail() (bool, error) {
	i := 0
	for ; i < len(p.pending) && (p.pending[i] == ' ' || p.pending[i] == '\t'); i++ {
	}

	rest := p.pending[i:]
	if len(rest) < 2 {
		return false, nil
	}

	switch {
	case rest[0] == '\r' && rest[1] == '\n':
		p.pending = rest[2:]
		p.state = stateHeaders
		return true, nil
	case i == 0 && rest[0] == '-' && rest[1] == '-':
		p.pending = nil
		p.state = stateDone
		return true, nil
	default:
		return false, status.ErrBadMultipart
	}
}

func (p *parser) headers() (bool, error) {
	var block []byte

	if bytes.HasPrefix(p.pending, crlf) {
		// a part with no headers at all
		p.pending = p.pending[2:]
	} else {
		end := bytes.Index(p.pending, crlfcrlf)
		if end == -1 {
			if len(p.pending) > maxPartHeaderSize {
				return false, status.ErrBadMultipart
			}

			return false, nil
		}

		block = p.pending[:end]
		p.pending = p.pending[end+4:]
	}

	if err := p.parsePartHeaders(block); err != nil {
		return false, err
	}

	if err := p.openSink(); err != nil {
		return false, err
	}

	p.state = stateContent

	return true, nil
}

func (p *parser) content() (bool, error) {
	idx := bytes.Index(p.pending, p.delim)
	if idx == -1 {
		// flush all but a tail which might hold the delimiter's beginning
		keep := len(p.delim) - 1
		if len(p.pending) <= keep {
			return false, nil
		}

		if err := p.sink(p.pending[:len(p.pending)-keep]); err != nil {
			return false, err
		}

		p.pending = p.pending[len(p.pending)-keep:]

		return false, nil
	}

	if err := p.sink(p.pending[:idx]); err != nil {
		return false, err
	}

	p.pending = p.pending[idx+len(p.delim):]

	if err := p.closePart(); err != nil {
		return false, err
	}

	p.state = stateDelimTail

	return true, nil
}

func (p *parser) parsePartHeaders(block []byte) error {
	p.name, p.filename, p.contentType, p.isFile = "", "", "", false

	for len(block) > 0 {
		var line []byte
		if i := bytes.Index(block, crlf); i != -1 {
			line, block = block[:i], block[i+2:]
		} else {
			line, block = block, nil
		}

		colon := bytes.IndexByte(line, ':')
		if colon == -1 {
			return status.ErrBadMultipart
		}

		key := strings.TrimSpace(uf.B2S(line[:colon]))
		value := strings.TrimSpace(uf.B2S(line[colon+1:]))

		switch {
		case strings.EqualFold(key, "content-disposition"):
			if err := p.parseDisposition(value); err != nil {
				return err
			}
		case strings.EqualFold(key, "content-type"):
			p.contentType = strings.Clone(value)
		}
	}

	return nil
}

// parseDisposition extracts the name and the filename parameters out of a
// Content-Disposition value. Values may carry percent-escapes, which are
// decoded here.
func (p *parser) parseDisposition(value string) error {
	disp := value
	if i := strings.IndexByte(disp, ';'); i != -1 {
		disp, value = disp[:i], value[i+1:]
	} else {
		value = ""
	}

	if !strings.EqualFold(strings.TrimSpace(disp), "form-data") {
		return status.ErrBadMultipart
	}

	for len(value) > 0 {
		var param string
		param, value = cutParam(value)

		key, val, found := strings.Cut(param, "=")
		if !found {
			continue
		}

		val = unquote(strings.TrimSpace(val))

		switch key = strings.TrimSpace(key); {
		case strings.EqualFold(key, "name"):
			decoded, err := p.decodeParam(val)
			if err != nil {
				return err
			}

			p.name = decoded
		case strings.EqualFold(key, "filename"):
			decoded, err := p.decodeParam(val)
			if err != nil {
				return err
			}

			p.filename = decoded
			p.isFile = true
		}
	}

	return nil
}

func (p *parser) decodeParam(value string) (string, error) {
	decoded, buff, err := urlencoded.Decode(uf.S2B(value), p.decodeBuff[:0])
	p.decodeBuff = buff
	if err != nil {
		return "", status.ErrBadMultipart
	}

	// the buffer is reused across parameters, so copy out of it
	return strings.Clone(uf.B2S(decoded)), nil
}

func (p *parser) openSink() error {
	if len(p.name) == 0 {
		return status.ErrBadMultipart
	}

	if !p.isFile {
		p.value = p.value[:0]
		return nil
	}

	fd, err := os.OpenFile(p.spoolName(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}

	p.spool = fd
	p.spoolPath = fd.Name()
	p.spoolSize = 0

	return nil
}

func (p *parser) spoolName() string {
	return filepath.Join(p.cfg.SpoolDirectory, uniuri.New()+safeExt(p.filename))
}

func (p *parser) sink(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	if !p.isFile {
		p.value = append(p.value, data...)
		return nil
	}

	p.spoolSize += int64(len(data))
	if p.cfg.MaxFileSize > 0 && p.spoolSize > p.cfg.MaxFileSize {
		return status.ErrBodyTooLarge
	}

	_, err := p.spool.Write(data)

	return err
}

func (p *parser) closePart() error {
	if !p.isFile {
		p.form.Fields = append(p.form.Fields, form.Data{
			Name:  p.name,
			Value: string(p.value),
		})

		return nil
	}

	if err := p.spool.Close(); err != nil {
		_ = os.Remove(p.spoolPath)
		p.spool = nil
		return err
	}

	contentType := p.contentType
	if len(contentType) == 0 {
		contentType = mime.OctetStream
	}

	p.form.Files = append(p.form.Files, form.File{
		Name:        p.name,
		Filename:    cleanBase(p.filename),
		ContentType: contentType,
		Path:        p.spoolPath,
		Size:        p.spoolSize,
	})
	p.spool = nil

	return nil
}

// dropSpool removes the half-written spool file of an aborted part. Files of
// completed parts are registered in the form and cleaned up with the cycle.
func (p *parser) dropSpool() {
	if p.spool != nil {
		_ = p.spool.Close()
		_ = os.Remove(p.spoolPath)
		p.spool = nil
	}
}

// cutParam splits off the first parameter at a semicolon standing outside of
// quotes. Filenames are allowed to carry raw semicolons.
func cutParam(value string) (param, rest string) {
	quoted := false

	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '"':
			quoted = !quoted
		case ';':
			if !quoted {
				return value[:i], value[i+1:]
			}
		}
	}

	return value, ""
}

func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return value[1 : len(value)-1]
	}

	return value
}

// cleanBase strips any directory components a client may have put into the
// filename. Both slash flavors count, Windows user-agents historically send
// full paths.
func cleanBase(filename string) string {
	if i := strings.LastIndexByte(filename, '\\'); i != -1 {
		filename = filename[i+1:]
	}
	if i := strings.LastIndexByte(filename, '/'); i != -1 {
		filename = filename[i+1:]
	}

	return filename
}

// safeExt extracts the extension of the client-supplied filename, dropping
// anything that could address the filesystem.
func safeExt(filename string) string {
	ext := filepath.Ext(cleanBase(filename))
	if len(ext) < 2 || len(ext) > 16 {
		return ""
	}

	for i := 1; i < len(ext); i++ {
		c := ext[i]
		legal := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
		if !legal {
			return ""
		}
	}

	return ext
}
