package http

import "strings"

// Path is an alias, as the path needs no special representation.
type Path = string

const hexdigits = "0123456789abcdef"

// Escape renders a path safe for logging: bytes outside the printable ASCII
// range are replaced with backslash escapes, so a malicious request line
// cannot smuggle control sequences into the log stream. Paths arriving from
// the parser are always printable, the function exists for everything else.
func Escape(p Path) string {
	i := firstNonPrintable(p)
	if i == -1 {
		return p
	}

	var b strings.Builder
	b.Grow(len(p) + 8)
	b.WriteString(p[:i])

	for ; i < len(p); i++ {
		c := p[i]
		if isPrintable(c) {
			b.WriteByte(c)
			continue
		}

		switch c {
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteString(`\x`)
			b.WriteByte(hexdigits[c>>4])
			b.WriteByte(hexdigits[c&0xf])
		}
	}

	return b.String()
}

func firstNonPrintable(p string) int {
	for i := 0; i < len(p); i++ {
		if !isPrintable(p[i]) {
			return i
		}
	}

	return -1
}

func isPrintable(c byte) bool {
	return c >= 0x20 && c <= 0x7e
}
