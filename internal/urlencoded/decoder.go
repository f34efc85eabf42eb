package urlencoded

import (
	"bytes"

	"github.com/cobalt-web/cobalt/http/status"
	"github.com/cobalt-web/cobalt/internal/hexconv"
	"github.com/indigo-web/utils/uf"
)

// Decode resolves percent-escaped sequences of src, appending the result to dst.
// If src contains no escapes, it is returned as-is and dst stays untouched. The
// returned buffer is dst after all appends, so it can be reused for further calls.
func Decode(src, dst []byte) (decoded, buffer []byte, err error) {
	percent := bytes.IndexByte(src, '%')
	if percent == -1 {
		return src, dst, nil
	}

	dsthead := len(dst)

	for percent != -1 {
		if percent+2 >= len(src) {
			return nil, dst, status.ErrURLDecoding
		}

		a, b := hexconv.Halfbyte[src[percent+1]], hexconv.Halfbyte[src[percent+2]]
		if a|b > 0x0f {
			return nil, dst, status.ErrURLDecoding
		}

		dst = append(dst, src[:percent]...)
		dst = append(dst, (a<<4)|b)
		src = src[percent+3:]
		percent = bytes.IndexByte(src, '%')
	}

	dst = append(dst, src...)

	return dst[dsthead:], dst, nil
}

// FormDecode is the same as Decode, but on top of that translates pluses
// into spaces, as that is how html forms encode them.
func FormDecode(src, dst []byte) (decoded, buffer []byte, err error) {
	dsthead := len(dst)
	modified := false

	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '+':
			modified = true
			dst = append(dst, src[:i]...)
			dst = append(dst, ' ')
			src = src[i+1:]
			i = -1
		case '%':
			if i+2 >= len(src) {
				return nil, dst, status.ErrURLDecoding
			}

			a, b := hexconv.Halfbyte[src[i+1]], hexconv.Halfbyte[src[i+2]]
			if a|b > 0x0f {
				return nil, dst, status.ErrURLDecoding
			}

			modified = true
			dst = append(dst, src[:i]...)
			dst = append(dst, (a<<4)|b)
			src = src[i+3:]
			i = -1
		}
	}

	if !modified {
		return src, dst, nil
	}

	dst = append(dst, src...)

	return dst[dsthead:], dst, nil
}

// FormDecodeString is a string-typed shortcut for FormDecode.
func FormDecodeString(src string, buff []byte) (decoded string, buffer []byte, err error) {
	d, buffer, err := FormDecode(uf.S2B(src), buff)
	return uf.B2S(d), buffer, err
}
