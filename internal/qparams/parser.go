package qparams

import (
	"github.com/cobalt-web/cobalt/http/status"
	"github.com/cobalt-web/cobalt/kv"
	"github.com/indigo-web/utils/uf"
)

// Into adapts a kv.Storage to the parser callback.
func Into(s *kv.Storage) func(string, string) {
	return func(k, v string) {
		s.Add(k, v)
	}
}

type (
	CB      = func(k string, v string)
	Decoder = func(src, dst []byte) (decoded, buffer []byte, err error)
)

// Parse splits data into key=value pairs separated by ampersands, running each
// of both through the decoder. A key without a value (a flag) is reported with
// defFlagValue. Empty keys and non-printable characters are rejected.
func Parse(data, buff []byte, cb CB, decoder Decoder, defFlagValue string) (buffer []byte, err error) {
	var key string

parseKey:
	if len(data) == 0 {
		return buff, nil
	}

	var decoded []byte

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch c {
		case '=':
			decoded, buff, err = decoder(data[:i], buff)
			if err != nil {
				return buff, err
			}
			if len(decoded) == 0 {
				return buff, status.ErrBadQuery
			}

			key = uf.B2S(decoded)
			data = data[i+1:]
			goto parseValue
		case '&':
			decoded, buff, err = decoder(data[:i], buff)
			if err != nil {
				return buff, err
			}
			if len(decoded) == 0 {
				return buff, status.ErrBadQuery
			}

			cb(uf.B2S(decoded), defFlagValue)
			data = data[i+1:]
			goto parseKey
		default:
			if illegalSymbol(c) {
				return buff, status.ErrBadQuery
			}
		}
	}

	decoded, buff, err = decoder(data, buff)
	if err != nil {
		return buff, err
	}
	if len(decoded) == 0 {
		return buff, status.ErrBadQuery
	}

	cb(uf.B2S(decoded), defFlagValue)

	return buff, nil

parseValue:
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '&' {
			decoded, buff, err = decoder(data[:i], buff)
			if err != nil {
				return buff, err
			}

			cb(key, uf.B2S(decoded))
			data = data[i+1:]
			goto parseKey
		}

		if illegalSymbol(c) {
			return buff, status.ErrBadQuery
		}
	}

	decoded, buff, err = decoder(data, buff)
	if err != nil {
		return buff, err
	}

	cb(key, uf.B2S(decoded))

	return buff, nil
}

// illegalSymbol reports non-printable characters and whitespaces, which can
// appear in a query or an urlencoded form only escaped.
func illegalSymbol(c byte) bool {
	return c < 0x21 || c > 0x7e
}
