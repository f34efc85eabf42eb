package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

type (
	RequestLineSize struct {
		Default, Maximal int
	}

	HeadersNumber struct {
		Default, Maximal int
	}

	HeadersSpace struct {
		Default, Maximal int
	}

	BodyForm struct {
		// EntriesPrealloc is the number of preallocated seats for form fields.
		EntriesPrealloc int
		// BufferPrealloc is the initial length of the buffer storing decoded
		// form keys and values.
		BufferPrealloc int
		// SpoolDirectory is where multipart file parts are streamed to. Each
		// uploaded file gets a unique name inside it.
		SpoolDirectory string
		// MaxFileSize caps a single uploaded file. Parts above it are rejected
		// with 413 Request Entity Too Large.
		MaxFileSize int64
	}
)

type (
	URI struct {
		// RequestLineSize is a buffer storing the request line. Parameters are stored
		// here as well, so setting the maximal boundary too low might result in very
		// ambiguous errors.
		RequestLineSize RequestLineSize
		// ParamsPrealloc is the initial capacity of the wildcard parameters storage.
		ParamsPrealloc int
	}

	Headers struct {
		// Number is responsible for the headers storage size.
		// Default value is its initial capacity.
		// Maximal value is the maximum number of headers allowed in a request.
		Number HeadersNumber
		// Space limits the amount of memory occupied by request headers.
		Space HeadersSpace
		// Default headers are included into every response implicitly, unless
		// explicitly overridden.
		Default map[string]string `test:"nullable"`
	}

	Body struct {
		// MaxSize is the maximal size of a body that will be processed. Requests
		// carrying more are rejected with 413 Request Entity Too Large.
		MaxSize int64
		// Form covers the urlencoded and the multipart decoders alike.
		Form BodyForm
	}

	HTTP struct {
		// ResponseBuffSize is the initial size of the buffer the response head, and
		// sized bodies along it, are serialized into.
		ResponseBuffSize int
		// TransferBuffSize is the size of the buffer used to stream file and reader
		// bodies. In chunked mode it caps the data portion of each produced chunk.
		TransferBuffSize int
	}

	NET struct {
		// ReadBufferSize is a size of buffer in bytes which will be used to read
		// from socket.
		ReadBufferSize int
		// ReadTimeout limits idle time between requests of a keep-alive connection.
		ReadTimeout time.Duration
		// WriteTimeout limits a single write into the socket.
		WriteTimeout time.Duration
		// AcceptLoopInterruptPeriod controls how often the Accept() call is interrupted
		// in order to check whether it is time to stop.
		AcceptLoopInterruptPeriod time.Duration
	}

	Log struct {
		// Level filters emitted records.
		Level zerolog.Level
		// File, when non-empty, redirects output from stderr into a size-rotated
		// log file.
		File string `test:"nullable"`
		// MaxSizeMB is the size a log file may reach before rotation.
		MaxSizeMB int
		// MaxBackups bounds the number of rotated files kept around.
		MaxBackups int
	}
)

// Config holds settings used across the whole server, mainly restrictions,
// limitations and pre-allocations.
//
// Always modify defaults (returned via Default()) instead of constructing
// the struct manually, as zero values here are rarely meaningful.
type Config struct {
	URI     URI
	Headers Headers
	Body    Body
	HTTP    HTTP
	NET     NET
	Log     Log
}

// Default returns the default config. The defaults are well-balanced, yet the
// maximal ones are pretty permitting.
func Default() *Config {
	return &Config{
		URI: URI{
			RequestLineSize: RequestLineSize{
				Default: 2 * 1024,
				// most web entities limit the request line to 4-8kb, so 16kb is
				// tolerant enough
				Maximal: 16 * 1024,
			},
			ParamsPrealloc: 5,
		},
		Headers: Headers{
			Number: HeadersNumber{
				Default: 10,
				Maximal: 50,
			},
			Space: HeadersSpace{
				Default: 1 * 1024,
				Maximal: 16 * 1024, // there might be extremely long cookies
			},
			Default: make(map[string]string),
		},
		Body: Body{
			MaxSize: 512 * 1024 * 1024, // 512 megabytes
			Form: BodyForm{
				EntriesPrealloc: 8,
				BufferPrealloc:  1024,
				SpoolDirectory:  os.TempDir(),
				MaxFileSize:     128 * 1024 * 1024,
			},
		},
		HTTP: HTTP{
			ResponseBuffSize: 1024,
			TransferBuffSize: 64 * 1024,
		},
		NET: NET{
			ReadBufferSize:            4 * 1024,
			ReadTimeout:               90 * time.Second,
			WriteTimeout:              90 * time.Second,
			AcceptLoopInterruptPeriod: 5 * time.Second,
		},
		Log: Log{
			Level:      zerolog.ErrorLevel,
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}
