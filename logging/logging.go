package logging

import (
	"io"
	"os"

	"github.com/cobalt-web/cobalt/config"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// New returns a structured JSON logger writing to w, filtering records below
// the level. A nil writer falls back to stderr. The level is carried by the
// instance itself, so embedding applications keep their own global level
// untouched.
func New(level zerolog.Level, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewFromConfig builds the server logger off the Log section: a size-rotated
// file when one is configured, stderr otherwise.
func NewFromConfig(cfg config.Log) zerolog.Logger {
	if len(cfg.File) == 0 {
		return New(cfg.Level, os.Stderr)
	}

	return New(cfg.Level, RotatingFile(cfg.File, cfg.MaxSizeMB, cfg.MaxBackups))
}

// RotatingFile returns a writer appending to path, rotating the file once it
// reaches maxSizeMB and keeping up to maxBackups rotated copies around.
func RotatingFile(path string, maxSizeMB, maxBackups int) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
}

// Nop returns a logger dropping everything. Handy as a default before the
// real one is wired in.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
