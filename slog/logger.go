// Package slog provides logger construction and logging decorators for
// linkfeed services using the standard log/slog package.
package slog

import (
	"io"
	"log/slog"
	"strings"

	"github.com/fwojciec/linkfeed"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file rotation settings.
const (
	MaxLogSizeMB  = 10
	MaxLogBackups = 3
	MaxLogAgeDays = 28
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures NewLogger.
type Options struct {
	// Level is one of debug, info, warn or error.
	Level string

	// Format is text or json.
	Format string

	// File, when set, sends output to a size-rotated log file instead of
	// the writer passed to NewLogger.
	File string
}

// IsDebug reports whether the options select debug logging.
func (o Options) IsDebug() bool {
	return strings.EqualFold(o.Level, "debug")
}

// NewLogger builds a logger from opts. The returned closer releases the
// log file, if any. Returns EINVALID for unknown levels or formats.
func NewLogger(w io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    MaxLogSizeMB,
			MaxBackups: MaxLogBackups,
			MaxAge:     MaxLogAgeDays,
		}
		w = lj
		closer = lj
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		handler = slog.NewTextHandler(w, handlerOpts)
	case FormatJSON:
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		closer.Close()
		return nil, nil, linkfeed.Errorf(linkfeed.EINVALID, "unknown log format %q", opts.Format)
	}

	return slog.New(handler), closer, nil
}

// ParseLevel converts a level name to a slog.Level. An empty name means info.
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, linkfeed.Errorf(linkfeed.EINVALID, "unknown log level %q", name)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
