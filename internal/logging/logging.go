// Package logging configures the process wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logName = "eoxs.log"

// Options configure Setup.
type Options struct {
	// Dir holds the rotated JSON log file. Empty logs text to Stderr.
	Dir    string
	Level  string
	Stderr io.Writer
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else
// is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// replacer trims source paths and writes local RFC3339Nano times
func replacer(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		if source, ok := a.Value.Any().(*slog.Source); ok {
			source.File = filepath.Base(source.File)
		}
	}
	if a.Key == slog.TimeKey {
		return slog.String("time", a.Value.Time().Format(time.RFC3339Nano))
	}
	return a
}

// NewLogger builds a logger from opts. The returned closer releases the
// log file.
func NewLogger(opts Options) (*slog.Logger, io.Closer) {
	handlerOptions := &slog.HandlerOptions{
		Level:       ParseLevel(opts.Level),
		ReplaceAttr: replacer,
	}

	if opts.Dir != "" {
		lumberjackLogger := &lumberjack.Logger{
			Filename: filepath.Join(opts.Dir, logName),
			MaxSize:  128,  // megabytes
			MaxAge:   28,   // days
			Compress: true, // gzip rotated log
		}
		handlerOptions.AddSource = true
		logger := slog.New(slog.NewJSONHandler(lumberjackLogger, handlerOptions).
			WithAttrs([]slog.Attr{slog.String("prog", "eoxs")}))
		return logger, lumberjackLogger
	}

	w := opts.Stderr
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, handlerOptions)), io.NopCloser(nil)
}

// Setup installs the logger as slog default and routes chi's request
// logger into it.
func Setup(opts Options) io.Closer {
	logger, closer := NewLogger(opts)
	slog.SetDefault(logger)

	middleware.DefaultLogger = middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
		NoColor: true,
	})
	return closer
}
