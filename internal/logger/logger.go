package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Field names shared by every component
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldDatabase  = "database"
	FieldEdition   = "edition"
	FieldIP        = "ip"
)

// Logger is a zerolog.Logger with helpers for the fields this service logs
type Logger struct {
	*zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string    // debug, info, warn, error; anything else means info
	Pretty     bool      // human readable console output instead of JSON
	OutputFile string    // also append to this file when set
	Writer     io.Writer // os.Stdout when nil
}

// New builds a logger. The level is set on the logger itself, so several
// loggers with different levels can coexist in one process.
func New(cfg Config) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := cfg.Writer
	if out == nil {
		out = os.Stdout
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	if cfg.OutputFile != "" {
		if f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			out = io.MultiWriter(out, f)
		}
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().Caller().Logger()
	return &Logger{Logger: &zl}
}

// NewDefault is an info level console logger
func NewDefault() *Logger {
	return New(Config{Level: "info", Pretty: true})
}

// NewNop discards everything
func NewNop() *Logger {
	zl := zerolog.Nop()
	return &Logger{Logger: &zl}
}

func (l *Logger) with(fields map[string]string) *Logger {
	ctx := l.With()
	for k, v := range fields {
		ctx = ctx.Str(k, v)
	}
	zl := ctx.Logger()
	return &Logger{Logger: &zl}
}

// WithComponent tags entries with the emitting component
func (l *Logger) WithComponent(component string) *Logger {
	return l.with(map[string]string{FieldComponent: component})
}

// WithRequestID tags entries with the chi request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.with(map[string]string{FieldRequestID: requestID})
}

// WithDatabase tags entries with a database name and its edition
func (l *Logger) WithDatabase(name, edition string) *Logger {
	return l.with(map[string]string{FieldDatabase: name, FieldEdition: edition})
}

// WithIP tags entries with the address being looked up
func (l *Logger) WithIP(ip string) *Logger {
	return l.with(map[string]string{FieldIP: ip})
}
