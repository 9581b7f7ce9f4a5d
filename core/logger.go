package core

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger interface for structured logging
// Implementations can provide custom logging behavior (e.g., integration with logrus, zap, etc.)
type Logger interface {
	// Debug logs a debug message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an info message with optional fields
	Info(msg string, fields ...Field)

	// Warn logs a warning message with optional fields
	Warn(msg string, fields ...Field)

	// Error logs an error message with optional fields
	Error(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// DefaultLogger is a Logger backed by zerolog.
type DefaultLogger struct {
	z zerolog.Logger
}

// NewDefaultLogger creates a DefaultLogger writing console output to stderr at info level.
func NewDefaultLogger() *DefaultLogger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return NewZerologLogger(zerolog.New(w).Level(zerolog.InfoLevel).With().Timestamp().Logger())
}

// NewJSONLogger creates a DefaultLogger writing one JSON object per line to w.
func NewJSONLogger(w io.Writer, level zerolog.Level) *DefaultLogger {
	return NewZerologLogger(zerolog.New(w).Level(level).With().Timestamp().Logger())
}

// NewZerologLogger wraps an already configured zerolog.Logger.
func NewZerologLogger(z zerolog.Logger) *DefaultLogger {
	return &DefaultLogger{z: z}
}

// With returns a logger that adds fields to every message.
func (l *DefaultLogger) With(fields ...Field) *DefaultLogger {
	ctx := l.z.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &DefaultLogger{z: ctx.Logger()}
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	l.log(l.z.Debug(), msg, fields)
}

// Info logs an info message
func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.log(l.z.Info(), msg, fields)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.log(l.z.Warn(), msg, fields)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, fields ...Field) {
	l.log(l.z.Error(), msg, fields)
}

func (l *DefaultLogger) log(e *zerolog.Event, msg string, fields []Field) {
	// nil when the level is disabled
	if e == nil {
		return
	}
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			e = e.AnErr(f.Key, err)
			continue
		}
		e = e.Interface(f.Key, f.Value)
	}
	e.Msg(msg)
}

// NoOpLogger is a logger that discards all log messages
// Useful for tests or when logging is not desired
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(msg string, fields ...Field) {}
func (l *NoOpLogger) Info(msg string, fields ...Field)  {}
func (l *NoOpLogger) Warn(msg string, fields ...Field)  {}
func (l *NoOpLogger) Error(msg string, fields ...Field) {}

// WithFields returns a Logger that prepends fields to every call on base.
func WithFields(base Logger, fields ...Field) Logger {
	if dl, ok := base.(*DefaultLogger); ok {
		return dl.With(fields...)
	}
	return &fieldLogger{base: base, fields: fields}
}

type fieldLogger struct {
	base   Logger
	fields []Field
}

func (l *fieldLogger) merge(fields []Field) []Field {
	out := make([]Field, 0, len(l.fields)+len(fields))
	out = append(out, l.fields...)
	return append(out, fields...)
}

func (l *fieldLogger) Debug(msg string, fields ...Field) { l.base.Debug(msg, l.merge(fields)...) }
func (l *fieldLogger) Info(msg string, fields ...Field)  { l.base.Info(msg, l.merge(fields)...) }
func (l *fieldLogger) Warn(msg string, fields ...Field)  { l.base.Warn(msg, l.merge(fields)...) }
func (l *fieldLogger) Error(msg string, fields ...Field) { l.base.Error(msg, l.merge(fields)...) }
