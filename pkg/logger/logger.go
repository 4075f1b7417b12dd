// ==============================================================================
// LOGGER PACKAGE - pkg/logger/logger.go
// ==============================================================================
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type Logger interface {
	Info(message string, fields map[string]interface{})
	Error(message string, fields map[string]interface{})
	Warn(message string, fields map[string]interface{})
	Debug(message string, fields map[string]interface{})
	Fatal(message string, fields map[string]interface{})
}

type zeroLogger struct {
	logger zerolog.Logger
	exit   func(int)
}

// New returns a JSON logger on stderr. Stdout is reserved for command output.
func New(serviceName string) Logger {
	return NewWithWriter(serviceName, os.Stderr, zerolog.InfoLevel)
}

// NewWithLevel is New with a level name such as "debug" or "warn".
// Unknown names fall back to info.
func NewWithLevel(serviceName, level string) Logger {
	return NewWithWriter(serviceName, os.Stderr, ParseLevel(level))
}

func NewWithWriter(serviceName string, w io.Writer, level zerolog.Level) Logger {
	zl := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
	return &zeroLogger{logger: zl, exit: os.Exit}
}

// ParseLevel maps LOG_LEVEL values to zerolog levels.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *zeroLogger) log(ev *zerolog.Event, message string, fields map[string]interface{}) {
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(message)
}

func (l *zeroLogger) Info(message string, fields map[string]interface{}) {
	l.log(l.logger.Info(), message, fields)
}

func (l *zeroLogger) Error(message string, fields map[string]interface{}) {
	l.log(l.logger.Error(), message, fields)
}

func (l *zeroLogger) Warn(message string, fields map[string]interface{}) {
	l.log(l.logger.Warn(), message, fields)
}

func (l *zeroLogger) Debug(message string, fields map[string]interface{}) {
	l.log(l.logger.Debug(), message, fields)
}

// Fatal logs at fatal level and exits with status 1.
func (l *zeroLogger) Fatal(message string, fields map[string]interface{}) {
	// WithLevel keeps zerolog from calling os.Exit itself so exit stays swappable.
	l.log(l.logger.WithLevel(zerolog.FatalLevel), message, fields)
	l.exit(1)
}

func NewNop() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (l *nopLogger) Info(message string, fields map[string]interface{})  {}
func (l *nopLogger) Error(message string, fields map[string]interface{}) {}
func (l *nopLogger) Warn(message string, fields map[string]interface{})  {}
func (l *nopLogger) Debug(message string, fields map[string]interface{}) {}
func (l *nopLogger) Fatal(message string, fields map[string]interface{}) {}
