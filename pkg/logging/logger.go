package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel defines the severity of the message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// Format selects how log lines are rendered.
type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// NewMockLogger returns a convenient mock logger for testing
func NewMockLogger() *DefaultLogger {
	return newLogger(&lockedBuffer{}, INFO, FormatJSON)
}

// lockedBuffer is an in-memory sink safe for concurrent writers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Logger interface defines logging operations
//
//go:generate mockery --name=Logger --output=./mocks
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	SetOutput(w io.Writer)
	SetLevel(level LogLevel)
}

// DefaultLogger writes structured log lines through zerolog.
type DefaultLogger struct {
	writer io.Writer
	level  LogLevel
	format Format
	fields map[string]interface{}
	zl     zerolog.Logger
}

// NewDefaultLogger creates a new logger instance
func NewDefaultLogger() *DefaultLogger {
	return newLogger(os.Stdout, INFO, FormatJSON)
}

// NewLogger creates a logger with an explicit level and output format.
func NewLogger(w io.Writer, level LogLevel, format Format) *DefaultLogger {
	return newLogger(w, level, format)
}

func newLogger(w io.Writer, level LogLevel, format Format) *DefaultLogger {
	l := &DefaultLogger{
		writer: w,
		level:  level,
		format: format,
	}
	l.rebuild()
	return l
}

// Debug logs debug messages
func (l *DefaultLogger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}

// Info logs informational messages
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

// Warn logs warning messages
func (l *DefaultLogger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs error messages
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.zl.Error().Msg(fmt.Sprintf(format, args...))
}

// WithField returns a child logger that stamps every line with key=value.
func (l *DefaultLogger) WithField(key string, value interface{}) Logger {
	fields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value

	child := &DefaultLogger{
		writer: l.writer,
		level:  l.level,
		format: l.format,
		fields: fields,
	}
	child.rebuild()
	return child
}

// String returns everything logged so far when the output is an in-memory
// buffer, and an empty string otherwise.
func (l *DefaultLogger) String() string {
	if s, ok := l.writer.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}

// SetOutput sets the output destination for the logger
func (l *DefaultLogger) SetOutput(w io.Writer) {
	l.writer = w
	l.rebuild()
}

// SetLevel sets the logging level
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level = level
	l.rebuild()
}

func (l *DefaultLogger) rebuild() {
	out := l.writer
	if l.format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: l.writer, TimeFormat: time.RFC3339, NoColor: true}
	}

	ctx := zerolog.New(out).With().Timestamp()
	for k, v := range l.fields {
		ctx = ctx.Interface(k, v)
	}
	l.zl = ctx.Logger().Level(toZerologLevel(l.level))
}

func toZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// StringToLogLevel converts a string representation to a LogLevel
func StringToLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// StringToFormat converts a string representation to a Format, defaulting to JSON.
func StringToFormat(format string) Format {
	if strings.EqualFold(format, string(FormatConsole)) {
		return FormatConsole
	}
	return FormatJSON
}
