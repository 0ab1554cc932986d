package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level is the minimum severity a Logger emits.
type Level int32

const (
	DebugLevel Level = iota
	InfoLevel
	WarningLevel
	ErrorLevel
)

// minLevel is shared by every named logger so one config value governs the process.
var minLevel atomic.Int32

func init() {
	minLevel.Store(int32(InfoLevel))
}

// -----------------------------------------------------------------------------

// SetLevel sets the process-wide minimum level from its config name.
// Unknown names fall back to info.
func SetLevel(name string) {
	minLevel.Store(int32(ParseLevel(name)))
}

// ParseLevel maps debug, info, warning (or warn) and error to a Level.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel
	case "warning", "warn":
		return WarningLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name   string
	logger *log.Logger
	exit   func(int)
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance writing to stdout
func NewLogger(name string) *Logger {
	return NewLoggerTo(os.Stdout, name)
}

// NewLoggerTo creates a Logger writing to w.
func NewLoggerTo(w io.Writer, name string) *Logger {
	return &Logger{
		name:   name,
		logger: log.New(w, "", log.LstdFlags),
		exit:   os.Exit,
	}
}

// -----------------------------------------------------------------------------

func (l *Logger) enabled(level Level) bool {
	return int32(level) >= minLevel.Load()
}

func (l *Logger) output(tag, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] %s: %s", l.name, tag, msg)
}

// -----------------------------------------------------------------------------

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.enabled(DebugLevel) {
		l.output("DEBUG", format, args...)
	}
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	if l.enabled(InfoLevel) {
		l.output("INFO", format, args...)
	}
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	if l.enabled(WarningLevel) {
		l.output("WARNING", format, args...)
	}
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	if l.enabled(ErrorLevel) {
		l.output("ERROR", format, args...)
	}
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.output("CRITICAL", format, args...)
	l.exit(1)
}
