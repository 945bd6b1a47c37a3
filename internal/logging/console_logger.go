package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ConsoleLogger writes level-tagged log lines to stderr through a zerolog
// ConsoleWriter. Info lines carry no tag; other levels are prefixed with
// [VERBOSE], [WARN] or [ERROR].
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	zl zerolog.Logger
}

// NewConsoleLogger creates a ConsoleLogger writing to os.Stderr.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stderr, verbose)
}

// NewConsoleLoggerTo creates a ConsoleLogger writing to w.
func NewConsoleLoggerTo(w io.Writer, verbose bool) *ConsoleLogger {
	cw := zerolog.ConsoleWriter{
		Out:         w,
		NoColor:     true,
		PartsOrder:  []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: formatLevel,
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return &ConsoleLogger{zl: zerolog.New(cw).Level(level)}
}

func formatLevel(i interface{}) string {
	switch fmt.Sprint(i) {
	case zerolog.LevelDebugValue:
		return "[VERBOSE]"
	case zerolog.LevelWarnValue:
		return "[WARN]"
	case zerolog.LevelErrorValue:
		return "[ERROR]"
	default:
		return ""
	}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	emit(l.zl.Debug(), format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	emit(l.zl.Info(), format, args)
}

// Warn logs non-fatal problems.
func (l *ConsoleLogger) Warn(format string, args ...interface{}) {
	emit(l.zl.Warn(), format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	emit(l.zl.Error(), format, args)
}

func emit(e *zerolog.Event, format string, args []interface{}) {
	if len(args) > 0 {
		e.Msgf(format, args...)
		return
	}
	e.Msg(format)
}
