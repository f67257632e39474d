package janus

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the minimal structured logging surface used for debug output.
// Arguments are alternating key/value pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// SimpleLogger writes single-line output to stderr. Intended for examples
// and tests, not production.
type SimpleLogger struct{}

// NewSimpleLogger creates a console logger.
func NewSimpleLogger() *SimpleLogger { return &SimpleLogger{} }

func (l *SimpleLogger) Debug(msg string, kv ...any) { l.print("DEBUG", msg, kv) }
func (l *SimpleLogger) Info(msg string, kv ...any)  { l.print("INFO", msg, kv) }
func (l *SimpleLogger) Warn(msg string, kv ...any)  { l.print("WARN", msg, kv) }
func (l *SimpleLogger) Error(msg string, kv ...any) { l.print("ERROR", msg, kv) }

func (l *SimpleLogger) print(level, msg string, kv []any) {
	line := fmt.Sprintf("[%s] %s %s", level, time.Now().Format(time.RFC3339), msg)
	for i := 0; i+1 < len(kv); i += 2 {
		line += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}
	fmt.Fprintln(os.Stderr, line)
}

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog logger.
func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{l: l}
}

// NewDefaultZerologLogger creates a stderr-backed zerolog adapter.
func NewDefaultZerologLogger() *ZerologLogger {
	return &ZerologLogger{l: zerolog.New(os.Stderr).With().Timestamp().Logger()}
}

func (z *ZerologLogger) Debug(msg string, kv ...any) { z.emit(z.l.Debug(), msg, kv) }
func (z *ZerologLogger) Info(msg string, kv ...any)  { z.emit(z.l.Info(), msg, kv) }
func (z *ZerologLogger) Warn(msg string, kv ...any)  { z.emit(z.l.Warn(), msg, kv) }
func (z *ZerologLogger) Error(msg string, kv ...any) { z.emit(z.l.Error(), msg, kv) }

func (z *ZerologLogger) emit(ev *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		ev = ev.Interface(fmt.Sprintf("%v", kv[i]), kv[i+1])
	}
	ev.Msg(msg)
}

// DebugConfig controls per-stage debug logging.
type DebugConfig struct {
	Enabled      bool
	LogRequests  bool
	LogRecovery  bool
	LogTemplate  bool
	LogQuery     bool
	RequestIDGen func() string
}

// DefaultDebugConfig enables all stages with uuid request IDs, disabled
// until WithDebug is applied.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		LogRequests:  true,
		LogRecovery:  true,
		LogTemplate:  false,
		LogQuery:     false,
		RequestIDGen: newRequestID,
	}
}
