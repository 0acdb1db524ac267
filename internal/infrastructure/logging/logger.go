package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Extended levels beyond the slog built-ins. Trace sorts below Debug and
// Fatal above Error, preserving the six-step ordering
// Trace < Debug < Info < Warn < Error < Fatal.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelFatal = slog.Level(12)
)

// tagKey is the attribute rendered as the bracketed tag in the line format.
const tagKey = "component"

// Logger wraps slog.Logger with the gateway's file sink and level control.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - The sink serializes writes under a mutex.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	sink  *lineSink
}

// New creates a Logger appending to the given file path at the given level.
//
// An empty path writes to stderr, which is the early-startup fallback before
// the configured log file is known.
func New(path string, level slog.Level) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(level)
	sink := &lineSink{path: path}
	return &Logger{
		Logger: slog.New(&lineHandler{sink: sink, level: lv}),
		level:  lv,
		sink:   sink,
	}
}

// Default creates a stderr logger at Info level for use before the
// configuration is loaded.
func Default() *Logger {
	return New("", LevelInfo)
}

// SetLevel changes the minimum level for all loggers sharing this sink.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// With returns a Logger with additional default attributes. Use
// With("component", name) to set the bracketed tag.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		level:  l.level,
		sink:   l.sink,
	}
}

// Trace logs at trace level.
func (l *Logger) Trace(msg string, args ...any) {
	l.Log(context.Background(), LevelTrace, msg, args...)
}

// Fatal logs at fatal level. It does not exit; process termination is the
// caller's decision.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Log(context.Background(), LevelFatal, msg, args...)
}

// Flush is best-effort. The sink opens and closes the file per write, so
// lines are already durable when each log call returns.
func (l *Logger) Flush() {}

// ParseLevel converts a level name to its slog.Level.
//
// Supported: trace, debug, info, warn, warning, error, fatal.
// Defaults to Info if unrecognised.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// levelName renders a level for the line format.
func levelName(level slog.Level) string {
	switch {
	case level <= LevelTrace:
		return "TRACE"
	case level < LevelInfo:
		return "DEBUG"
	case level < LevelWarn:
		return "INFO"
	case level < LevelError:
		return "WARN"
	case level < LevelFatal:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// lineSink appends formatted lines to a file, opening it per write so every
// line is flushed to the OS when the write returns.
type lineSink struct {
	path string
	mu   sync.Mutex
}

func (s *lineSink) write(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		_, err := io.WriteString(os.Stderr, line)
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(f, line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// lineHandler is the slog.Handler producing the gateway line format.
type lineHandler struct {
	sink  *lineSink
	level *slog.LevelVar
	attrs []slog.Attr
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *lineHandler) Handle(_ context.Context, rec slog.Record) error {
	tag := ""
	var kvs []string

	collect := func(a slog.Attr) {
		if a.Key == tagKey {
			tag = a.Value.String()
			return
		}
		if a.Key == "" {
			return
		}
		kvs = append(kvs, a.Key+"="+a.Value.String())
	}
	for _, a := range h.attrs {
		collect(a)
	}
	rec.Attrs(func(a slog.Attr) bool {
		collect(a)
		return true
	})

	var b strings.Builder
	b.WriteString(rec.Time.Local().Format("2006-01-02 15:04:05"))
	b.WriteString(" [")
	b.WriteString(levelName(rec.Level))
	b.WriteString("]")
	if tag != "" {
		b.WriteString(" [")
		b.WriteString(tag)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(rec.Message)
	for _, kv := range kvs {
		b.WriteString(" ")
		b.WriteString(kv)
	}
	b.WriteString("\n")

	return h.sink.write(b.String())
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &lineHandler{sink: h.sink, level: h.level, attrs: merged}
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	// Groups are not used by the gateway; attrs stay flat.
	_ = name
	return h
}
