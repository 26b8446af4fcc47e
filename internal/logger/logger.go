// Package logger is the process-wide diagnostic log of syfhack.
//
// Errors are always written. Debug, Info, Warn and Section output appear
// only in verbose mode. Output goes to stderr as "[LEVEL] message" lines,
// or as one JSON object per record with FormatJSON, which suits
// `mcp serve` running under a supervisor.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Format selects how records are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// quietLevel is the threshold outside verbose mode.
const quietLevel = slog.LevelError

var (
	mu      sync.RWMutex
	out     io.Writer = os.Stderr
	format            = FormatText
	verbose bool

	level = func() *slog.LevelVar {
		v := new(slog.LevelVar)
		v.Set(quietLevel)
		return v
	}()

	structured = newHandlerLogger(FormatText)
)

// ParseFormat accepts "text" or "json", ignoring case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown log format %q (want text or json)", s)
}

// SetFormat switches the rendering of every later record.
func SetFormat(f Format) {
	mu.Lock()
	defer mu.Unlock()
	format = f
	structured = newHandlerLogger(f)
}

func newHandlerLogger(f Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f == FormatJSON {
		return slog.New(slog.NewJSONHandler(sink{}, opts))
	}
	return slog.New(slog.NewTextHandler(sink{}, opts))
}

// SetVerbose lowers the threshold to debug, or restores errors-only.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(quietLevel)
	}
}

func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects every record, structured ones included.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func Debug(msg string, args ...any) { emit(slog.LevelDebug, msg, args) }
func Info(msg string, args ...any)  { emit(slog.LevelInfo, msg, args) }
func Error(msg string, args ...any) { emit(slog.LevelError, msg, args) }

// Warn is verbose-only like Info. Failures the user must see go to Error.
func Warn(msg string, args ...any) { emit(slog.LevelWarn, msg, args) }

// Section marks the start of a pipeline stage in verbose text output.
// JSON output records it as an info entry with a section attribute.
func Section(name string) {
	if slog.LevelInfo < level.Level() {
		return
	}
	mu.RLock()
	f, w, l := format, out, structured
	mu.RUnlock()

	if f == FormatJSON {
		l.Info("section", "section", name)
		return
	}
	fmt.Fprintf(w, "\n=== %s ===\n", name)
}

// emit formats printf-style and writes one record at lvl.
func emit(lvl slog.Level, msg string, args []any) {
	if lvl < level.Level() {
		return
	}
	text := fmt.Sprintf(msg, args...)

	mu.RLock()
	f, w, l := format, out, structured
	mu.RUnlock()

	if f == FormatJSON {
		l.Log(context.Background(), lvl, text)
		return
	}
	fmt.Fprintf(w, "[%s] %s\n", lvl.String(), text)
}

// Slog returns a *slog.Logger for libraries that take one. It shares the
// output and threshold, and keeps the format current at the time of the
// call.
func Slog() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return structured
}

// sink resolves the output on every write so SetOutput applies to
// loggers handed out before it was called.
type sink struct{}

func (sink) Write(p []byte) (int, error) {
	mu.RLock()
	w := out
	mu.RUnlock()
	return w.Write(p)
}
