package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var (
	level slog.LevelVar
	base  atomic.Pointer[slog.Logger]
)

func init() {
	SetOutput(os.Stdout)
}

func Init() {
	SetOutput(os.Stdout)
	current().Info("logger initialized")
}

// SetOutput redirects every subsequent log line to w. Safe to call while
// other goroutines log.
func SetOutput(w io.Writer) {
	base.Store(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: &level})))
}

// SetLevel sets the minimum level: debug, info, warn or error.
func SetLevel(name string) error {
	var l slog.Level
	switch strings.ToLower(name) {
	case "debug":
		l = slog.LevelDebug
	case "", "info":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return fmt.Errorf("logger: unknown level %q", name)
	}
	level.Set(l)
	return nil
}

func current() *slog.Logger {
	return base.Load()
}

func Debug(msg string, fields map[string]any) {
	current().Debug(msg, attrs(fields)...)
}

func Info(msg string, fields map[string]any) {
	current().Info(msg, attrs(fields)...)
}

func Warn(msg string, fields map[string]any) {
	current().Warn(msg, attrs(fields)...)
}

func Error(msg string, fields map[string]any) {
	current().Error(msg, attrs(fields)...)
}

func Fatal(msg string, fields map[string]any) {
	current().Error(msg, append(attrs(fields), slog.Bool("fatal", true))...)
	os.Exit(1)
}

func attrs(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	out := make([]any, 0, len(fields))
	for k, v := range fields {
		out = append(out, slog.Any(k, v))
	}
	return out
}
