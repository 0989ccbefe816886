// Package logger builds the slog logger shared by the assistant, the ask
// subcommand and doctor.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"shellmate/internal/infra/config"
)

// Redacted replaces the value of any attribute named in sensitiveKeys.
const Redacted = "[redacted]"

var sensitiveKeys = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"authorization": true,
	"credential":    true,
	"token":         true,
}

// New returns a logger writing to cfg.Output and a closer for the sink.
// Credentials never reach the output, whatever key case the caller uses.
func New(cfg config.LoggerConfig) (*slog.Logger, func() error, error) {
	w, closeSink, err := openSink(cfg.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("open log output %q: %w", cfg.Output, err)
	}

	opts := &slog.HandlerOptions{
		Level:       Level(cfg.Level),
		ReplaceAttr: redact,
	}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("pid", os.Getpid()), closeSink, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Level maps a config level name to a slog.Level. Unknown names mean info.
func Level(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// openSink resolves a log output target. "stdout" and "stderr" name the
// process streams; "" means stderr; anything else is an append-only file
// whose directory is created on demand.
func openSink(target string) (io.Writer, func() error, error) {
	keep := func() error { return nil }

	switch strings.ToLower(target) {
	case "stdout":
		return os.Stdout, keep, nil
	case "", "stderr":
		return os.Stderr, keep, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
