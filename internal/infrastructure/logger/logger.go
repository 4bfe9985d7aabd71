// Package logger builds the service-wide slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const redacted = "[REDACTED]"

// Attribute keys that may carry billing API credentials. The emission flow
// never logs them on purpose; this catches accidental ones.
var secretKeys = map[string]bool{
	"api_key":       true,
	"api_token":     true,
	"user_token":    true,
	"apikey":        true,
	"apitoken":      true,
	"usertoken":     true,
	"password":      true,
	"authorization": true,
}

// Options configures New.
type Options struct {
	Service     string
	Version     string
	Environment string
	Level       string
	Output      io.Writer // defaults to os.Stdout
}

// New returns a logger tagged with the service identity. Development
// environments print human-readable lines through zerolog's console writer;
// everything else writes JSON.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       parseLevel(opts.Level),
		AddSource:   true,
		ReplaceAttr: redactSecrets,
	}

	var handler slog.Handler
	if isDevelopment(opts.Environment) {
		handlerOpts.ReplaceAttr = chain(redactSecrets, consoleFields)
		handler = slog.NewJSONHandler(consoleWriter(out), handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	return slog.New(handler).With(
		slog.String("service", opts.Service),
		slog.String("version", opts.Version),
		slog.String("env", strings.ToLower(strings.TrimSpace(opts.Environment))),
	)
}

func isDevelopment(environment string) bool {
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "local", "dev", "development":
		return true
	}
	return false
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !isTerminal(out),
		TimeFormat: "15:04:05.000",
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}
	return a
}

// consoleFields renames slog's built-in keys to the ones zerolog's console
// writer formats.
func consoleFields(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.MessageKey:
		a.Key = zerolog.MessageFieldName
	case slog.LevelKey:
		a.Value = slog.StringValue(strings.ToLower(a.Value.String()))
	case slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.Format(time.RFC3339Nano))
		}
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
			return slog.String(zerolog.CallerFieldName, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return a
}

func chain(fns ...func([]string, slog.Attr) slog.Attr) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		for _, fn := range fns {
			a = fn(groups, a)
		}
		return a
	}
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
