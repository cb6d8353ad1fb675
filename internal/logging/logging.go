// Package logging wraps log/slog behind a small context-first Logger so the
// engine, the gRPC surface and the commands share one structured log stream.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"go.opentelemetry.io/otel/trace"
)

// Output formats understood by New.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Field is one key/value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

func String(key, v string) Field                 { return Field{key, v} }
func Int(key string, v int) Field                { return Field{key, v} }
func Float64(key string, v float64) Field        { return Field{key, v} }
func Duration(key string, v time.Duration) Field { return Field{key, v} }
func Time(key string, v time.Time) Field         { return Field{key, v} }

// Err records err under "error"; nil becomes the empty string.
func Err(err error) Field {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Field{"error", msg}
}

func (f Field) attr() slog.Attr { return slog.Any(f.Key, f.Value) }

// Logger is the structured logger used throughout walker-mesh. Every call
// takes the request context so trace and request IDs follow the line.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Config selects level, format and destination.
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // FormatText (default), FormatJSON or FormatConsole
	AddSource bool
	Output    io.Writer // os.Stdout when nil
}

// New builds a slog-backed Logger.
func New(cfg Config) Logger {
	w := cfg.Output
	if w == nil {
		w = os.Stdout
	}
	return &slogger{l: slog.New(newHandler(w, cfg))}
}

func newHandler(w io.Writer, cfg Config) slog.Handler {
	lvl := levelOf(cfg.Level)
	switch strings.ToLower(cfg.Format) {
	case FormatJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: cfg.AddSource})
	case FormatConsole:
		return tint.NewHandler(w, &tint.Options{Level: lvl, AddSource: cfg.AddSource, TimeFormat: time.RFC3339})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: cfg.AddSource})
	}
}

// NewFromEnv reads LOG_LEVEL and LOG_FORMAT.
func NewFromEnv() Logger {
	return New(Config{
		Level:     os.Getenv("LOG_LEVEL"),
		Format:    os.Getenv("LOG_FORMAT"),
		AddSource: true,
	})
}

// levelOf maps a level name onto slog, falling back to info.
func levelOf(name string) slog.Level {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "warning" {
		name = "warn"
	}
	var lvl slog.Level
	if name == "" || lvl.UnmarshalText([]byte(name)) != nil {
		return slog.LevelInfo
	}
	return lvl
}

type slogger struct {
	l *slog.Logger
}

func (s *slogger) Debug(ctx context.Context, msg string, fields ...Field) {
	s.emit(ctx, slog.LevelDebug, msg, fields)
}
func (s *slogger) Info(ctx context.Context, msg string, fields ...Field) {
	s.emit(ctx, slog.LevelInfo, msg, fields)
}
func (s *slogger) Warn(ctx context.Context, msg string, fields ...Field) {
	s.emit(ctx, slog.LevelWarn, msg, fields)
}
func (s *slogger) Error(ctx context.Context, msg string, fields ...Field) {
	s.emit(ctx, slog.LevelError, msg, fields)
}

func (s *slogger) With(fields ...Field) Logger {
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f.attr()
	}
	return &slogger{l: s.l.With(args...)}
}

func (s *slogger) emit(ctx context.Context, lvl slog.Level, msg string, fields []Field) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.l.Enabled(ctx, lvl) {
		return
	}
	attrs := make([]slog.Attr, 0, len(fields)+2)
	for _, f := range fields {
		attrs = append(attrs, f.attr())
	}
	s.l.LogAttrs(ctx, lvl, msg, append(attrs, traceAttrs(ctx)...)...)
}

// traceAttrs returns trace_id/span_id for a sampled or remote span on ctx.
func traceAttrs(ctx context.Context) []slog.Attr {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []slog.Attr{
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	}
}

// Noop returns a Logger that discards everything.
func Noop() Logger { return discard{} }

type discard struct{}

func (discard) Debug(context.Context, string, ...Field) {}
func (discard) Info(context.Context, string, ...Field)  {}
func (discard) Warn(context.Context, string, ...Field)  {}
func (discard) Error(context.Context, string, ...Field) {}
func (d discard) With(...Field) Logger                  { return d }
