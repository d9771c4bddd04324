package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Module tags log records with the subsystem that emitted them.
type Module string

type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

type ctxKey int

const requestIDKey ctxKey = iota

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ValidateAndExtractRequestID returns the id or mints a fresh one when the
// incoming value is empty.
func ValidateAndExtractRequestID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// NewHandler builds the root slog handler: human-readable text in dev, JSON
// elsewhere, wrapped so request id and platform trace attrs ride along on
// every record.
func NewHandler(level slog.Leveler, env Environment, module Module) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	if env == EnvDev {
		inner = slog.NewTextHandler(os.Stdout, opts)
	} else {
		inner = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &contextHandler{
		inner: inner.WithAttrs([]slog.Attr{slog.String("module", string(module))}),
	}
}

type contextHandler struct {
	inner slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, record slog.Record) error {
	if id := RequestIDFromContext(ctx); id != "" {
		record.AddAttrs(slog.String("request_id", id))
	}
	if attrs := gcpTraceAttrs(ctx, os.Getenv("GOOGLE_CLOUD_PROJECT")); len(attrs) > 0 {
		record.AddAttrs(attrs...)
	}
	return h.inner.Handle(ctx, record)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name)}
}
