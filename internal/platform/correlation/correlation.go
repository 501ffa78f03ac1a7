// Package correlation tags requests and native events with a short ID that
// follows them through the logs.
package correlation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Header is the request header an embedded page may set to reuse its own ID.
const Header = "X-Request-ID"

const (
	idLength    = 8
	maxIncoming = 64
)

type contextKey struct{}

// NewID returns an 8-character ID taken from a random UUID.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]
}

// FromHeader accepts a caller supplied ID when it is short and printable,
// otherwise a fresh one is generated.
func FromHeader(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > maxIncoming {
		return NewID()
	}
	for _, r := range value {
		if r < 0x21 || r > 0x7e {
			return NewID()
		}
	}
	return value
}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// ID extracts the correlation ID from ctx, returning ("", false) if not present.
func ID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Handler injects a "correlation_id" attribute into every record whose
// context carries one.
type Handler struct {
	inner slog.Handler
}

func NewHandler(inner slog.Handler) *Handler {
	return &Handler{inner: inner}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ID(ctx); ok {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	if err := h.inner.Handle(ctx, r); err != nil {
		return fmt.Errorf("correlation handler: %w", err)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{inner: h.inner.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name)}
}
