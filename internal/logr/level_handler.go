package logr

import (
	"context"
	"log/slog"
)

// levelHandler wraps a slog handler, overriding its minimum level.
type levelHandler struct {
	level   slog.Leveler
	handler slog.Handler
}

func newLevelHandler(level slog.Leveler, h slog.Handler) slog.Handler {
	// Optimization: avoid chains of levelHandlers.
	if lh, ok := h.(*levelHandler); ok {
		h = lh.handler
	}
	return &levelHandler{level, h}
}

func (h *levelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newLevelHandler(h.level, h.handler.WithAttrs(attrs))
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return newLevelHandler(h.level, h.handler.WithGroup(name))
}
