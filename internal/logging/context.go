package logging

import (
	"context"
	"log/slog"

	"reelpipe/internal/services"
)

// Standard structured keys.
const (
	FieldComponent = "component"
	FieldVideoID   = "video_id"
	FieldStage     = "stage"
	// FieldRunID ties together every line written by one invocation.
	FieldRunID     = "run_id"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldAlert     = "alert"
)

// ContextFields returns the run annotations of ctx as attributes.
func ContextFields(ctx context.Context) []slog.Attr {
	info := services.RunInfoFrom(ctx)
	var fields []slog.Attr
	if info.VideoID != "" {
		fields = append(fields, slog.String(FieldVideoID, info.VideoID))
	}
	if info.Stage != "" {
		fields = append(fields, slog.String(FieldStage, info.Stage))
	}
	if info.RunID != "" {
		fields = append(fields, slog.String(FieldRunID, info.RunID))
	}
	return fields
}

// WithContext binds the run annotations of ctx to logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}

// contextHandler adds the annotations of the record's context, so
// logger.InfoContext(ctx, ...) is tagged without a WithContext call. Keys
// already bound on the logger win.
type contextHandler struct {
	next  slog.Handler
	bound map[string]struct{}
}

func withContextFields(next slog.Handler) slog.Handler {
	return &contextHandler{next: next}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, record slog.Record) error {
	var extra []slog.Attr
	for _, attr := range ContextFields(ctx) {
		if _, ok := h.bound[attr.Key]; !ok {
			extra = append(extra, attr)
		}
	}
	if len(extra) > 0 {
		record = record.Clone()
		record.AddAttrs(extra...)
	}
	return h.next.Handle(ctx, record)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make(map[string]struct{}, len(h.bound)+len(attrs))
	for key := range h.bound {
		bound[key] = struct{}{}
	}
	for _, attr := range attrs {
		bound[attr.Key] = struct{}{}
	}
	return &contextHandler{next: h.next.WithAttrs(attrs), bound: bound}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), bound: h.bound}
}
