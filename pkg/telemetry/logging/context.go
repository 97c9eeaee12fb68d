package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// SessionKey is the context key for the engine session identifier.
	SessionKey contextKey = "session"

	// ClipKey is the context key for clip names.
	ClipKey contextKey = "clip"

	// BankKey is the context key for bank names.
	BankKey contextKey = "bank"

	// InstanceKey is the context key for playback instance ids.
	InstanceKey contextKey = "instance"

	// RequestIDKey is the context key for HTTP request ids.
	RequestIDKey contextKey = "request_id"
)

// WithSession adds a session identifier to the context.
func WithSession(ctx context.Context, session string) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// GetSession retrieves the session identifier from the context.
func GetSession(ctx context.Context) string {
	if session, ok := ctx.Value(SessionKey).(string); ok {
		return session
	}
	return ""
}

// WithClip adds a clip name to the context.
func WithClip(ctx context.Context, clip string) context.Context {
	return context.WithValue(ctx, ClipKey, clip)
}

// GetClip retrieves the clip name from the context.
func GetClip(ctx context.Context) string {
	if clip, ok := ctx.Value(ClipKey).(string); ok {
		return clip
	}
	return ""
}

// WithBank adds a bank name to the context.
func WithBank(ctx context.Context, bank string) context.Context {
	return context.WithValue(ctx, BankKey, bank)
}

// GetBank retrieves the bank name from the context.
func GetBank(ctx context.Context) string {
	if bank, ok := ctx.Value(BankKey).(string); ok {
		return bank
	}
	return ""
}

// WithInstance adds a playback instance id to the context.
func WithInstance(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, InstanceKey, id)
}

// GetInstance retrieves the playback instance id from the context.
func GetInstance(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(InstanceKey).(uint64)
	return id, ok
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
func extractContextFields(ctx context.Context) []slog.Attr {
	var fields []slog.Attr

	if session := GetSession(ctx); session != "" {
		fields = append(fields, slog.String("session", session))
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, slog.String("request_id", requestID))
	}
	if bank := GetBank(ctx); bank != "" {
		fields = append(fields, slog.String("bank", bank))
	}
	if clip := GetClip(ctx); clip != "" {
		fields = append(fields, slog.String("clip", clip))
	}
	if id, ok := GetInstance(ctx); ok {
		fields = append(fields, slog.Uint64("instance", id))
	}

	return fields
}

// contextHandler adds the fields carried by the record's context to every
// record. A field the call already sets explicitly is left alone.
type contextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps h so that records logged with a context pick up
// its session, request id, bank, clip and instance. Wrapping an already
// wrapped handler returns it unchanged.
func NewContextHandler(h slog.Handler) slog.Handler {
	if _, ok := h.(*contextHandler); ok {
		return h
	}
	return &contextHandler{next: h}
}

// WithContextFields returns logger with its handler wrapped by
// NewContextHandler.
func WithContextFields(logger *slog.Logger) *slog.Logger {
	h := logger.Handler()
	if _, ok := h.(*contextHandler); ok {
		return logger
	}
	return slog.New(NewContextHandler(h))
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return h.next.Handle(ctx, r)
	}

	present := make(map[string]bool, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		present[a.Key] = true
		return true
	})
	for _, f := range fields {
		if !present[f.Key] {
			r.AddAttrs(f)
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}
