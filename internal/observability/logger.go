// Package observability carries per-request structured logging state.
// A RequestContext travels down through service calls on the
// context.Context so every log line shares the same request id.
package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldUserID is the field name for user ID.
	LogFieldUserID = "user_id"
	// LogFieldStoryID is the field name for story ID.
	LogFieldStoryID = "story_id"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldMessageLen is the field name for message length.
	LogFieldMessageLen = "message_length"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
)

// RequestContext represents the context for a single request with structured logging.
type RequestContext struct {
	RequestID string
	UserID    int32
	StoryID   int32
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRequestContext creates a new request context with a generated request ID.
func NewRequestContext(logger *slog.Logger, storyID int32, userID int32) *RequestContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestContext{
		RequestID: uuid.New().String(),
		UserID:    userID,
		StoryID:   storyID,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// Info logs an info message with key-value pairs.
func (r *RequestContext) Info(msg string, args ...any) {
	r.Logger.Info(msg, r.withBase(args)...)
}

// Debug logs a debug message with key-value pairs.
func (r *RequestContext) Debug(msg string, args ...any) {
	r.Logger.Debug(msg, r.withBase(args)...)
}

// Warn logs a warning message with key-value pairs.
func (r *RequestContext) Warn(msg string, args ...any) {
	r.Logger.Warn(msg, r.withBase(args)...)
}

// Error logs an error message with key-value pairs.
func (r *RequestContext) Error(msg string, args ...any) {
	r.Logger.Error(msg, r.withBase(args)...)
}

// Duration returns the elapsed time since the request started.
func (r *RequestContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (r *RequestContext) DurationMs() int64 {
	return r.Duration().Milliseconds()
}

func (r *RequestContext) withBase(args []any) []any {
	base := []any{
		LogFieldRequestID, r.RequestID,
		LogFieldUserID, r.UserID,
	}
	if r.StoryID != 0 {
		base = append(base, LogFieldStoryID, r.StoryID)
	}
	return append(base, args...)
}

type ctxKey struct{}

// WithRequestContext adds the request context to the context.
func WithRequestContext(ctx context.Context, reqCtx *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, reqCtx)
}

// FromContext extracts the request context from the context. Calls made
// outside a request scope get a fresh context logging to the default
// logger, so callers never need a nil check.
func FromContext(ctx context.Context) *RequestContext {
	if reqCtx, ok := ctx.Value(ctxKey{}).(*RequestContext); ok {
		return reqCtx
	}
	return &RequestContext{
		RequestID: uuid.New().String(),
		StartTime: time.Now(),
		Logger:    slog.Default(),
	}
}
