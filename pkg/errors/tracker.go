package errors

import (
	"context"
)

// Tracker defines the interface for error tracking services (Sentry, no-op)
type Tracker interface {
	// CaptureError sends an error with tags such as domain and intent
	CaptureError(ctx context.Context, err error, tags map[string]string) error

	// CaptureMessage sends a message to the tracking service
	CaptureMessage(ctx context.Context, message string, level Level, tags map[string]string) error

	// SetUser associates the current context with a client
	SetUser(ctx context.Context, userID string, email string, username string)

	// AddBreadcrumb records a pipeline stage for the current request
	AddBreadcrumb(ctx context.Context, message string, category string, level Level, data map[string]interface{})

	// Flush waits for all pending events to be sent
	Flush(ctx context.Context) error
}

// Level represents the severity level of an error or message
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

// String returns the string representation of the level
func (l Level) String() string {
	return string(l)
}

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	requestIDKey contextKey = "request_id"
)

// WithRequest attaches the request and user identifiers reported with captured errors
func WithRequest(ctx context.Context, requestID, userID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	if userID != "" {
		ctx = context.WithValue(ctx, userIDKey, userID)
	}
	return ctx
}

// RequestFromContext returns the identifiers set by WithRequest
func RequestFromContext(ctx context.Context) (requestID, userID string) {
	requestID, _ = ctx.Value(requestIDKey).(string)
	userID, _ = ctx.Value(userIDKey).(string)
	return requestID, userID
}
