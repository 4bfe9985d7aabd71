package context

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// CorrelationIDKey is the context key for correlation IDs.
const CorrelationIDKey contextKey = "correlation_id"

// WithCorrelationID adds a correlation ID to the context.
// It follows an emission from the inbound HTTP request to the billing API call
// and its audit record.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// GetCorrelationID returns the correlation ID, or "" when none is set.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// EnsureCorrelationID returns ctx unchanged when it already carries an ID,
// otherwise a child context with a fresh UUID. CLI emissions have no inbound
// request to take one from.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id := GetCorrelationID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithCorrelationID(ctx, id), id
}

// OperatorKey is the context key for the authenticated operator.
const OperatorKey contextKey = "operator"

// WithOperator records the subject of the verified access token.
func WithOperator(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, OperatorKey, subject)
}

// GetOperator returns the authenticated operator, or "" for CLI calls and
// unauthenticated deployments.
func GetOperator(ctx context.Context) string {
	if sub, ok := ctx.Value(OperatorKey).(string); ok {
		return sub
	}
	return ""
}
