package audit

import (
	"context"
	"encoding/json"
	"time"
)

// GatewayCall is the audit record of one request sent to the billing API.
// Bodies and headers are stored already sanitized; credentials never reach storage.
type GatewayCall struct {
	ID              int64
	CorrelationID   string
	Gateway         string
	Operation       string
	RequestMethod   string
	RequestURL      string
	RequestHeaders  map[string]string
	RequestBody     json.RawMessage
	ResponseStatus  *int
	ResponseHeaders map[string]string
	ResponseBody    json.RawMessage
	DurationMs      int64
	ErrorMessage    string
	CreatedAt       time.Time
}

// Succeeded reports whether the call got a 2xx reply.
func (c GatewayCall) Succeeded() bool {
	return c.ErrorMessage == "" && c.ResponseStatus != nil && *c.ResponseStatus >= 200 && *c.ResponseStatus < 300
}

// Repository persists gateway call records.
type Repository interface {
	Save(ctx context.Context, call GatewayCall) error

	// FindByCorrelationID returns every call made while serving one inbound request,
	// newest first. It is the first thing to check when an operator reports a
	// charged-but-missing invoice.
	FindByCorrelationID(ctx context.Context, correlationID string) ([]GatewayCall, error)
}
