package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"3tcapital/ms_facturacion_ar/internal/core/audit"
)

// Repository implements the audit.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a new PostgreSQL audit repository. log may be nil.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) audit.Repository {
	return &Repository{pool: pool, log: log}
}

// Save persists one gateway call.
func (r *Repository) Save(ctx context.Context, call audit.GatewayCall) error {
	query := `
		INSERT INTO provider_audit_log (
			correlation_id, gateway, operation, request_method, request_url,
			request_headers, request_body, response_status, response_headers,
			response_body, duration_ms, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	requestHeaders, err := marshalHeaders(call.RequestHeaders)
	if err != nil {
		return fmt.Errorf("marshal request headers: %w", err)
	}
	responseHeaders, err := marshalHeaders(call.ResponseHeaders)
	if err != nil {
		return fmt.Errorf("marshal response headers: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		call.CorrelationID,
		call.Gateway,
		call.Operation,
		call.RequestMethod,
		call.RequestURL,
		requestHeaders,
		nullableJSON(call.RequestBody),
		call.ResponseStatus,
		responseHeaders,
		nullableJSON(call.ResponseBody),
		call.DurationMs,
		call.ErrorMessage,
	)
	if err != nil {
		if r.log != nil {
			r.log.Error("Failed to insert gateway call",
				"correlation_id", call.CorrelationID,
				"gateway", call.Gateway,
				"operation", call.Operation,
				"error", err,
			)
		}
		return fmt.Errorf("insert audit log: %w", err)
	}

	if r.log != nil {
		r.log.Debug("Gateway call saved",
			"correlation_id", call.CorrelationID,
			"gateway", call.Gateway,
			"operation", call.Operation,
			"response_status", call.ResponseStatus,
			"duration_ms", call.DurationMs,
		)
	}
	return nil
}

// FindByCorrelationID retrieves all gateway calls with the given correlation ID.
func (r *Repository) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.GatewayCall, error) {
	query := `
		SELECT id, correlation_id, gateway, operation, request_method, request_url,
		       request_headers, request_body, response_status, response_headers,
		       response_body, duration_ms, error_message, created_at
		FROM provider_audit_log
		WHERE correlation_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var calls []audit.GatewayCall
	for rows.Next() {
		var call audit.GatewayCall
		var requestHeaders, responseHeaders []byte
		var requestBody, responseBody []byte

		if err := rows.Scan(
			&call.ID,
			&call.CorrelationID,
			&call.Gateway,
			&call.Operation,
			&call.RequestMethod,
			&call.RequestURL,
			&requestHeaders,
			&requestBody,
			&call.ResponseStatus,
			&responseHeaders,
			&responseBody,
			&call.DurationMs,
			&call.ErrorMessage,
			&call.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}

		if err := json.Unmarshal(requestHeaders, &call.RequestHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal request headers: %w", err)
		}
		if err := json.Unmarshal(responseHeaders, &call.ResponseHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal response headers: %w", err)
		}
		call.RequestBody = requestBody
		call.ResponseBody = responseBody

		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return calls, nil
}

func marshalHeaders(headers map[string]string) ([]byte, error) {
	if headers == nil {
		headers = map[string]string{}
	}
	return json.Marshal(headers)
}

// nullableJSON maps an empty body to SQL NULL.
func nullableJSON(body json.RawMessage) any {
	if len(body) == 0 {
		return nil
	}
	return []byte(body)
}
