package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
)

// Repository implements the invoice.ConfigurationStore interface using PostgreSQL.
// Each save appends a version; reads return the newest.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL configuration store.
func NewRepository(pool *pgxpool.Pool) invoice.ConfigurationStore {
	return &Repository{pool: pool}
}

// GetLatest returns nil when no configuration was ever saved.
func (r *Repository) GetLatest(ctx context.Context) (*invoice.Configuration, error) {
	query := `
		SELECT tax_id, legal_name, sales_point, concept, tax_rate_percent,
		       activity_kind, default_document_type, api_token, api_key, user_token, updated_at
		FROM invoice_configuration
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`

	var cfg invoice.Configuration
	var activity, docType string
	err := r.pool.QueryRow(ctx, query).Scan(
		&cfg.TaxID,
		&cfg.LegalName,
		&cfg.SalesPoint,
		&cfg.Concept,
		&cfg.TaxRatePercent,
		&activity,
		&docType,
		&cfg.Credentials.APIToken,
		&cfg.Credentials.APIKey,
		&cfg.Credentials.UserToken,
		&cfg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query configuration: %w", err)
	}

	cfg.ActivityKind = invoice.ActivityKind(activity)
	cfg.DefaultDocumentType = invoice.DocumentType(docType)
	return &cfg, nil
}

// Save inserts a new configuration version.
func (r *Repository) Save(ctx context.Context, cfg invoice.Configuration) (*invoice.Configuration, error) {
	query := `
		INSERT INTO invoice_configuration (
			tax_id, legal_name, sales_point, concept, tax_rate_percent,
			activity_kind, default_document_type, api_token, api_key, user_token, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11::timestamptz, now()))
		RETURNING updated_at
	`

	var updatedAt any
	if !cfg.UpdatedAt.IsZero() {
		updatedAt = cfg.UpdatedAt
	}

	err := r.pool.QueryRow(ctx, query,
		cfg.TaxID,
		cfg.LegalName,
		cfg.SalesPoint,
		cfg.Concept,
		cfg.TaxRatePercent,
		string(cfg.ActivityKind),
		string(cfg.DefaultDocumentType),
		cfg.Credentials.APIToken,
		cfg.Credentials.APIKey,
		cfg.Credentials.UserToken,
		updatedAt,
	).Scan(&cfg.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert configuration: %w", err)
	}

	return &cfg, nil
}
