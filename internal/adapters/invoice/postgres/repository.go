package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
)

const invoiceColumns = `
	id, document_number, authorization_code, authorization_expiry, pdf_url,
	amount, date, document_type, sales_point, tax_rate_percent, created_at
`

// Repository implements the invoice.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL invoice repository.
func NewRepository(pool *pgxpool.Pool) invoice.Repository {
	return &Repository{pool: pool}
}

// Save inserts an emitted invoice. A missing ID is generated.
func (r *Repository) Save(ctx context.Context, inv invoice.EmittedInvoice) (*invoice.EmittedInvoice, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	query := `
		INSERT INTO invoices (
			id, document_number, authorization_code, authorization_expiry, pdf_url,
			amount, date, document_type, sales_point, tax_rate_percent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		inv.ID,
		inv.DocumentNumber,
		inv.AuthorizationCode,
		inv.AuthorizationExpiry,
		inv.PDFURL,
		inv.Amount,
		inv.Date,
		string(inv.DocumentType),
		inv.SalesPoint,
		inv.TaxRatePercent,
	).Scan(&inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}

	return &inv, nil
}

// FindByID returns nil when no invoice has the given ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*invoice.EmittedInvoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	inv, err := scanInvoice(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query invoice: %w", err)
	}
	return inv, nil
}

// List returns invoices newest first, optionally bounded by date.
func (r *Repository) List(ctx context.Context, q invoice.ListQuery) ([]invoice.EmittedInvoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE ($1::date IS NULL OR date >= $1::date)
		  AND ($2::date IS NULL OR date <= $2::date)
		ORDER BY date DESC, created_at DESC
		LIMIT $3
	`

	limit := q.Limit
	if limit <= 0 {
		limit = invoice.DefaultListLimit
	}

	rows, err := r.pool.Query(ctx, query, q.From, q.To, limit)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	invoices := []invoice.EmittedInvoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return invoices, nil
}

// Totals aggregates the invoices dated within period.
func (r *Repository) Totals(ctx context.Context, period invoice.Period) (*invoice.PeriodTotals, error) {
	query := `
		SELECT document_type, COUNT(*), COALESCE(SUM(amount), 0)
		FROM invoices
		WHERE date BETWEEN $1::date AND $2::date
		GROUP BY document_type
		ORDER BY document_type
	`

	rows, err := r.pool.Query(ctx, query, period.From, period.To)
	if err != nil {
		return nil, fmt.Errorf("query invoice totals: %w", err)
	}
	defer rows.Close()

	totals := &invoice.PeriodTotals{
		Period: period,
		Amount: decimal.Zero,
		ByType: []invoice.TypeTotal{},
	}
	for rows.Next() {
		var docType string
		var t invoice.TypeTotal
		if err := rows.Scan(&docType, &t.Count, &t.Amount); err != nil {
			return nil, fmt.Errorf("scan invoice totals: %w", err)
		}
		t.DocumentType = invoice.DocumentType(docType)
		totals.Count += t.Count
		totals.Amount = totals.Amount.Add(t.Amount)
		totals.ByType = append(totals.ByType, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return totals, nil
}

// UpdatePDFURL sets pdf_url on an invoice that has none.
func (r *Repository) UpdatePDFURL(ctx context.Context, id, pdfURL string) (bool, error) {
	query := `UPDATE invoices SET pdf_url = $2 WHERE id = $1 AND pdf_url IS NULL`

	tag, err := r.pool.Exec(ctx, query, id, pdfURL)
	if err != nil {
		return false, fmt.Errorf("update invoice pdf url: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanInvoice(row pgx.Row) (*invoice.EmittedInvoice, error) {
	var inv invoice.EmittedInvoice
	var docType string
	if err := row.Scan(
		&inv.ID,
		&inv.DocumentNumber,
		&inv.AuthorizationCode,
		&inv.AuthorizationExpiry,
		&inv.PDFURL,
		&inv.Amount,
		&inv.Date,
		&docType,
		&inv.SalesPoint,
		&inv.TaxRatePercent,
		&inv.CreatedAt,
	); err != nil {
		return nil, err
	}
	inv.DocumentType = invoice.DocumentType(docType)
	return &inv, nil
}
