package invoice

import (
	"context"
	"time"
)

// Gateway sends invoice requests to the billing API.
// It returns the raw reply for any HTTP status; an error means the request
// could not be completed at the transport level.
type Gateway interface {
	Emit(ctx context.Context, req Request) (RawResponse, error)
}

// ConfigurationStore persists the business configuration.
type ConfigurationStore interface {
	// GetLatest returns the most recently saved configuration, or nil when none exists.
	GetLatest(ctx context.Context) (*Configuration, error)
	// Save stores a new configuration version.
	Save(ctx context.Context, cfg Configuration) (*Configuration, error)
}

// Repository persists emitted invoices.
type Repository interface {
	// Save stores a newly emitted invoice and returns it with ID and CreatedAt set.
	Save(ctx context.Context, inv EmittedInvoice) (*EmittedInvoice, error)
	// FindByID returns nil when the invoice does not exist.
	FindByID(ctx context.Context, id string) (*EmittedInvoice, error)
	// List returns invoices newest first.
	List(ctx context.Context, query ListQuery) ([]EmittedInvoice, error)
	// Totals aggregates invoices dated within period, both ends inclusive.
	Totals(ctx context.Context, period Period) (*PeriodTotals, error)
	// UpdatePDFURL sets the PDF URL only when none is stored yet.
	// It reports whether a row was updated.
	UpdatePDFURL(ctx context.Context, id, pdfURL string) (bool, error)
}

// SummaryRenderer produces a printable summary of an issued invoice.
type SummaryRenderer interface {
	RenderSummary(inv EmittedInvoice, issuer Configuration) ([]byte, error)
}

// Clock abstracts the current time for date validation.
type Clock func() time.Time
