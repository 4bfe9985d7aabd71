package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
	ctxutil "3tcapital/ms_facturacion_ar/internal/infrastructure/context"
)

const transportFailureMessage = "no se pudo contactar al servicio de facturación"

// Service orchestrates invoice emission and the invoice history.
type Service struct {
	configs  invoice.ConfigurationStore
	gateway  invoice.Gateway
	repo     invoice.Repository
	renderer invoice.SummaryRenderer // Optional: nil disables printable summaries
	log      *slog.Logger
	clock    invoice.Clock
	location *time.Location
	newID    func() string

	mu        sync.RWMutex
	observers []invoice.Observer
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for date validation.
func WithClock(clock invoice.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLocation overrides the business time zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// WithSummaryRenderer enables printable summaries.
func WithSummaryRenderer(r invoice.SummaryRenderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithIDGenerator overrides how invoice IDs are generated.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates an invoice service.
func NewService(configs invoice.ConfigurationStore, gateway invoice.Gateway, repo invoice.Repository, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		configs:  configs,
		gateway:  gateway,
		repo:     repo,
		log:      log,
		clock:    time.Now,
		location: invoice.BusinessLocation(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers an observer for the lifecycle of every later emission.
func (s *Service) Subscribe(observer invoice.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

func (s *Service) snapshotObservers() []invoice.Observer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]invoice.Observer(nil), s.observers...)
}

// EmitInvoice validates the input against the current configuration, sends it
// to the billing API and stores the issued invoice. Nothing is retried.
//
// A *invoice.PersistenceError means the invoice was issued but not stored;
// callers must not resubmit in that case (see invoice.IsRetrySafe).
func (s *Service) EmitInvoice(ctx context.Context, input invoice.FormInput) (*invoice.EmittedInvoice, error) {
	lifecycle := invoice.NewLifecycle(s.snapshotObservers()...)
	if err := lifecycle.Start(); err != nil {
		return nil, err
	}

	inv, err := s.emit(ctx, input)
	if err != nil {
		_ = lifecycle.Fail(err)
		return nil, err
	}

	_ = lifecycle.Succeed(*inv)
	return inv, nil
}

func (s *Service) emit(ctx context.Context, input invoice.FormInput) (*invoice.EmittedInvoice, error) {
	correlationID := ctxutil.GetCorrelationID(ctx)

	// Always read the latest configuration; the operator may have just saved it.
	cfg, err := s.configs.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg == nil {
		return nil, invoice.ErrConfigurationMissing
	}
	if err := cfg.CheckComplete(); err != nil {
		return nil, err
	}

	if err := invoice.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := invoice.ValidateDateIn(input.Date, cfg.ActivityKind, s.clock(), s.location); err != nil {
		return nil, err
	}

	item, err := invoice.DeriveLineItem(input.Amount, cfg.TaxRatePercent, cfg.DefaultDocumentType.IsTypeC())
	if err != nil {
		return nil, err
	}
	req := invoice.BuildRequest(*cfg, input, item)

	s.log.Info("emitting invoice",
		"correlation_id", correlationID,
		"operator", ctxutil.GetOperator(ctx),
		"document_type", cfg.DefaultDocumentType,
		"sales_point", cfg.SalesPoint,
		"amount", input.Amount.String(),
		"date", input.Date.Format(invoice.DateLayout),
	)

	// Once sent, the request must complete: an abandoned caller cannot un-issue an invoice.
	detached := context.WithoutCancel(ctx)

	raw, err := s.gateway.Emit(detached, req)
	if err != nil {
		var (
			emissionErr    *invoice.EmissionError
			unconfirmedErr *invoice.UnconfirmedEmissionError
		)
		switch {
		case errors.As(err, &unconfirmedErr):
			s.log.Error("billing API outcome unknown, check the provider before resubmitting",
				"correlation_id", correlationID,
				"error", err,
			)
			return nil, err
		case errors.As(err, &emissionErr):
			return nil, err
		}
		return nil, &invoice.EmissionError{Message: transportFailureMessage, Err: err}
	}

	parsed, err := invoice.ParseResponse(raw)
	if err != nil {
		s.log.Warn("billing API rejected invoice",
			"correlation_id", correlationID,
			"status", raw.StatusCode,
			"error", err,
		)
		return nil, err
	}

	parsed.ID = s.newID()
	parsed.Amount = input.Amount
	parsed.Date = input.Date
	parsed.DocumentType = cfg.DefaultDocumentType
	parsed.SalesPoint = cfg.SalesPoint
	parsed.TaxRatePercent = item.TaxRate

	saved, err := s.repo.Save(detached, parsed)
	if err != nil {
		s.log.Error("invoice issued but not stored",
			"correlation_id", correlationID,
			"document_number", parsed.DocumentNumber,
			"authorization_code", parsed.AuthorizationCode,
			"error", err,
		)
		return nil, &invoice.PersistenceError{Invoice: parsed, Err: err}
	}

	s.log.Info("invoice issued",
		"correlation_id", correlationID,
		"id", saved.ID,
		"document_number", saved.DocumentNumber,
		"authorization_code", saved.AuthorizationCode,
	)
	return saved, nil
}

// ListInvoices returns the history newest first. A zero limit means
// DefaultListLimit; limits above MaxListLimit are capped.
func (s *Service) ListInvoices(ctx context.Context, query invoice.ListQuery) ([]invoice.EmittedInvoice, error) {
	switch {
	case query.Limit < 0:
		return nil, &invoice.InvalidFieldError{Field: "limit", Reason: "debe ser positivo"}
	case query.Limit == 0:
		query.Limit = invoice.DefaultListLimit
	case query.Limit > invoice.MaxListLimit:
		query.Limit = invoice.MaxListLimit
	}

	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		return nil, &invoice.PeriodError{
			From: query.From.Format(invoice.DateLayout),
			To:   query.To.Format(invoice.DateLayout),
		}
	}

	invoices, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

// PeriodTotals aggregates invoices between from and to, inclusive. Missing
// bounds default to the current calendar month.
func (s *Service) PeriodTotals(ctx context.Context, from, to *time.Time) (*invoice.PeriodTotals, error) {
	period := invoice.MonthPeriod(s.clock(), s.location)
	if from != nil {
		period.From = *from
	}
	if to != nil {
		period.To = *to
	}
	if period.From.After(period.To) {
		return nil, &invoice.PeriodError{
			From: period.From.Format(invoice.DateLayout),
			To:   period.To.Format(invoice.DateLayout),
		}
	}

	totals, err := s.repo.Totals(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("aggregate invoices: %w", err)
	}
	return totals, nil
}

// GetInvoice returns one invoice or invoice.ErrNotFound.
func (s *Service) GetInvoice(ctx context.Context, id string) (*invoice.EmittedInvoice, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, invoice.ErrNotFound
	}

	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find invoice: %w", err)
	}
	if inv == nil {
		return nil, invoice.ErrNotFound
	}
	return inv, nil
}

// BackfillPDF stores the PDF URL of an invoice issued without one. A stored
// URL is never replaced.
func (s *Service) BackfillPDF(ctx context.Context, id, pdfURL string) (*invoice.EmittedInvoice, error) {
	pdfURL = strings.TrimSpace(pdfURL)
	if err := validatePDFURL(pdfURL); err != nil {
		return nil, err
	}

	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.PDFURL != nil {
		return nil, invoice.ErrPDFAlreadySet
	}

	updated, err := s.repo.UpdatePDFURL(ctx, id, pdfURL)
	if err != nil {
		return nil, fmt.Errorf("update pdf url: %w", err)
	}
	if !updated {
		// Set concurrently between the read and the update.
		return nil, invoice.ErrPDFAlreadySet
	}

	inv.PDFURL = &pdfURL
	return inv, nil
}

func validatePDFURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &invoice.InvalidFieldError{Field: "pdfUrl", Reason: "debe ser una URL http(s) válida"}
	}
	return nil
}

// SummaryPDF renders the printable summary of an invoice.
func (s *Service) SummaryPDF(ctx context.Context, id string) ([]byte, *invoice.EmittedInvoice, error) {
	if s.renderer == nil {
		return nil, nil, errors.New("summary rendering is not configured")
	}

	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := s.configs.GetLatest(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg == nil {
		return nil, nil, invoice.ErrConfigurationMissing
	}

	pdf, err := s.renderer.RenderSummary(*inv, *cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("render summary: %w", err)
	}
	return pdf, inv, nil
}
