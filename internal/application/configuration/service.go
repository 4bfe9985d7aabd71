package configuration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
)

// Service manages the business configuration used to emit invoices.
type Service struct {
	store invoice.ConfigurationStore
	log   *slog.Logger
	clock invoice.Clock
}

// NewService creates a configuration service.
func NewService(store invoice.ConfigurationStore, log *slog.Logger) *Service {
	return &Service{store: store, log: log, clock: time.Now}
}

// Get returns the current configuration or invoice.ErrConfigurationMissing.
func (s *Service) Get(ctx context.Context) (*invoice.Configuration, error) {
	cfg, err := s.store.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg == nil {
		return nil, invoice.ErrConfigurationMissing
	}
	return cfg, nil
}

// Save validates and stores a new configuration version.
//
// Credentials are only ever shown masked, so a credential sent back empty or
// still in its masked form keeps the stored value.
func (s *Service) Save(ctx context.Context, cfg invoice.Configuration) (*invoice.Configuration, error) {
	cfg.TaxID = strings.TrimSpace(cfg.TaxID)
	cfg.LegalName = strings.TrimSpace(cfg.LegalName)
	cfg.Concept = strings.TrimSpace(cfg.Concept)

	current, err := s.store.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if current != nil {
		cfg.Credentials = mergeCredentials(cfg.Credentials, current.Credentials)
	}

	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, &invoice.ConfigurationValidationError{Problems: problems}
	}

	cfg.UpdatedAt = s.clock().UTC()
	saved, err := s.store.Save(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("save configuration: %w", err)
	}

	s.log.Info("configuration saved",
		"tax_id", saved.TaxID,
		"sales_point", saved.SalesPoint,
		"activity_kind", saved.ActivityKind,
		"document_type", saved.DefaultDocumentType,
	)
	return saved, nil
}

func mergeCredentials(incoming, stored invoice.Credentials) invoice.Credentials {
	masked := invoice.Configuration{Credentials: stored}.Masked().Credentials
	keep := func(value, storedValue, maskedValue string) string {
		value = strings.TrimSpace(value)
		if value == "" || value == maskedValue {
			return storedValue
		}
		return value
	}
	return invoice.Credentials{
		APIToken:  keep(incoming.APIToken, stored.APIToken, masked.APIToken),
		APIKey:    keep(incoming.APIKey, stored.APIKey, masked.APIKey),
		UserToken: keep(incoming.UserToken, stored.UserToken, masked.UserToken),
	}
}
