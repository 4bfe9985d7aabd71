package testutil

import (
	"context"
	"sync"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
)

// MockGateway is a mock implementation of invoice.Gateway. It records every
// request it receives.
type MockGateway struct {
	EmitFunc func(ctx context.Context, req invoice.Request) (invoice.RawResponse, error)

	mu       sync.Mutex
	Requests []invoice.Request
}

// Emit calls the mock function if set, otherwise returns an empty 200 reply.
func (m *MockGateway) Emit(ctx context.Context, req invoice.Request) (invoice.RawResponse, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.EmitFunc != nil {
		return m.EmitFunc(ctx, req)
	}
	return invoice.RawResponse{StatusCode: 200, Body: []byte(`{}`)}, nil
}

// Calls returns how many requests were sent.
func (m *MockGateway) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockConfigurationStore is a mock implementation of invoice.ConfigurationStore.
type MockConfigurationStore struct {
	GetLatestFunc func(ctx context.Context) (*invoice.Configuration, error)
	SaveFunc      func(ctx context.Context, cfg invoice.Configuration) (*invoice.Configuration, error)
}

// GetLatest calls the mock function if set, otherwise reports no configuration.
func (m *MockConfigurationStore) GetLatest(ctx context.Context) (*invoice.Configuration, error) {
	if m.GetLatestFunc != nil {
		return m.GetLatestFunc(ctx)
	}
	return nil, nil
}

// Save calls the mock function if set, otherwise echoes cfg back.
func (m *MockConfigurationStore) Save(ctx context.Context, cfg invoice.Configuration) (*invoice.Configuration, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, cfg)
	}
	return &cfg, nil
}

// MockRepository is a mock implementation of invoice.Repository.
type MockRepository struct {
	SaveFunc         func(ctx context.Context, inv invoice.EmittedInvoice) (*invoice.EmittedInvoice, error)
	FindByIDFunc     func(ctx context.Context, id string) (*invoice.EmittedInvoice, error)
	ListFunc         func(ctx context.Context, query invoice.ListQuery) ([]invoice.EmittedInvoice, error)
	TotalsFunc       func(ctx context.Context, period invoice.Period) (*invoice.PeriodTotals, error)
	UpdatePDFURLFunc func(ctx context.Context, id, pdfURL string) (bool, error)
}

// Save calls the mock function if set, otherwise echoes inv back.
func (m *MockRepository) Save(ctx context.Context, inv invoice.EmittedInvoice) (*invoice.EmittedInvoice, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, inv)
	}
	return &inv, nil
}

// FindByID calls the mock function if set, otherwise reports not found.
func (m *MockRepository) FindByID(ctx context.Context, id string) (*invoice.EmittedInvoice, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

// List calls the mock function if set, otherwise returns an empty slice.
func (m *MockRepository) List(ctx context.Context, query invoice.ListQuery) ([]invoice.EmittedInvoice, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, query)
	}
	return []invoice.EmittedInvoice{}, nil
}

// Totals calls the mock function if set, otherwise returns empty totals.
func (m *MockRepository) Totals(ctx context.Context, period invoice.Period) (*invoice.PeriodTotals, error) {
	if m.TotalsFunc != nil {
		return m.TotalsFunc(ctx, period)
	}
	return &invoice.PeriodTotals{Period: period, ByType: []invoice.TypeTotal{}}, nil
}

// UpdatePDFURL calls the mock function if set, otherwise reports an update.
func (m *MockRepository) UpdatePDFURL(ctx context.Context, id, pdfURL string) (bool, error) {
	if m.UpdatePDFURLFunc != nil {
		return m.UpdatePDFURLFunc(ctx, id, pdfURL)
	}
	return true, nil
}

// MockSummaryRenderer is a mock implementation of invoice.SummaryRenderer.
type MockSummaryRenderer struct {
	RenderSummaryFunc func(inv invoice.EmittedInvoice, issuer invoice.Configuration) ([]byte, error)
}

// RenderSummary calls the mock function if set, otherwise returns a stub PDF header.
func (m *MockSummaryRenderer) RenderSummary(inv invoice.EmittedInvoice, issuer invoice.Configuration) ([]byte, error) {
	if m.RenderSummaryFunc != nil {
		return m.RenderSummaryFunc(inv, issuer)
	}
	return []byte("%PDF-1.4"), nil
}
