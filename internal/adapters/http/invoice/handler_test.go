package invoice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
	"3tcapital/ms_facturacion_ar/internal/testutil"
)

type fakeService struct {
	emitFunc     func(ctx context.Context, input invoice.FormInput) (*invoice.EmittedInvoice, error)
	listFunc     func(ctx context.Context, query invoice.ListQuery) ([]invoice.EmittedInvoice, error)
	totalsFunc   func(ctx context.Context, from, to *time.Time) (*invoice.PeriodTotals, error)
	getFunc      func(ctx context.Context, id string) (*invoice.EmittedInvoice, error)
	backfillFunc func(ctx context.Context, id, pdfURL string) (*invoice.EmittedInvoice, error)
	summaryFunc  func(ctx context.Context, id string) ([]byte, *invoice.EmittedInvoice, error)
}

func (f *fakeService) EmitInvoice(ctx context.Context, input invoice.FormInput) (*invoice.EmittedInvoice, error) {
	return f.emitFunc(ctx, input)
}

func (f *fakeService) ListInvoices(ctx context.Context, query invoice.ListQuery) ([]invoice.EmittedInvoice, error) {
	return f.listFunc(ctx, query)
}

func (f *fakeService) PeriodTotals(ctx context.Context, from, to *time.Time) (*invoice.PeriodTotals, error) {
	return f.totalsFunc(ctx, from, to)
}

func (f *fakeService) GetInvoice(ctx context.Context, id string) (*invoice.EmittedInvoice, error) {
	return f.getFunc(ctx, id)
}

func (f *fakeService) BackfillPDF(ctx context.Context, id, pdfURL string) (*invoice.EmittedInvoice, error) {
	return f.backfillFunc(ctx, id, pdfURL)
}

func (f *fakeService) SummaryPDF(ctx context.Context, id string) ([]byte, *invoice.EmittedInvoice, error) {
	return f.summaryFunc(ctx, id)
}

const invoiceID = "7d1f3c2a-9b7e-4c55-8a43-1f6f3d2b9e01"

func issuedInvoice() invoice.EmittedInvoice {
	expiry := time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)
	return invoice.EmittedInvoice{
		ID:                  invoiceID,
		DocumentNumber:      "00004-00000123",
		AuthorizationCode:   "70123456789012",
		AuthorizationExpiry: &expiry,
		Amount:              decimal.RequireFromString("826.45"),
		Date:                time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		DocumentType:        invoice.DocumentTypeB,
		SalesPoint:          4,
		CreatedAt:           time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC),
	}
}

func serve(t *testing.T, svc Service, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api/v1/invoices", NewHandler(svc, testutil.NewNullLogger()).Routes)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Emit_Success(t *testing.T) {
	var got invoice.FormInput
	svc := &fakeService{emitFunc: func(_ context.Context, input invoice.FormInput) (*invoice.EmittedInvoice, error) {
		got = input
		inv := issuedInvoice()
		return &inv, nil
	}}

	req := testutil.CreateRequest(http.MethodPost, "/api/v1/invoices", `{"amount":"826.45","date":"2026-10-15"}`, nil)
	w := serve(t, svc, req)

	var body map[string]any
	testutil.ReadJSONResponse(t, w, http.StatusCreated, &body)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("826.45")))
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), got.Date)

	assert.Equal(t, "00004-00000123", body["documentNumber"])
	assert.Equal(t, "70123456789012", body["authorizationCode"])
	assert.Equal(t, "2026-10-25", body["authorizationExpiry"])
	assert.Equal(t, "826.45", body["amount"])
	assert.Equal(t, "2026-10-15", body["date"])
	assert.Nil(t, body["pdfUrl"])
}

func TestHandler_Emit_AcceptsNumericAmount(t *testing.T) {
	svc := &fakeService{emitFunc: func(_ context.Context, input invoice.FormInput) (*invoice.EmittedInvoice, error) {
		assert.True(t, input.Amount.Equal(decimal.NewFromInt(1210)))
		inv := issuedInvoice()
		return &inv, nil
	}}

	w := serve(t, svc, testutil.CreateRequest(http.MethodPost, "/api/v1/invoices", `{"amount":1210,"date":"2026-10-15"}`, nil))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandler_Emit_BadBody(t *testing.T) {
	svc := &fakeService{emitFunc: func(context.Context, invoice.FormInput) (*invoice.EmittedInvoice, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}

	tests := []struct {
		name string
		body string
		want []any
	}{
		{"not json", `{`, []any{"El cuerpo de la petición no es válido"}},
		{"missing fields", `{}`, []any{"amount es requerido", "date debe tener formato AAAA-MM-DD"}},
		{"bad date", `{"amount":"10","date":"15/10/2026"}`, []any{"date debe tener formato AAAA-MM-DD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, svc, testutil.CreateRequest(http.MethodPost, "/api/v1/invoices", tt.body, nil))

			require.Equal(t, http.StatusUnprocessableEntity, w.Code)
			body := testutil.ReadErrorResponse(t, w)
			assert.Equal(t, "VALIDATION_ERROR", body["code"])
			assert.Equal(t, tt.want, body["errors"])
		})
	}
}

func TestHandler_Emit_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"future date", &invoice.FutureDateError{}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"window exceeded", &invoice.WindowExceededError{MaxDays: 10, DaysDiff: 11}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"invalid amount", &invoice.InvalidAmountError{Reason: "debe ser mayor a cero"}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"configuration missing", invoice.ErrConfigurationMissing, http.StatusConflict, "CONFIGURATION_MISSING"},
		{"configuration incomplete", &invoice.ConfigurationIncompleteError{Fields: []string{"apiKey"}}, http.StatusConflict, "CONFIGURATION_INCOMPLETE"},
		{"emission rejected", &invoice.EmissionError{Message: "CUIT inválido", StatusCode: 200}, http.StatusBadGateway, "EMISSION_FAILED"},
		{
			"circuit open",
			&invoice.EmissionError{Message: "x", Err: fmt.Errorf("circuit breaker is open: %w", invoice.ErrGatewayUnavailable)},
			http.StatusServiceUnavailable,
			"GATEWAY_UNAVAILABLE",
		},
		{
			"emission unconfirmed",
			&invoice.UnconfirmedEmissionError{Err: errors.New("send billing request: context deadline exceeded")},
			http.StatusGatewayTimeout,
			"EMISSION_UNCONFIRMED",
		},
		{"unexpected", errors.New("load configuration: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{emitFunc: func(context.Context, invoice.FormInput) (*invoice.EmittedInvoice, error) {
				return nil, tt.err
			}}

			w := serve(t, svc, testutil.CreateRequest(http.MethodPost, "/api/v1/invoices", `{"amount":"10","date":"2026-10-15"}`, nil))

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			body := testutil.ReadErrorResponse(t, w)
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}

func TestHandler_Emit_EmissionMessageIsShown(t *testing.T) {
	svc := &fakeService{emitFunc: func(context.Context, invoice.FormInput) (*invoice.EmittedInvoice, error) {
		return nil, &invoice.EmissionError{Message: "CUIT inválido, Punto de venta no habilitado"}
	}}

	w := serve(t, svc, testutil.CreateRequest(http.MethodPost, "/api/v1/invoices", `{"amount":"10","date":"2026-10-15"}`, nil))

	body := testutil.ReadErrorResponse(t, w)
	assert.Equal(t, []any{"CUIT inválido, Punto de venta no habilitado"}, body["errors"])
}

func TestHandler_Emit_PersistenceFailureReportsIssuedInvoice(t *testing.T) {
	svc := &fakeService{emitFunc: func(context.Context, invoice.FormInput) (*invoice.EmittedInvoice, error) {
		return nil, &invoice.PersistenceError{Invoice: issuedInvoice(), Err: errors.New("insert invoice: timeout")}
	}}

	w := serve(t, svc, testutil.CreateRequest(http.MethodPost, "/api/v1/invoices", `{"amount":"826.45","date":"2026-10-15"}`, nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := testutil.ReadErrorResponse(t, w)
	assert.Equal(t, "PERSISTENCE_FAILED", body["code"])
	assert.Equal(t, true, body["issued"])
	inv := body["invoice"].(map[string]any)
	assert.Equal(t, "00004-00000123", inv["documentNumber"])
	assert.Equal(t, "70123456789012", inv["authorizationCode"])
}

func TestHandler_List(t *testing.T) {
	var got invoice.ListQuery
	svc := &fakeService{listFunc: func(_ context.Context, q invoice.ListQuery) ([]invoice.EmittedInvoice, error) {
		got = q
		return []invoice.EmittedInvoice{issuedInvoice()}, nil
	}}

	w := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/v1/invoices?from=2026-10-01&to=2026-10-31&limit=20", nil))

	var body struct {
		Total int              `json:"total"`
		Data  []map[string]any `json:"data"`
	}
	testutil.ReadJSONResponse(t, w, http.StatusOK, &body)
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, invoiceID, body.Data[0]["id"])
	assert.Equal(t, 20, got.Limit)
	require.NotNil(t, got.From)
	require.NotNil(t, got.To)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), *got.From)
	assert.Equal(t, time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC), *got.To)
}

func TestHandler_List_EmptyIsArray(t *testing.T) {
	svc := &fakeService{listFunc: func(context.Context, invoice.ListQuery) ([]invoice.EmittedInvoice, error) {
		return nil, nil
	}}

	w := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":0,"data":[]}`, w.Body.String())
}

func TestHandler_List_InvalidQuery(t *testing.T) {
	svc := &fakeService{}

	for _, path := range []string{
		"/api/v1/invoices?from=yesterday",
		"/api/v1/invoices?to=2026-13-01",
		"/api/v1/invoices?limit=ten",
	} {
		w := serve(t, svc, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, path)
	}
}

func TestHandler_Totals(t *testing.T) {
	svc := &fakeService{totalsFunc: func(_ context.Context, from, to *time.Time) (*invoice.PeriodTotals, error) {
		assert.Nil(t, from)
		assert.Nil(t, to)
		return &invoice.PeriodTotals{
			Period: invoice.Period{
				From: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC),
			},
			Count:  3,
			Amount: decimal.RequireFromString("2826.45"),
			ByType: []invoice.TypeTotal{
				{DocumentType: invoice.DocumentTypeB, Count: 2, Amount: decimal.RequireFromString("1826.45")},
				{DocumentType: invoice.DocumentTypeC, Count: 1, Amount: decimal.NewFromInt(1000)},
			},
		}, nil
	}}

	w := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/totals", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"from": "2026-10-01",
		"to": "2026-10-31",
		"count": 3,
		"amount": "2826.45",
		"byType": [
			{"documentType": "INVOICE_B", "count": 2, "amount": "1826.45"},
			{"documentType": "INVOICE_C", "count": 1, "amount": "1000.00"}
		]
	}`, w.Body.String())
}

func TestHandler_Totals_InvertedPeriod(t *testing.T) {
	svc := &fakeService{totalsFunc: func(context.Context, *time.Time, *time.Time) (*invoice.PeriodTotals, error) {
		return nil, &invoice.PeriodError{From: "2026-10-31", To: "2026-10-01"}
	}}

	w := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/totals?from=2026-10-31&to=2026-10-01", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandler_Get(t *testing.T) {
	svc := &fakeService{getFunc: func(_ context.Context, id string) (*invoice.EmittedInvoice, error) {
		if id != invoiceID {
			return nil, invoice.ErrNotFound
		}
		inv := issuedInvoice()
		return &inv, nil
	}}

	t.Run("found", func(t *testing.T) {
		w := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+invoiceID, nil))
		var body map[string]any
		testutil.ReadJSONResponse(t, w, http.StatusOK, &body)
		assert.Equal(t, invoiceID, body["id"])
	})

	t.Run("not found", func(t *testing.T) {
		w := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/other", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", testutil.ReadErrorResponse(t, w)["code"])
	})
}

func TestHandler_BackfillPDF(t *testing.T) {
	t.Run("stored", func(t *testing.T) {
		svc := &fakeService{backfillFunc: func(_ context.Context, id, pdfURL string) (*invoice.EmittedInvoice, error) {
			assert.Equal(t, invoiceID, id)
			inv := issuedInvoice()
			inv.PDFURL = &pdfURL
			return &inv, nil
		}}

		req := testutil.CreateRequest(http.MethodPatch, "/api/v1/invoices/"+invoiceID+"/pdf", map[string]string{"pdfUrl": "https://cdn.test/a.pdf"}, nil)
		w := serve(t, svc, req)

		var body map[string]any
		testutil.ReadJSONResponse(t, w, http.StatusOK, &body)
		assert.Equal(t, "https://cdn.test/a.pdf", body["pdfUrl"])
	})

	t.Run("already set", func(t *testing.T) {
		svc := &fakeService{backfillFunc: func(context.Context, string, string) (*invoice.EmittedInvoice, error) {
			return nil, invoice.ErrPDFAlreadySet
		}}

		req := testutil.CreateRequest(http.MethodPatch, "/api/v1/invoices/"+invoiceID+"/pdf", map[string]string{"pdfUrl": "https://cdn.test/b.pdf"}, nil)
		w := serve(t, svc, req)

		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "CONFLICT", testutil.ReadErrorResponse(t, w)["code"])
	})

	t.Run("invalid url", func(t *testing.T) {
		svc := &fakeService{backfillFunc: func(context.Context, string, string) (*invoice.EmittedInvoice, error) {
			return nil, &invoice.InvalidFieldError{Field: "pdfUrl", Reason: "debe ser una URL http(s) válida"}
		}}

		req := testutil.CreateRequest(http.MethodPatch, "/api/v1/invoices/"+invoiceID+"/pdf", map[string]string{"pdfUrl": "ftp://x"}, nil)
		w := serve(t, svc, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestHandler_SummaryPDF(t *testing.T) {
	svc := &fakeService{summaryFunc: func(context.Context, string) ([]byte, *invoice.EmittedInvoice, error) {
		inv := issuedInvoice()
		return []byte("%PDF-1.3 fake"), &inv, nil
	}}

	w := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+invoiceID+"/summary.pdf", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="comprobante-00004-00000123.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3 fake", w.Body.String())
}
