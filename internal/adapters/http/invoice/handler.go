package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
	ctxutil "3tcapital/ms_facturacion_ar/internal/infrastructure/context"
	httperrors "3tcapital/ms_facturacion_ar/internal/infrastructure/http"
)

const maxBodyBytes = 1 << 16

// Service is the subset of the invoice application service the handler needs.
type Service interface {
	EmitInvoice(ctx context.Context, input invoice.FormInput) (*invoice.EmittedInvoice, error)
	ListInvoices(ctx context.Context, query invoice.ListQuery) ([]invoice.EmittedInvoice, error)
	PeriodTotals(ctx context.Context, from, to *time.Time) (*invoice.PeriodTotals, error)
	GetInvoice(ctx context.Context, id string) (*invoice.EmittedInvoice, error)
	BackfillPDF(ctx context.Context, id, pdfURL string) (*invoice.EmittedInvoice, error)
	SummaryPDF(ctx context.Context, id string) ([]byte, *invoice.EmittedInvoice, error)
}

// Handler bridges HTTP traffic with the invoice application service.
type Handler struct {
	service Service
	log     *slog.Logger
}

// NewHandler creates a new invoice HTTP handler.
func NewHandler(service Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes mounts the invoice endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Emit)
	r.Get("/", h.List)
	r.Get("/totals", h.Totals)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/pdf", h.BackfillPDF)
	r.Get("/{id}/summary.pdf", h.SummaryPDF)
}

// Emit handles POST /api/v1/invoices.
func (h *Handler) Emit(w http.ResponseWriter, r *http.Request) {
	var body emitRequest
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeValidation(w, []string{"El cuerpo de la petición no es válido"})
		return
	}

	var problems []string
	if body.Amount == nil {
		problems = append(problems, "amount es requerido")
	}
	date, err := parseDate(body.Date)
	if err != nil {
		problems = append(problems, "date debe tener formato AAAA-MM-DD")
	}
	if len(problems) > 0 {
		h.writeValidation(w, problems)
		return
	}

	inv, err := h.service.EmitInvoice(r.Context(), invoice.FormInput{Amount: *body.Amount, Date: date})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusCreated, toInvoiceResponse(*inv), h.log)
}

// List handles GET /api/v1/invoices?from=&to=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	query := invoice.ListQuery{From: from, To: to}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.handleError(w, r, &invoice.InvalidFieldError{Field: "limit", Reason: "debe ser un número entero"})
			return
		}
		query.Limit = limit
	}

	invoices, err := h.service.ListInvoices(r.Context(), query)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := listResponse{Total: len(invoices), Data: make([]invoiceResponse, 0, len(invoices))}
	for _, inv := range invoices {
		resp.Data = append(resp.Data, toInvoiceResponse(inv))
	}
	httperrors.WriteJSON(w, http.StatusOK, resp, h.log)
}

// Totals handles GET /api/v1/invoices/totals?from=&to=.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	totals, err := h.service.PeriodTotals(r.Context(), from, to)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, toTotalsResponse(*totals), h.log)
}

// Get handles GET /api/v1/invoices/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, toInvoiceResponse(*inv), h.log)
}

// BackfillPDF handles PATCH /api/v1/invoices/{id}/pdf.
func (h *Handler) BackfillPDF(w http.ResponseWriter, r *http.Request) {
	var body backfillRequest
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeValidation(w, []string{"El cuerpo de la petición no es válido"})
		return
	}

	inv, err := h.service.BackfillPDF(r.Context(), chi.URLParam(r, "id"), body.PDFURL)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, toInvoiceResponse(*inv), h.log)
}

// SummaryPDF handles GET /api/v1/invoices/{id}/summary.pdf.
func (h *Handler) SummaryPDF(w http.ResponseWriter, r *http.Request) {
	pdf, inv, err := h.service.SummaryPDF(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	name := inv.DocumentNumber
	if name == "" {
		name = inv.ID
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="comprobante-%s.pdf"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.log.Warn("failed to write summary pdf", "id", inv.ID, "error", err)
	}
}

func (h *Handler) writeValidation(w http.ResponseWriter, problems []string) {
	httperrors.WriteCodedError(w, http.StatusUnprocessableEntity, httperrors.CodeValidation, "Error de Validación", problems, h.log)
}

// handleError maps service errors to HTTP responses.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	correlationID := ctxutil.GetCorrelationID(r.Context())

	var (
		incompleteErr  *invoice.ConfigurationIncompleteError
		emissionErr    *invoice.EmissionError
		unconfirmedErr *invoice.UnconfirmedEmissionError
		persistenceErr *invoice.PersistenceError
	)

	switch {
	case invoice.IsValidationError(err):
		h.log.Warn("invoice request rejected", "correlation_id", correlationID, "error", err)
		h.writeValidation(w, []string{err.Error()})

	case errors.Is(err, invoice.ErrConfigurationMissing):
		httperrors.WriteCodedError(w, http.StatusConflict, httperrors.CodeConfigurationMissing,
			"Error de Configuración", []string{err.Error()}, h.log)

	case errors.As(err, &incompleteErr):
		httperrors.WriteCodedError(w, http.StatusConflict, httperrors.CodeConfigurationIncomplete,
			"Error de Configuración", []string{err.Error()}, h.log)

	case errors.Is(err, invoice.ErrNotFound):
		httperrors.WriteCodedError(w, http.StatusNotFound, httperrors.CodeNotFound,
			"No Encontrado", []string{err.Error()}, h.log)

	case errors.Is(err, invoice.ErrPDFAlreadySet):
		httperrors.WriteCodedError(w, http.StatusConflict, httperrors.CodeConflict,
			"Conflicto", []string{err.Error()}, h.log)

	case errors.Is(err, invoice.ErrGatewayUnavailable):
		h.log.Warn("billing API unavailable", "correlation_id", correlationID, "error", err)
		httperrors.WriteCodedError(w, http.StatusServiceUnavailable, httperrors.CodeGatewayUnavailable,
			"Servicio No Disponible", []string{invoice.ErrGatewayUnavailable.Error()}, h.log)

	case errors.As(err, &unconfirmedErr):
		h.log.Error("invoice emission unconfirmed", "correlation_id", correlationID, "error", err)
		httperrors.WriteCodedError(w, http.StatusGatewayTimeout, httperrors.CodeEmissionUnconfirmed,
			"Emisión Sin Confirmar", []string{unconfirmedErr.Error()}, h.log)

	case errors.As(err, &emissionErr):
		h.log.Error("invoice emission failed", "correlation_id", correlationID, "status", emissionErr.StatusCode, "error", err)
		httperrors.WriteCodedError(w, http.StatusBadGateway, httperrors.CodeEmissionFailed,
			"Error del Proveedor", []string{emissionErr.Message}, h.log)

	case errors.As(err, &persistenceErr):
		h.log.Error("invoice issued but not stored", "correlation_id", correlationID, "error", err)
		httperrors.WriteJSON(w, http.StatusInternalServerError, persistenceErrorResponse{
			Message: "Comprobante Emitido Sin Registrar",
			Errors:  []string{err.Error()},
			Code:    httperrors.CodePersistenceFailed,
			Issued:  true,
			Invoice: toInvoiceResponse(persistenceErr.Invoice),
		}, h.log)

	default:
		h.log.Error("unexpected error", "correlation_id", correlationID, "path", r.URL.Path, "error", err)
		httperrors.WriteCodedError(w, http.StatusInternalServerError, httperrors.CodeInternal,
			"Error Interno del Servidor", []string{"Ha ocurrido un error interno"}, h.log)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// parseDate reads a YYYY-MM-DD calendar date as UTC midnight.
func parseDate(raw string) (time.Time, error) {
	return time.Parse(invoice.DateLayout, strings.TrimSpace(raw))
}

func parseRange(r *http.Request) (from, to *time.Time, err error) {
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return nil, nil, &invoice.InvalidFieldError{Field: "from", Reason: "debe tener formato AAAA-MM-DD"}
		}
		from = &d
	}
	if raw := q.Get("to"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return nil, nil, &invoice.InvalidFieldError{Field: "to", Reason: "debe tener formato AAAA-MM-DD"}
		}
		to = &d
	}
	return from, to, nil
}
