package configuration

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
	httperrors "3tcapital/ms_facturacion_ar/internal/infrastructure/http"
)

// Service is the subset of the configuration application service the handler needs.
type Service interface {
	Get(ctx context.Context) (*invoice.Configuration, error)
	Save(ctx context.Context, cfg invoice.Configuration) (*invoice.Configuration, error)
}

// Handler serves the configuration screen.
type Handler struct {
	service Service
	log     *slog.Logger
}

func NewHandler(service Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes mounts the configuration endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Put)
}

type credentialsPayload struct {
	APIToken  string `json:"apiToken"`
	APIKey    string `json:"apiKey"`
	UserToken string `json:"userToken"`
}

type configurationPayload struct {
	TaxID               string             `json:"taxId"`
	LegalName           string             `json:"legalName"`
	SalesPoint          int                `json:"salesPoint"`
	Concept             string             `json:"concept"`
	TaxRatePercent      *decimal.Decimal   `json:"taxRatePercent"`
	ActivityKind        string             `json:"activityKind"`
	DefaultDocumentType string             `json:"defaultDocumentType"`
	Credentials         credentialsPayload `json:"credentials"`
	UpdatedAt           string             `json:"updatedAt,omitempty"`
}

// toPayload always masks credentials.
func toPayload(cfg invoice.Configuration) configurationPayload {
	masked := cfg.Masked()
	rate := masked.TaxRatePercent
	payload := configurationPayload{
		TaxID:               masked.TaxID,
		LegalName:           masked.LegalName,
		SalesPoint:          masked.SalesPoint,
		Concept:             masked.Concept,
		TaxRatePercent:      &rate,
		ActivityKind:        string(masked.ActivityKind),
		DefaultDocumentType: string(masked.DefaultDocumentType),
		Credentials: credentialsPayload{
			APIToken:  masked.Credentials.APIToken,
			APIKey:    masked.Credentials.APIKey,
			UserToken: masked.Credentials.UserToken,
		},
	}
	if !masked.UpdatedAt.IsZero() {
		payload.UpdatedAt = masked.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return payload
}

func (p configurationPayload) toConfiguration() invoice.Configuration {
	cfg := invoice.Configuration{
		TaxID:               p.TaxID,
		LegalName:           p.LegalName,
		SalesPoint:          p.SalesPoint,
		Concept:             p.Concept,
		ActivityKind:        invoice.ActivityKind(p.ActivityKind),
		DefaultDocumentType: invoice.DocumentType(p.DefaultDocumentType),
		Credentials: invoice.Credentials{
			APIToken:  p.Credentials.APIToken,
			APIKey:    p.Credentials.APIKey,
			UserToken: p.Credentials.UserToken,
		},
	}
	if p.TaxRatePercent != nil {
		cfg.TaxRatePercent = *p.TaxRatePercent
	}
	return cfg
}

// Get handles GET /api/v1/configuration.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.Get(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, toPayload(*cfg), h.log)
}

// Put handles PUT /api/v1/configuration.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	var payload configurationPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&payload); err != nil {
		httperrors.WriteCodedError(w, http.StatusUnprocessableEntity, httperrors.CodeValidation,
			"Error de Validación", []string{"El cuerpo de la petición no es válido"}, h.log)
		return
	}
	if payload.TaxRatePercent == nil {
		httperrors.WriteCodedError(w, http.StatusUnprocessableEntity, httperrors.CodeValidation,
			"Error de Validación", []string{"taxRatePercent es requerido"}, h.log)
		return
	}

	saved, err := h.service.Save(r.Context(), payload.toConfiguration())
	if err != nil {
		h.handleError(w, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, toPayload(*saved), h.log)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var validationErr *invoice.ConfigurationValidationError

	switch {
	case errors.As(err, &validationErr):
		httperrors.WriteCodedError(w, http.StatusUnprocessableEntity, httperrors.CodeValidation,
			"Error de Validación", validationErr.Problems, h.log)
	case errors.Is(err, invoice.ErrConfigurationMissing):
		// The front-end shows an empty form on 404.
		httperrors.WriteCodedError(w, http.StatusNotFound, httperrors.CodeConfigurationMissing,
			"No Encontrado", []string{err.Error()}, h.log)
	default:
		h.log.Error("configuration request failed", "error", err)
		httperrors.WriteCodedError(w, http.StatusInternalServerError, httperrors.CodeInternal,
			"Error Interno del Servidor", []string{"Ha ocurrido un error interno"}, h.log)
	}
}
