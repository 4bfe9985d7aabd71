package health

import (
	"net/http"

	apphealth "3tcapital/ms_facturacion_ar/internal/application/health"
	httpinfra "3tcapital/ms_facturacion_ar/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service *apphealth.Service
}

func NewHandler(service *apphealth.Service) *Handler {
	return &Handler{service: service}
}

// Status answers 200 when every dependency is up and 503 otherwise, so load
// balancers stop routing emissions to an instance that cannot store them.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status(r.Context())

	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	httpinfra.WriteJSON(w, code, status, nil)
}
