package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes returned in ErrorResponse.Code. The front-end switches on them
// to decide whether the operator may resubmit.
const (
	CodeValidation              = "VALIDATION_ERROR"
	CodeConfigurationMissing    = "CONFIGURATION_MISSING"
	CodeConfigurationIncomplete = "CONFIGURATION_INCOMPLETE"
	CodeEmissionFailed          = "EMISSION_FAILED"
	CodeEmissionUnconfirmed     = "EMISSION_UNCONFIRMED"
	CodeGatewayUnavailable      = "GATEWAY_UNAVAILABLE"
	CodePersistenceFailed       = "PERSISTENCE_FAILED"
	CodeNotFound                = "NOT_FOUND"
	CodeConflict                = "CONFLICT"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeInternal                = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized error response format.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
	Code    string   `json:"code,omitempty"`
}

// WriteError writes a standardized JSON error response without a code.
func WriteError(w http.ResponseWriter, statusCode int, message string, errors []string, log *slog.Logger) {
	WriteCodedError(w, statusCode, "", message, errors, log)
}

// WriteCodedError writes a standardized JSON error response.
func WriteCodedError(w http.ResponseWriter, statusCode int, code, message string, errors []string, log *slog.Logger) {
	if errors == nil {
		errors = []string{}
	}
	WriteJSON(w, statusCode, ErrorResponse{
		Message: message,
		Errors:  errors,
		Code:    code,
	}, log)
}

// WriteJSON encodes body as the JSON response with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, body any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		// The status line is already written; nothing else can be sent.
		if log != nil {
			log.Error("failed to encode response", "error", err)
		}
	}
}
