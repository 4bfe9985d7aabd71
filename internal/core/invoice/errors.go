package invoice

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfigurationMissing is returned when no configuration has been saved yet.
	ErrConfigurationMissing = errors.New("no hay configuración de facturación cargada")

	// ErrNotFound is returned when an invoice does not exist.
	ErrNotFound = errors.New("comprobante no encontrado")

	// ErrPDFAlreadySet is returned when backfilling a PDF URL that is already stored.
	ErrPDFAlreadySet = errors.New("el comprobante ya tiene un PDF asociado")

	// ErrGatewayUnavailable is wrapped by gateway errors raised without
	// contacting the billing API, such as an open circuit breaker.
	ErrGatewayUnavailable = errors.New("el servicio de facturación no está disponible temporalmente")

	// ErrInvalidTransition is returned by Lifecycle on an illegal state change.
	ErrInvalidTransition = errors.New("invalid emission state transition")
)

// ConfigurationIncompleteError reports identity or credential fields that are empty.
type ConfigurationIncompleteError struct {
	Fields []string
}

func (e *ConfigurationIncompleteError) Error() string {
	return fmt.Sprintf("configuración incompleta: faltan %s", strings.Join(e.Fields, ", "))
}

// ConfigurationValidationError lists every problem found when saving a configuration.
type ConfigurationValidationError struct {
	Problems []string
}

func (e *ConfigurationValidationError) Error() string {
	return "configuración inválida: " + strings.Join(e.Problems, "; ")
}

// InvalidFieldError reports a malformed request field.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return e.Field + ": " + e.Reason
}

// PeriodError is returned when a totals period ends before it starts.
type PeriodError struct {
	From, To string
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("período inválido: %s es posterior a %s", e.From, e.To)
}

// FutureDateError is returned when the invoice date is after today.
type FutureDateError struct{}

func (e *FutureDateError) Error() string {
	return "la fecha del comprobante no puede ser futura"
}

// WindowExceededError is returned when the invoice date is older than the
// backdating window allowed for the activity.
type WindowExceededError struct {
	MaxDays  int
	DaysDiff int
}

func (e *WindowExceededError) Error() string {
	return fmt.Sprintf("la fecha del comprobante no puede tener más de %d días de antigüedad (tiene %d)", e.MaxDays, e.DaysDiff)
}

// InvalidAmountError is returned for amounts that are not positive or carry
// more than two fractional digits.
type InvalidAmountError struct {
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return "monto inválido: " + e.Reason
}

// EmissionError wraps any failure reported by the billing API. Nothing was
// issued, so resubmitting is safe.
type EmissionError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *EmissionError) Error() string {
	return e.Message
}

func (e *EmissionError) Unwrap() error {
	return e.Err
}

// UnconfirmedEmissionError is returned when the request may have reached the
// billing API but no reply was read. The invoice may have been issued.
type UnconfirmedEmissionError struct {
	Err error
}

func (e *UnconfirmedEmissionError) Error() string {
	return "no se obtuvo respuesta del servicio de facturación: verifique en TusFacturas si el comprobante fue emitido antes de volver a enviarlo"
}

func (e *UnconfirmedEmissionError) Unwrap() error {
	return e.Err
}

// PersistenceError is returned when the billing API issued the invoice but it
// could not be stored locally. The invoice exists on the regulator's side and
// must not be emitted again.
type PersistenceError struct {
	Invoice EmittedInvoice
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("comprobante %s emitido (CAE %s) pero no pudo guardarse: %v",
		e.Invoice.DocumentNumber, e.Invoice.AuthorizationCode, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsRetrySafe reports whether the operation that produced err can be
// resubmitted without risk of issuing a second invoice.
func IsRetrySafe(err error) bool {
	if err == nil {
		return true
	}
	var (
		persistErr     *PersistenceError
		unconfirmedErr *UnconfirmedEmissionError
	)
	return !errors.As(err, &persistErr) && !errors.As(err, &unconfirmedErr)
}

// IsValidationError reports whether err is an input validation failure.
func IsValidationError(err error) bool {
	var (
		futureErr *FutureDateError
		windowErr *WindowExceededError
		amountErr *InvalidAmountError
		configErr *ConfigurationValidationError
		periodErr *PeriodError
		fieldErr  *InvalidFieldError
	)
	return errors.As(err, &futureErr) ||
		errors.As(err, &windowErr) ||
		errors.As(err, &amountErr) ||
		errors.As(err, &configErr) ||
		errors.As(err, &periodErr) ||
		errors.As(err, &fieldErr)
}
