package metrics

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
)

// Emission outcomes. Rejection messages never become labels.
const (
	OutcomeSuccess       = "success"
	OutcomeValidation    = "validation"
	OutcomeConfiguration = "configuration"
	OutcomeRejected      = "rejected"
	OutcomeUnavailable   = "unavailable"
	OutcomeUnconfirmed   = "unconfirmed"
	OutcomePersistence   = "persistence"
	OutcomeInternal      = "internal"
)

// Config carries the constant labels attached to every series.
type Config struct {
	ServiceName string
	Environment string
}

// EmissionMetrics records invoice emissions and the billing gateway state.
type EmissionMetrics struct {
	emissions    *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	inFlight     prometheus.Gauge
	breakerState *prometheus.GaugeVec
}

// NewEmissionMetrics creates and registers the emission collectors.
func NewEmissionMetrics(registerer prometheus.Registerer, cfg Config) *EmissionMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "facturador"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &EmissionMetrics{
		emissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "facturador_invoice_emissions_total",
			Help:        "Invoice emissions by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "facturador_invoice_emission_duration_seconds",
			Help:        "Time from submission to a terminal state, billing API round trip included.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "facturador_invoice_emissions_in_flight",
			Help:        "Emissions currently waiting on the billing API.",
			ConstLabels: constLabels,
		}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "facturador_gateway_circuit_state",
			Help:        "Billing gateway circuit state: 0 closed, 1 half open, 2 open.",
			ConstLabels: constLabels,
		}, []string{"gateway"}),
	}

	registerer.MustRegister(m.emissions, m.duration, m.inFlight, m.breakerState)
	return m
}

// Observe is an invoice.Observer feeding the emission collectors.
func (m *EmissionMetrics) Observe(t invoice.Transition) {
	switch t.To {
	case invoice.StateLoading:
		m.inFlight.Inc()
	case invoice.StateSuccess, invoice.StateError:
		m.inFlight.Dec()
		outcome := ClassifyOutcome(t.Err)
		m.emissions.WithLabelValues(outcome).Inc()
		m.duration.WithLabelValues(outcome).Observe(t.Duration.Seconds())
	}
}

// SetBreakerState records the circuit state of gateway. state is one of
// "closed", "half_open" or "open".
func (m *EmissionMetrics) SetBreakerState(gateway, state string) {
	var value float64
	switch state {
	case "half_open":
		value = 1
	case "open":
		value = 2
	}
	m.breakerState.WithLabelValues(gateway).Set(value)
}

// ClassifyOutcome maps an emission error to its outcome label.
func ClassifyOutcome(err error) string {
	var (
		incompleteErr  *invoice.ConfigurationIncompleteError
		emissionErr    *invoice.EmissionError
		unconfirmedErr *invoice.UnconfirmedEmissionError
		persistenceErr *invoice.PersistenceError
	)

	switch {
	case err == nil:
		return OutcomeSuccess
	case invoice.IsValidationError(err):
		return OutcomeValidation
	case errors.Is(err, invoice.ErrConfigurationMissing), errors.As(err, &incompleteErr):
		return OutcomeConfiguration
	case errors.Is(err, invoice.ErrGatewayUnavailable):
		return OutcomeUnavailable
	case errors.As(err, &unconfirmedErr):
		return OutcomeUnconfirmed
	case errors.As(err, &emissionErr):
		return OutcomeRejected
	case errors.As(err, &persistenceErr):
		return OutcomePersistence
	default:
		return OutcomeInternal
	}
}
