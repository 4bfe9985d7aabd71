package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	auditpg "3tcapital/ms_facturacion_ar/internal/adapters/audit/postgres"
	"3tcapital/ms_facturacion_ar/internal/adapters/billing/tusfacturas"
	configpg "3tcapital/ms_facturacion_ar/internal/adapters/configuration/postgres"
	invoicepg "3tcapital/ms_facturacion_ar/internal/adapters/invoice/postgres"
	"3tcapital/ms_facturacion_ar/internal/adapters/pdf"
	appconfiguration "3tcapital/ms_facturacion_ar/internal/application/configuration"
	appinvoice "3tcapital/ms_facturacion_ar/internal/application/invoice"
	"3tcapital/ms_facturacion_ar/internal/core/audit"
	"3tcapital/ms_facturacion_ar/internal/infrastructure/database"
	httpinfra "3tcapital/ms_facturacion_ar/internal/infrastructure/http"
	"3tcapital/ms_facturacion_ar/internal/infrastructure/metrics"
)

// app holds the wired services shared by the serve and emit commands.
type app struct {
	pool          *pgxpool.Pool
	registry      *prometheus.Registry
	invoices      *appinvoice.Service
	configuration *appconfiguration.Service

	billingClient *httpinfra.TracedClient
}

// close waits for in-flight audit writes. It must run before the pool closes.
func (a *app) close() {
	if a.billingClient != nil {
		a.billingClient.Wait()
	}
}

func (o *rootOpts) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	db := o.cfg.Database
	pool, err := database.NewPool(ctx, database.Config{
		URL:             db.URL,
		Host:            db.Host,
		Port:            db.Port,
		Database:        db.Database,
		User:            db.User,
		Password:        db.Password,
		SSLMode:         db.SSLMode,
		MaxOpenConns:    db.MaxOpenConns,
		MaxIdleConns:    db.MaxIdleConns,
		ConnMaxLifetime: db.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	o.log.Info("Database connection established", "database", db.Database)
	return pool, nil
}

// wire builds the application graph on top of an open pool. The caller owns
// the pool and must call close on the returned app before closing it.
func (o *rootOpts) wire(pool *pgxpool.Pool) *app {
	cfg := o.cfg

	registry := prometheus.NewRegistry()
	emissionMetrics := metrics.NewEmissionMetrics(registry, metrics.Config{
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	var auditRepo audit.Repository
	if cfg.Audit.Enabled {
		auditRepo = auditpg.NewRepository(pool, o.log)
		o.log.Info("Audit trail configuration: ENABLED", "max_body_size", cfg.Audit.MaxBodySize)
	} else {
		o.log.Info("Audit trail configuration: DISABLED")
	}

	httpClient := httpinfra.NewTracedClient(&httpinfra.TracedClientConfig{
		Timeout:         cfg.Billing.APITimeout,
		AuditEnabled:    cfg.Audit.Enabled,
		LogRequestBody:  cfg.Audit.LogRequestBody,
		LogResponseBody: cfg.Audit.LogResponseBody,
		MaxBodySize:     cfg.Audit.MaxBodySize,
	}, o.log, auditRepo, tusfacturas.Name)

	breaker := tusfacturas.NewCircuitBreaker(
		cfg.Billing.BreakerMaxFailures,
		cfg.Billing.BreakerFailureThreshold,
		cfg.Billing.BreakerCooldown,
	)
	breaker.OnStateChange = func(from, to tusfacturas.CircuitBreakerState) {
		o.log.Warn("Billing API circuit breaker changed state", "from", from.String(), "to", to.String())
		emissionMetrics.SetBreakerState(tusfacturas.Name, to.String())
	}
	emissionMetrics.SetBreakerState(tusfacturas.Name, breaker.State().String())

	gateway := tusfacturas.NewClient(cfg.Billing.BaseURL, httpClient, breaker, o.log)
	o.log.Info("TusFacturas gateway configured", "baseURL", cfg.Billing.BaseURL, "timeout", cfg.Billing.APITimeout)

	configStore := configpg.NewRepository(pool)
	invoices := appinvoice.NewService(
		configStore,
		gateway,
		invoicepg.NewRepository(pool),
		o.log,
		appinvoice.WithLocation(cfg.Billing.Location()),
		appinvoice.WithSummaryRenderer(pdf.NewSummaryRenderer()),
	)
	invoices.Subscribe(emissionMetrics.Observe)

	return &app{
		pool:          pool,
		registry:      registry,
		invoices:      invoices,
		configuration: appconfiguration.NewService(configStore, o.log),
		billingClient: httpClient,
	}
}
