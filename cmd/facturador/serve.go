package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	confighttp "3tcapital/ms_facturacion_ar/internal/adapters/http/configuration"
	healthhttp "3tcapital/ms_facturacion_ar/internal/adapters/http/health"
	invoicehttp "3tcapital/ms_facturacion_ar/internal/adapters/http/invoice"
	apphealth "3tcapital/ms_facturacion_ar/internal/application/health"
	"3tcapital/ms_facturacion_ar/internal/infrastructure/database"
	"3tcapital/ms_facturacion_ar/internal/infrastructure/http/server"
)

type serveOpts struct {
	*rootOpts
}

func serve(o *rootOpts) *serveOpts {
	return &serveOpts{rootOpts: o}
}

func (s *serveOpts) cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  s.runE,
	}
}

func (s *serveOpts) runE(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.cfg.ValidateAuth(); err != nil {
		return err
	}

	pool, err := s.openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if s.cfg.Database.AutoMigrate {
		if err := database.RunMigrations(ctx, pool, s.log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	a := s.wire(pool)
	defer a.close()

	health := apphealth.NewService(apphealth.Metadata{
		Service:     s.cfg.App.Name,
		Version:     s.cfg.App.Version,
		Environment: s.cfg.App.Environment,
	})
	health.AddCheck("database", pool)

	srv, err := server.New(server.Options{
		Config:              s.cfg,
		Logger:              s.log,
		HealthHandler:       http.HandlerFunc(healthhttp.NewHandler(health).Status),
		MetricsHandler:      promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		InvoiceRoutes:       invoicehttp.NewHandler(a.invoices, s.log),
		ConfigurationRoutes: confighttp.NewHandler(a.configuration, s.log),
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	s.log.Info("Starting HTTP server", "port", s.cfg.HTTP.Port, "auth_enabled", s.cfg.Auth.Enabled)
	return srv.Run(ctx)
}
