package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"3tcapital/ms_facturacion_ar/internal/infrastructure/config"
	httperrors "3tcapital/ms_facturacion_ar/internal/infrastructure/http"
	"3tcapital/ms_facturacion_ar/internal/infrastructure/http/middleware"
)

// RouteMounter registers a resource's endpoints on a sub-router.
type RouteMounter interface {
	Routes(r chi.Router)
}

// Options groups the collaborators the HTTP server needs.
type Options struct {
	Config              config.AppConfig
	Logger              *slog.Logger
	HealthHandler       http.Handler
	MetricsHandler      http.Handler
	InvoiceRoutes       RouteMounter
	ConfigurationRoutes RouteMounter
}

// Server wraps the chi router and the underlying http.Server.
type Server struct {
	cfg        config.AppConfig
	log        *slog.Logger
	httpServer *http.Server
	auth       *middleware.JWTAuthenticator
}

// New builds the router. Resources without a handler answer 503 so a partial
// wiring is visible instead of a silent 404.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}

	auth, err := middleware.NewJWTAuthenticator(opts.Config.Auth, opts.Logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(auth.Middleware)

	r.Method(http.MethodGet, "/health", opts.HealthHandler)
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	unavailable := unavailableHandler(opts.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/invoices", func(r chi.Router) {
			r.Use(middleware.Timeout(opts.Config.HTTP.EmitTimeout))
			if opts.InvoiceRoutes == nil {
				r.Handle("/*", unavailable)
				r.Handle("/", unavailable)
				return
			}
			opts.InvoiceRoutes.Routes(r)
		})
		r.Route("/configuration", func(r chi.Router) {
			if opts.ConfigurationRoutes == nil {
				r.Handle("/", unavailable)
				return
			}
			opts.ConfigurationRoutes.Routes(r)
		})
	})

	srv := &http.Server{
		Addr:         opts.Config.HTTP.Address(),
		Handler:      r,
		ReadTimeout:  opts.Config.HTTP.ReadTimeout,
		WriteTimeout: opts.Config.HTTP.WriteTimeout,
		IdleTimeout:  opts.Config.HTTP.IdleTimeout,
	}

	return &Server{cfg: opts.Config, log: opts.Logger, httpServer: srv, auth: auth}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases background resources such as the JWKS refresher.
func (s *Server) Close() {
	if s.auth != nil {
		s.auth.Close()
	}
}

func unavailableHandler(log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteCodedError(w, http.StatusServiceUnavailable, httperrors.CodeGatewayUnavailable,
			"Servicio No Disponible", []string{"El recurso no está configurado"}, log)
	})
}
