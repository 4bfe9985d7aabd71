package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"3tcapital/ms_facturacion_ar/internal/infrastructure/config"
	ctxutil "3tcapital/ms_facturacion_ar/internal/infrastructure/context"
	httperrors "3tcapital/ms_facturacion_ar/internal/infrastructure/http"
)

const (
	jwksRefreshInterval = 6 * time.Hour
	jwksFetchTimeout    = 10 * time.Second
)

var signingMethods = []string{
	jwt.SigningMethodRS256.Alg(),
	jwt.SigningMethodRS384.Alg(),
	jwt.SigningMethodRS512.Alg(),
	jwt.SigningMethodPS256.Alg(),
	jwt.SigningMethodES256.Alg(),
}

var (
	errMissingBearer = errors.New("missing Authorization header")
	errMalformed     = errors.New("invalid Authorization header format")
)

// JWTAuthenticator admits operators carrying a bearer token issued by the
// configured identity provider. The token subject is stored in the request
// context as the operator.
type JWTAuthenticator struct {
	enabled bool
	log     *slog.Logger
	jwks    keyfunc.Keyfunc
	parser  *jwt.Parser
	stop    context.CancelFunc
	open    []string
}

// NewJWTAuthenticator loads the provider's key set when auth is enabled. The
// key set is refreshed in the background until Close.
func NewJWTAuthenticator(cfg config.AuthSettings, log *slog.Logger) (*JWTAuthenticator, error) {
	a := &JWTAuthenticator{enabled: cfg.Enabled, log: log}
	for _, p := range cfg.BypassPaths {
		if p = strings.TrimRight(p, "/"); p != "" {
			a.open = append(a.open, p)
		}
	}
	if !cfg.Enabled {
		return a, nil
	}

	ctx, stop := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultOverrideCtx(ctx, []string{cfg.JWKSetURI}, keyfunc.Override{
		RefreshInterval: jwksRefreshInterval,
		HTTPTimeout:     jwksFetchTimeout,
		RefreshErrorHandlerFunc: func(url string) func(context.Context, error) {
			return func(_ context.Context, err error) {
				log.Error("JWKS refresh failed", "url", url, "error", err)
			}
		},
	})
	if err != nil {
		stop()
		return nil, fmt.Errorf("load JWKS from %s: %w", cfg.JWKSetURI, err)
	}

	a.jwks = jwks
	a.stop = stop
	a.parser = jwt.NewParser(
		jwt.WithIssuer(cfg.IssuerURI),
		jwt.WithLeeway(cfg.ClockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods(signingMethods),
	)
	return a, nil
}

// Middleware rejects requests without a valid token with 401, except on the
// bypass paths and their subpaths.
func (a *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	if !a.enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isOpen(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		operator, err := a.authenticate(r.Header.Get("Authorization"))
		if err != nil {
			reason := "Token inválido o expirado"
			if errors.Is(err, errMissingBearer) || errors.Is(err, errMalformed) {
				reason = "Credenciales de acceso no válidas"
			}
			a.log.Warn("operator not authenticated",
				"correlation_id", ctxutil.GetCorrelationID(r.Context()),
				"path", r.URL.Path,
				"error", err,
			)
			httperrors.WriteCodedError(w, http.StatusUnauthorized, httperrors.CodeUnauthorized,
				"Error de Autenticación", []string{reason}, a.log)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctxutil.WithOperator(r.Context(), operator)))
	})
}

// authenticate returns the subject of a valid bearer token.
func (a *JWTAuthenticator) authenticate(header string) (string, error) {
	raw, err := extractBearerToken(header)
	if err != nil {
		return "", err
	}
	token, err := a.parser.Parse(raw, a.jwks.Keyfunc)
	if err != nil {
		return "", err
	}
	return token.Claims.GetSubject()
}

// Close stops the key set refresher.
func (a *JWTAuthenticator) Close() {
	if a.stop != nil {
		a.stop()
	}
}

func (a *JWTAuthenticator) isOpen(path string) bool {
	for _, p := range a.open {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingBearer
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return "", errMalformed
	}
	return token, nil
}
