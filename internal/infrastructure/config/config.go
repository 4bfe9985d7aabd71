package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App      AppSettings
	HTTP     HTTPSettings
	Auth     AuthSettings
	Log      LogSettings
	Database DatabaseSettings
	Audit    AuditSettings
	Billing  BillingSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// EmitTimeout bounds the emission endpoint. It must cover the billing
	// API timeout, so it defaults above it.
	EmitTimeout time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

type DatabaseSettings struct {
	URL             string
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type AuditSettings struct {
	Enabled         bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
}

// BillingSettings configures the TusFacturas gateway.
type BillingSettings struct {
	BaseURL                 string
	APITimeout              time.Duration
	BreakerMaxFailures      int
	BreakerFailureThreshold float64
	BreakerCooldown         time.Duration
	TimeZone                string
}

// Load resolves the application configuration from environment variables.
// It first attempts to load variables from a .env file if it exists.
// Environment variables set in the system take precedence over .env file values.
func Load() (AppConfig, error) {
	// Missing .env is fine: containers pass real environment variables.
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "ms_facturacion_ar"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
			EmitTimeout:     getEnvAsDuration("HTTP_EMIT_TIMEOUT", 45*time.Second),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", true),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health", "/metrics"}),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseSettings{
			URL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "ms_facturacion_ar"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Audit: AuditSettings{
			Enabled:         getEnvAsBool("AUDIT_ENABLED", true),
			LogRequestBody:  getEnvAsBool("AUDIT_LOG_REQUEST_BODY", true),
			LogResponseBody: getEnvAsBool("AUDIT_LOG_RESPONSE_BODY", true),
			MaxBodySize:     getEnvAsInt("AUDIT_MAX_BODY_SIZE", 102400),
		},
		Billing: BillingSettings{
			BaseURL:                 getEnv("BILLING_BASE_URL", "https://www.tusfacturas.app/app/api/v2"),
			APITimeout:              getEnvAsDuration("BILLING_API_TIMEOUT", 30*time.Second),
			BreakerMaxFailures:      getEnvAsInt("BILLING_BREAKER_MAX_FAILURES", 5),
			BreakerFailureThreshold: getEnvAsFloat("BILLING_BREAKER_FAILURE_THRESHOLD", 0.5),
			BreakerCooldown:         getEnvAsDuration("BILLING_BREAKER_COOLDOWN", 30*time.Second),
			TimeZone:                getEnv("BILLING_TIME_ZONE", "America/Argentina/Buenos_Aires"),
		},
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ValidateAuth checks the JWT settings. Only the HTTP server needs them, so
// Load leaves this to the serve command.
func (cfg AppConfig) ValidateAuth() error {
	if !cfg.Auth.Enabled {
		return nil
	}
	if cfg.Auth.IssuerURI == "" {
		return errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
	}
	if cfg.Auth.JWKSetURI == "" {
		return errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
	}
	return nil
}

func (cfg AppConfig) validate() error {
	u, err := url.Parse(cfg.Billing.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid config: BILLING_BASE_URL must be an absolute http(s) URL, got %q", cfg.Billing.BaseURL)
	}
	if cfg.Billing.APITimeout <= 0 {
		return errors.New("invalid config: BILLING_API_TIMEOUT must be greater than 0")
	}
	if cfg.HTTP.EmitTimeout <= cfg.Billing.APITimeout {
		return errors.New("invalid config: HTTP_EMIT_TIMEOUT must be greater than BILLING_API_TIMEOUT")
	}
	if cfg.Billing.BreakerMaxFailures <= 0 {
		return errors.New("invalid config: BILLING_BREAKER_MAX_FAILURES must be greater than 0")
	}
	if cfg.Billing.BreakerFailureThreshold <= 0 || cfg.Billing.BreakerFailureThreshold > 1 {
		return errors.New("invalid config: BILLING_BREAKER_FAILURE_THRESHOLD must be in (0, 1]")
	}
	// Buenos Aires has a fixed-offset fallback in Location.
	if _, err := time.LoadLocation(cfg.Billing.TimeZone); err != nil && cfg.Billing.TimeZone != "America/Argentina/Buenos_Aires" {
		return fmt.Errorf("invalid config: BILLING_TIME_ZONE: %w", err)
	}
	return nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

// Location returns the business time zone. Buenos Aires falls back to a fixed
// UTC-3 offset on hosts without tzdata; Argentina has no daylight saving.
func (b BillingSettings) Location() *time.Location {
	if loc, err := time.LoadLocation(b.TimeZone); err == nil {
		return loc
	}
	return time.FixedZone(b.TimeZone, -3*60*60)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
