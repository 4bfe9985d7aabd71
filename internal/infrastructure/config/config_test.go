package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	// Clear all relevant env vars
	envVars := []string{
		"APP_NAME", "APP_VERSION", "APP_ENV", "APP_PORT",
		"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT", "HTTP_SHUTDOWN_TIMEOUT", "HTTP_EMIT_TIMEOUT",
		"AUTH_ENABLED", "JWT_ISSUER_URI", "JWT_JWK_SET_URI", "AUTH_CLOCK_SKEW", "AUTH_BYPASS_PATHS",
		"LOG_LEVEL", "DATABASE_URL",
		"BILLING_BASE_URL", "BILLING_API_TIMEOUT", "BILLING_BREAKER_MAX_FAILURES",
		"BILLING_BREAKER_FAILURE_THRESHOLD", "BILLING_BREAKER_COOLDOWN", "BILLING_TIME_ZONE",
	}

	for _, key := range envVars {
		os.Unsetenv(key)
	}

	// Set AUTH_ENABLED=false to avoid requiring JWT config
	t.Setenv("AUTH_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "ms_facturacion_ar" {
		t.Errorf("expected default app name 'ms_facturacion_ar', got %q", cfg.App.Name)
	}

	if cfg.App.Version != "0.1.0" {
		t.Errorf("expected default version '0.1.0', got %q", cfg.App.Version)
	}

	if cfg.App.Environment != "local" {
		t.Errorf("expected default environment 'local', got %q", cfg.App.Environment)
	}

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
	}

	if cfg.Auth.Enabled != false {
		t.Errorf("expected auth enabled false (as set in test), got %v", cfg.Auth.Enabled)
	}

	if len(cfg.Auth.BypassPaths) != 2 || cfg.Auth.BypassPaths[0] != "/health" || cfg.Auth.BypassPaths[1] != "/metrics" {
		t.Errorf("expected default bypass paths [/health /metrics], got %v", cfg.Auth.BypassPaths)
	}

	if cfg.Billing.BaseURL != "https://www.tusfacturas.app/app/api/v2" {
		t.Errorf("unexpected default billing base URL %q", cfg.Billing.BaseURL)
	}

	if cfg.Billing.APITimeout != 30*time.Second {
		t.Errorf("expected billing timeout 30s, got %v", cfg.Billing.APITimeout)
	}

	if cfg.Billing.BreakerMaxFailures != 5 || cfg.Billing.BreakerFailureThreshold != 0.5 || cfg.Billing.BreakerCooldown != 30*time.Second {
		t.Errorf("unexpected breaker defaults: %+v", cfg.Billing)
	}
}

func TestLoad_WithCustomValues(t *testing.T) {
	// Set custom values
	os.Setenv("APP_NAME", "test-app")
	os.Setenv("APP_VERSION", "2.0.0")
	os.Setenv("APP_ENV", "production")
	os.Setenv("APP_PORT", "9090")
	os.Setenv("AUTH_ENABLED", "false")
	defer func() {
		os.Unsetenv("APP_NAME")
		os.Unsetenv("APP_VERSION")
		os.Unsetenv("APP_ENV")
		os.Unsetenv("APP_PORT")
		os.Unsetenv("AUTH_ENABLED")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "test-app" {
		t.Errorf("expected app name 'test-app', got %q", cfg.App.Name)
	}

	if cfg.App.Version != "2.0.0" {
		t.Errorf("expected version '2.0.0', got %q", cfg.App.Version)
	}

	if cfg.App.Environment != "production" {
		t.Errorf("expected environment 'production', got %q", cfg.App.Environment)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}

	if cfg.Auth.Enabled != false {
		t.Errorf("expected auth enabled false, got %v", cfg.Auth.Enabled)
	}
}

func TestLoad_AuthEnabled_MissingIssuerURI(t *testing.T) {
	os.Setenv("AUTH_ENABLED", "true")
	os.Unsetenv("JWT_ISSUER_URI")
	os.Unsetenv("JWT_JWK_SET_URI")
	defer func() {
		os.Unsetenv("AUTH_ENABLED")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load must not require JWT settings for commands that do not serve HTTP: %v", err)
	}

	err = cfg.ValidateAuth()
	if err == nil {
		t.Fatal("expected error when AUTH_ENABLED=true and JWT_ISSUER_URI is missing")
	}

	if err.Error() != "invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoad_AuthEnabled_MissingJWKSetURI(t *testing.T) {
	os.Setenv("AUTH_ENABLED", "true")
	os.Setenv("JWT_ISSUER_URI", "https://issuer.example.com")
	os.Unsetenv("JWT_JWK_SET_URI")
	defer func() {
		os.Unsetenv("AUTH_ENABLED")
		os.Unsetenv("JWT_ISSUER_URI")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected Load error: %v", err)
	}

	err = cfg.ValidateAuth()
	if err == nil {
		t.Fatal("expected error when AUTH_ENABLED=true and JWT_JWK_SET_URI is missing")
	}

	if err.Error() != "invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidateAuth(t *testing.T) {
	disabled := AppConfig{Auth: AuthSettings{Enabled: false}}
	if err := disabled.ValidateAuth(); err != nil {
		t.Errorf("expected no error with auth disabled, got %v", err)
	}

	complete := AppConfig{Auth: AuthSettings{
		Enabled:   true,
		IssuerURI: "https://issuer.example.com",
		JWKSetURI: "https://issuer.example.com/.well-known/jwks.json",
	}}
	if err := complete.ValidateAuth(); err != nil {
		t.Errorf("expected no error with complete JWT settings, got %v", err)
	}
}

func TestHTTPSettings_Address(t *testing.T) {
	settings := HTTPSettings{Port: 8080}
	addr := settings.Address()

	if addr != ":8080" {
		t.Errorf("expected address ':8080', got %q", addr)
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_KEY", "test-value")
	defer os.Unsetenv("TEST_KEY")

	value := getEnv("TEST_KEY", "default")
	if value != "test-value" {
		t.Errorf("expected 'test-value', got %q", value)
	}

	value = getEnv("NON_EXISTENT_KEY", "default-value")
	if value != "default-value" {
		t.Errorf("expected 'default-value', got %q", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback bool
		expected bool
	}{
		{"true value", "true", false, true},
		{"false value", "false", true, false},
		{"True value", "True", false, true},
		{"FALSE value", "FALSE", true, false},
		{"invalid value", "invalid", true, true},
		{"missing key", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_BOOL", tt.envValue)
				defer os.Unsetenv("TEST_BOOL")
			} else {
				os.Unsetenv("TEST_BOOL")
			}

			result := getEnvAsBool("TEST_BOOL", tt.fallback)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback int
		expected int
	}{
		{"valid int", "123", 0, 123},
		{"zero", "0", 999, 0},
		{"negative", "-10", 0, -10},
		{"invalid value", "not-a-number", 42, 42},
		{"missing key", "", 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_INT", tt.envValue)
				defer os.Unsetenv("TEST_INT")
			} else {
				os.Unsetenv("TEST_INT")
			}

			result := getEnvAsInt("TEST_INT", tt.fallback)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback time.Duration
		expected time.Duration
	}{
		{"valid duration", "10s", 0, 10 * time.Second},
		{"minutes", "5m", 0, 5 * time.Minute},
		{"hours", "2h", 0, 2 * time.Hour},
		{"invalid value", "not-a-duration", 30 * time.Second, 30 * time.Second},
		{"empty value", "", 30 * time.Second, 30 * time.Second},
		{"missing key", "", 30 * time.Second, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_DURATION", tt.envValue)
				defer os.Unsetenv("TEST_DURATION")
			} else {
				os.Unsetenv("TEST_DURATION")
			}

			result := getEnvAsDuration("TEST_DURATION", tt.fallback)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsCSV(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback []string
		expected []string
	}{
		{
			name:     "single value",
			envValue: "value1",
			fallback: []string{"default"},
			expected: []string{"value1"},
		},
		{
			name:     "multiple values",
			envValue: "value1,value2,value3",
			fallback: []string{"default"},
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "with spaces",
			envValue: "value1, value2 , value3",
			fallback: []string{"default"},
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "empty values filtered",
			envValue: "value1,,value2, ,value3",
			fallback: []string{"default"},
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "empty string",
			envValue: "",
			fallback: []string{"default"},
			expected: []string{"default"},
		},
		{
			name:     "only spaces",
			envValue: " , , ",
			fallback: []string{"default"},
			expected: []string{"default"},
		},
		{
			name:     "missing key",
			envValue: "",
			fallback: []string{"default1", "default2"},
			expected: []string{"default1", "default2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_CSV", tt.envValue)
				defer os.Unsetenv("TEST_CSV")
			} else {
				os.Unsetenv("TEST_CSV")
			}

			result := getEnvAsCSV("TEST_CSV", tt.fallback)
			if len(result) != len(tt.expected) {
				t.Errorf("expected %d values, got %d", len(tt.expected), len(result))
				return
			}

			for i, expected := range tt.expected {
				if result[i] != expected {
					t.Errorf("expected[%d] %q, got %q", i, expected, result[i])
				}
			}
		})
	}
}

func TestLoad_BillingSettings(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("BILLING_BASE_URL", "https://sandbox.billing.test/api/v2")
	t.Setenv("BILLING_API_TIMEOUT", "20s")
	t.Setenv("BILLING_BREAKER_MAX_FAILURES", "3")
	t.Setenv("BILLING_BREAKER_FAILURE_THRESHOLD", "0.75")
	t.Setenv("BILLING_BREAKER_COOLDOWN", "1m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Billing.BaseURL != "https://sandbox.billing.test/api/v2" {
		t.Errorf("unexpected base URL %q", cfg.Billing.BaseURL)
	}
	if cfg.Billing.APITimeout != 20*time.Second {
		t.Errorf("expected 20s timeout, got %v", cfg.Billing.APITimeout)
	}
	if cfg.Billing.BreakerMaxFailures != 3 {
		t.Errorf("expected 3 max failures, got %d", cfg.Billing.BreakerMaxFailures)
	}
	if cfg.Billing.BreakerFailureThreshold != 0.75 {
		t.Errorf("expected threshold 0.75, got %v", cfg.Billing.BreakerFailureThreshold)
	}
	if cfg.Billing.BreakerCooldown != time.Minute {
		t.Errorf("expected 1m cooldown, got %v", cfg.Billing.BreakerCooldown)
	}
}

func TestLoad_InvalidBillingSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"relative base url", "BILLING_BASE_URL", "/api/v2"},
		{"zero breaker failures", "BILLING_BREAKER_MAX_FAILURES", "0"},
		{"threshold above one", "BILLING_BREAKER_FAILURE_THRESHOLD", "1.5"},
		{"emit timeout below api timeout", "HTTP_EMIT_TIMEOUT", "10s"},
		{"unknown time zone", "BILLING_TIME_ZONE", "Mars/Olympus_Mons"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUTH_ENABLED", "false")
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestBillingSettings_Location(t *testing.T) {
	loc := BillingSettings{TimeZone: "America/Argentina/Buenos_Aires"}.Location()

	noon := time.Date(2026, 10, 15, 15, 0, 0, 0, time.UTC).In(loc)
	if noon.Hour() != 12 {
		t.Errorf("expected 12:00 in Buenos Aires, got %v", noon)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.25")
	if got := getEnvAsFloat("TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("expected 0.25, got %v", got)
	}

	t.Setenv("TEST_FLOAT", "abc")
	if got := getEnvAsFloat("TEST_FLOAT", 1); got != 1 {
		t.Errorf("expected fallback 1, got %v", got)
	}
}
