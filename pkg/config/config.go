// Package config loads gateway configuration from environment variables,
// with an optional YAML overlay for the auth settings that operators tune
// per product (routes, SSO URLs, redirect delays).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linkai/console/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Auth          AuthConfig
	Identity      IdentityConfig
	Storage       StorageConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// Routes names the auth-related pages served by the gateway
type Routes struct {
	Login        string `yaml:"login"`
	Callback     string `yaml:"callback"`
	Dashboard    string `yaml:"dashboard"`
	Unauthorized string `yaml:"unauthorized"`
}

// AuthConfig holds the SSO handshake and session settings
type AuthConfig struct {
	// SSOBaseURL is the platform login page users are redirected to
	SSOBaseURL string `yaml:"sso_base_url"`
	// AppBaseURL is this product's externally reachable base URL
	AppBaseURL string `yaml:"app_base_url"`
	// ProductName is used in log lines and page titles
	ProductName string `yaml:"product_name"`

	Routes Routes `yaml:"routes"`

	// UX pacing before the post-handshake redirect. Cosmetic, not invariants.
	SuccessRedirectDelay time.Duration `yaml:"success_redirect_delay"`
	FailureRedirectDelay time.Duration `yaml:"failure_redirect_delay"`

	// SessionMaxAge bounds how long mirrored session data stays in the store
	SessionMaxAge time.Duration `yaml:"session_max_age"`
}

// IdentityConfig selects and configures the identity provider client
type IdentityConfig struct {
	// Mode is "platform" (LinkAI platform auth API) or "oidc"
	Mode string

	// Platform mode
	PlatformURL string
	PlatformKey string

	// OIDC mode
	OIDCIssuerURL    string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCScopes       []string

	// ExchangeTimeout bounds how long the SSO callback waits for the
	// provider to confirm a token exchange with a sign-in event
	ExchangeTimeout time.Duration
}

// StorageConfig holds session store and directory database configuration
type StorageConfig struct {
	// SessionStore is "memory" or "redis"
	SessionStore string

	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PostgresURL points at the platform database holding profiles,
	// companies and seocc.websites
	PostgresURL string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables. When
// CONSOLE_AUTH_CONFIG_FILE is set, the named YAML file overlays the auth
// section after the environment pass.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Auth:          loadAuthConfig(),
		Identity:      loadIdentityConfig(),
		Storage:       loadStorageConfig(),
		Observability: loadObservabilityConfig(),
	}

	if file := getEnv("CONSOLE_AUTH_CONFIG_FILE", ""); file != "" {
		if err := cfg.Auth.overlayFile(file); err != nil {
			return nil, fmt.Errorf("failed to load auth config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("CONSOLE_HOST", "0.0.0.0"),
		Port:            getEnv("CONSOLE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("CONSOLE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("CONSOLE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("CONSOLE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("CONSOLE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("CONSOLE_HEALTH_PORT", "9090"),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		SSOBaseURL:  getEnv("CONSOLE_SSO_BASE_URL", "https://tools.linkai.nl/login"),
		AppBaseURL:  getEnv("CONSOLE_APP_BASE_URL", "http://localhost:8080"),
		ProductName: getEnv("CONSOLE_PRODUCT_NAME", "SEO Command Centre"),
		Routes: Routes{
			Login:        "/auth/login",
			Callback:     "/auth/sso-callback",
			Dashboard:    "/",
			Unauthorized: "/auth/unauthorized",
		},
		SuccessRedirectDelay: getEnvDuration("CONSOLE_SUCCESS_REDIRECT_DELAY", 1500*time.Millisecond),
		FailureRedirectDelay: getEnvDuration("CONSOLE_FAILURE_REDIRECT_DELAY", 3*time.Second),
		SessionMaxAge:        getEnvDuration("CONSOLE_SESSION_MAX_AGE", 24*time.Hour),
	}
}

func loadIdentityConfig() IdentityConfig {
	return IdentityConfig{
		Mode:             getEnv("CONSOLE_IDENTITY_MODE", "platform"),
		PlatformURL:      getEnv("CONSOLE_IDENTITY_URL", "https://auth.tools.linkai.nl"),
		PlatformKey:      getEnv("CONSOLE_IDENTITY_API_KEY", ""),
		OIDCIssuerURL:    getEnv("CONSOLE_OIDC_ISSUER_URL", ""),
		OIDCClientID:     getEnv("CONSOLE_OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("CONSOLE_OIDC_CLIENT_SECRET", ""),
		OIDCScopes:       getEnvList("CONSOLE_OIDC_SCOPES", []string{"openid", "profile", "email"}),
		ExchangeTimeout:  getEnvDuration("CONSOLE_EXCHANGE_TIMEOUT", 10*time.Second),
	}
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		SessionStore:  getEnv("CONSOLE_SESSION_STORE", "memory"),
		RedisURL:      getEnv("CONSOLE_REDIS_URL", ""),
		RedisPassword: getEnv("CONSOLE_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("CONSOLE_REDIS_DB", 0),
		PostgresURL:   getEnv("CONSOLE_POSTGRES_URL", ""),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("CONSOLE_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("CONSOLE_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("CONSOLE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("CONSOLE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("CONSOLE_OTEL_SERVICE_NAME", "console-gateway"),
		OTelServiceVersion: getEnv("CONSOLE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("CONSOLE_OTEL_INSECURE", true),
	}
}

// overlayFile merges non-zero values from a YAML file into the auth config
func (a *AuthConfig) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var overlay AuthConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if overlay.SSOBaseURL != "" {
		a.SSOBaseURL = overlay.SSOBaseURL
	}
	if overlay.AppBaseURL != "" {
		a.AppBaseURL = overlay.AppBaseURL
	}
	if overlay.ProductName != "" {
		a.ProductName = overlay.ProductName
	}
	if overlay.Routes.Login != "" {
		a.Routes.Login = overlay.Routes.Login
	}
	if overlay.Routes.Callback != "" {
		a.Routes.Callback = overlay.Routes.Callback
	}
	if overlay.Routes.Dashboard != "" {
		a.Routes.Dashboard = overlay.Routes.Dashboard
	}
	if overlay.Routes.Unauthorized != "" {
		a.Routes.Unauthorized = overlay.Routes.Unauthorized
	}
	if overlay.SuccessRedirectDelay > 0 {
		a.SuccessRedirectDelay = overlay.SuccessRedirectDelay
	}
	if overlay.FailureRedirectDelay > 0 {
		a.FailureRedirectDelay = overlay.FailureRedirectDelay
	}
	if overlay.SessionMaxAge > 0 {
		a.SessionMaxAge = overlay.SessionMaxAge
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Auth.SSOBaseURL == "" {
		return fmt.Errorf("SSO base URL is required")
	}
	if c.Auth.AppBaseURL == "" {
		return fmt.Errorf("app base URL is required")
	}

	switch c.Identity.Mode {
	case "platform":
		if c.Identity.PlatformURL == "" {
			return fmt.Errorf("identity URL is required in platform mode")
		}
	case "oidc":
		if c.Identity.OIDCIssuerURL == "" {
			return fmt.Errorf("OIDC issuer URL is required in oidc mode")
		}
		if c.Identity.OIDCClientID == "" {
			return fmt.Errorf("OIDC client ID is required in oidc mode")
		}
	default:
		return fmt.Errorf("invalid identity mode: %s (must be platform or oidc)", c.Identity.Mode)
	}

	switch c.Storage.SessionStore {
	case "memory":
	case "redis":
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis session store")
		}
	default:
		return fmt.Errorf("invalid session store type: %s (must be memory or redis)", c.Storage.SessionStore)
	}

	if c.Observability.OTelEnabled && c.Observability.OTelEndpoint == "" {
		return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
	}

	return nil
}

func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
