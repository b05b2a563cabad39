package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{
			name:         "returns parsed duration",
			key:          "TEST_DURATION",
			defaultValue: time.Second,
			envValue:     "1500ms",
			want:         1500 * time.Millisecond,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_DURATION_NOT_SET",
			defaultValue: 3 * time.Second,
			envValue:     "",
			want:         3 * time.Second,
		},
		{
			name:         "returns default on garbage",
			key:          "TEST_DURATION_BAD",
			defaultValue: time.Minute,
			envValue:     "not-a-duration",
			want:         time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Auth.SSOBaseURL != "https://tools.linkai.nl/login" {
		t.Errorf("SSOBaseURL = %v", cfg.Auth.SSOBaseURL)
	}
	if cfg.Auth.Routes.Callback != "/auth/sso-callback" {
		t.Errorf("Callback route = %v", cfg.Auth.Routes.Callback)
	}
	if cfg.Auth.SuccessRedirectDelay != 1500*time.Millisecond {
		t.Errorf("SuccessRedirectDelay = %v", cfg.Auth.SuccessRedirectDelay)
	}
	if cfg.Auth.FailureRedirectDelay != 3*time.Second {
		t.Errorf("FailureRedirectDelay = %v", cfg.Auth.FailureRedirectDelay)
	}
	if cfg.Identity.Mode != "platform" {
		t.Errorf("Identity.Mode = %v", cfg.Identity.Mode)
	}
	if cfg.Storage.SessionStore != "memory" {
		t.Errorf("SessionStore = %v", cfg.Storage.SessionStore)
	}
}

func TestAuthConfigOverlayFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.yaml")
	yaml := `
product_name: "Keyword Studio"
success_redirect_delay: 2s
routes:
  callback: /auth/callback
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := loadAuthConfig()
	if err := cfg.overlayFile(path); err != nil {
		t.Fatalf("overlayFile() error = %v", err)
	}

	if cfg.ProductName != "Keyword Studio" {
		t.Errorf("ProductName = %v", cfg.ProductName)
	}
	if cfg.SuccessRedirectDelay != 2*time.Second {
		t.Errorf("SuccessRedirectDelay = %v", cfg.SuccessRedirectDelay)
	}
	if cfg.Routes.Callback != "/auth/callback" {
		t.Errorf("Callback = %v", cfg.Routes.Callback)
	}
	// untouched values survive the overlay
	if cfg.Routes.Login != "/auth/login" {
		t.Errorf("Login = %v", cfg.Routes.Login)
	}
	if cfg.SSOBaseURL != "https://tools.linkai.nl/login" {
		t.Errorf("SSOBaseURL = %v", cfg.SSOBaseURL)
	}
}

func TestValidateRejectsPortClash(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	cfg.Server.HealthPort = cfg.Server.Port
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted clashing ports")
	}
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	cfg.Storage.SessionStore = "cassandra"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted unknown session store")
	}
}
