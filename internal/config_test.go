package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestStoreConfig_Drivers(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StoreConfig
		wantErr bool
	}{
		{"json", StoreConfig{Driver: "json", Path: "./data"}, false},
		{"sqlite", StoreConfig{Driver: "sqlite", Path: "./lendscan.db"}, false},
		{"memory without path", StoreConfig{Driver: "memory"}, false},
		{"empty driver defaults to json", StoreConfig{Path: "./data"}, false},
		{"json without path", StoreConfig{Driver: "json"}, true},
		{"unknown driver", StoreConfig{Driver: "postgres", Path: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStoreConfig_EmptyDriverNormalised(t *testing.T) {
	cfg := StoreConfig{Path: "./data"}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Driver != "json" {
		t.Errorf("driver = %q, want json", cfg.Driver)
	}
}

func TestScanConfig_SweepRequiredWithTTL(t *testing.T) {
	cfg := ScanConfig{SessionTTL: time.Minute}
	if err := cfg.Validate(); err == nil {
		t.Error("ttl without sweep interval should fail")
	}
	cfg = ScanConfig{}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled expiry should pass: %v", err)
	}
}

func TestHTTPConfig_Port(t *testing.T) {
	cfg := HTTPConfig{Port: 70000}
	if err := cfg.Validate(); err == nil {
		t.Error("port out of range should fail")
	}
	if got := (&HTTPConfig{Port: 9090}).Address(); got != ":9090" {
		t.Errorf("Address() = %q", got)
	}
}

func TestRateLimitConfig(t *testing.T) {
	if err := (RateLimitConfig{}).Validate(); err != nil {
		t.Errorf("disabled limiter should pass: %v", err)
	}
	if err := (RateLimitConfig{RPS: 5}).Validate(); err == nil {
		t.Error("rps without burst should fail")
	}
	if err := (RateLimitConfig{RPS: -1, Burst: 1}).Validate(); err == nil {
		t.Error("negative rps should fail")
	}
}
