package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Env: "dev", Port: "8000"},
		Log:      LogConfig{Level: "info"},
		Security: SecurityConfig{JWTSecret: strings.Repeat("s", 32)},
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(validConfig()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing jwt secret", func(c *Config) { c.Security.JWTSecret = "" }, "USER_JWT_SECRET is required"},
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "short" }, "at least 32 characters"},
		{"bad port", func(c *Config) { c.Server.Port = "99999" }, "invalid PORT"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "invalid LOG_LEVEL"},
		{"bad env", func(c *Config) { c.Server.Env = "qa" }, "invalid ENV"},
		{"partial oidc", func(c *Config) { c.OIDC.IssuerURL = "https://idp.example.com" }, "OIDC configuration is incomplete"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := ValidateConfig(cfg)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != "8000" {
		t.Fatalf("unexpected default port: %s", cfg.Server.Port)
	}
	if cfg.Data.PlansDir != filepath.Join(cfg.Data.DataDir, "plans") {
		t.Fatalf("plans dir not under data dir: %s", cfg.Data.PlansDir)
	}
	if len(cfg.Security.CORSAllowedOrigins) == 0 {
		t.Fatalf("expected default CORS origins")
	}

	if err := EnsureDataDirs(cfg); err != nil {
		t.Fatalf("ensure data dirs: %v", err)
	}
}

func TestEnvPredicates(t *testing.T) {
	cfg := validConfig()
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Fatalf("dev config misclassified: dev=%v prod=%v", cfg.IsDevelopment(), cfg.IsProduction())
	}

	cfg.Server.Env = "production"
	if cfg.IsDevelopment() || !cfg.IsProduction() {
		t.Fatalf("production config misclassified")
	}
}

func TestPrintConfigMasksSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Security.JWTSecret = "super-secret-value-that-is-long-enough"

	out := cfg.PrintConfig()
	if strings.Contains(out, cfg.Security.JWTSecret) {
		t.Fatalf("secret printed in clear text")
	}
	if !strings.Contains(out, "supe***") {
		t.Fatalf("masked secret prefix missing: %s", out)
	}
}
