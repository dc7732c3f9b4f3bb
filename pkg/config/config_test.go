package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Backend.URL != "http://localhost:4000" {
		t.Fatalf("unexpected backend url %q", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %v", cfg.Backend.Timeout)
	}
	if cfg.Session.Store != TokenStoreFile {
		t.Fatalf("expected file token store, got %q", cfg.Session.Store)
	}
	if cfg.Session.TokenKey != "token" {
		t.Fatalf("expected token key 'token', got %q", cfg.Session.TokenKey)
	}
	if cfg.App.Currency != "$" {
		t.Fatalf("unexpected currency %q", cfg.App.Currency)
	}
	if !cfg.App.IsDev() {
		t.Fatalf("expected dev env by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBackendURL, "https://api.greencart.test/")
	t.Setenv(EnvBackendTimeout, "3s")
	t.Setenv(EnvTokenStore, "REDIS")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/2")
	t.Setenv(EnvCurrency, "₹")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Backend.URL != "https://api.greencart.test" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %v", cfg.Backend.Timeout)
	}
	if cfg.Session.Store != TokenStoreRedis {
		t.Fatalf("expected normalized redis store, got %q", cfg.Session.Store)
	}
	if cfg.App.Currency != "₹" {
		t.Fatalf("unexpected currency %q", cfg.App.Currency)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"relative url":      {EnvBackendURL: "/api"},
		"bad scheme":        {EnvBackendURL: "ftp://example.com"},
		"bad duration":      {EnvBackendTimeout: "soon"},
		"zero timeout":      {EnvBackendTimeout: "0s"},
		"unknown store":     {EnvTokenStore: "cookie"},
		"redis without url": {EnvTokenStore: "redis"},
		"zero push timeout": {EnvCartPushTimeout: "0s"},
		"prod over http":    {EnvAppEnv: "prod", EnvBackendURL: "http://api.greencart.test"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range vars {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvAppEnv, EnvLogLevel, EnvCurrency, EnvBackendURL, EnvBackendTimeout,
		EnvTokenStore, EnvTokenFile, EnvTokenKey, EnvRedisURL, EnvRedisAddr,
		EnvCatalogFile, EnvMetricsEnabled, EnvMetricsFile, EnvCartPushTimeout,
	} {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}
