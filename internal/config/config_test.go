package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ORCHESTRA_SECRET_KEY", "test-secret")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if c.App.Env != "local" {
		t.Fatalf("env default: got %q", c.App.Env)
	}
	if c.App.Port != 8000 {
		t.Fatalf("port default: got %d", c.App.Port)
	}
	if c.Auth.Algorithm != "HS256" {
		t.Fatalf("algorithm default: got %q", c.Auth.Algorithm)
	}
	if c.Auth.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("access ttl default: got %v", c.Auth.AccessTokenTTL)
	}
	if c.Auth.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("refresh ttl default: got %v", c.Auth.RefreshTokenTTL)
	}
	if c.OAuth.Provider != "github" {
		t.Fatalf("provider default: got %q", c.OAuth.Provider)
	}
	if c.Workshop.DefaultCPULimit != "1" || c.Workshop.DefaultMemoryLimit != "2Gi" ||
		c.Workshop.DefaultCPURequest != "500m" || c.Workshop.DefaultMemoryRequest != "1Gi" {
		t.Fatalf("resource defaults: %+v", c.Workshop)
	}
	if c.Workshop.DefaultDuration != "4h" || c.Workshop.DefaultImage != "rocker/rstudio:latest" {
		t.Fatalf("workshop defaults: %+v", c.Workshop)
	}
	if c.Kube.RequestTimeout != 30*time.Second {
		t.Fatalf("kube timeout default: got %v", c.Kube.RequestTimeout)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("ORCHESTRA_SECRET_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error for missing secret")
	}
	if !strings.Contains(err.Error(), "ORCHESTRA_SECRET_KEY") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ORCHESTRA_OAUTH_PROVIDER", "gitlab")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "OAUTH_PROVIDER") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsUnsupportedAlgorithm(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ORCHESTRA_ALGORITHM", "RS256")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unsupported algorithm")
	}
}

func TestLoadParsesCORSOrigins(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ORCHESTRA_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.CORS.Origins) != 2 || c.CORS.Origins[0] != "https://a.example.com" || c.CORS.Origins[1] != "https://b.example.com" {
		t.Fatalf("origins: %v", c.CORS.Origins)
	}
}

func TestValidateRejectsInvertedTTLs(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ORCHESTRA_ACCESS_TOKEN_TTL", "48h")
	t.Setenv("ORCHESTRA_REFRESH_TOKEN_TTL", "24h")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for refresh ttl <= access ttl")
	}
}
