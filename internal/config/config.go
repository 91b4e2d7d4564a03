package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values come from ORCHESTRA_-prefixed env vars (or an env-file loaded
// by the process runner). No business logic should read raw environment
// variables directly.
type Config struct {
	App      AppConfig
	Auth     AuthConfig
	OAuth    OAuthConfig
	Kube     KubeConfig
	Workshop WorkshopConfig
	CORS     CORSConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type AuthConfig struct {
	Secret string

	// Algorithm is kept explicit so a misconfigured deployment fails at
	// startup instead of silently signing with the wrong scheme.
	// Only HS256 is supported.
	Algorithm string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type OAuthConfig struct {
	// Provider selects the identity provider: github or google.
	// Resolved into a closed variant once at startup by internal/auth.
	Provider     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type KubeConfig struct {
	// KubeconfigPath is used only when in-cluster config is unavailable.
	KubeconfigPath string

	// RequestTimeout bounds every call to the cluster API.
	RequestTimeout time.Duration
}

// WorkshopConfig carries the defaults applied to workshop specs when the
// caller omits a field.
type WorkshopConfig struct {
	DefaultImage         string
	DefaultDuration      string
	DefaultCPULimit      string
	DefaultMemoryLimit   string
	DefaultCPURequest    string
	DefaultMemoryRequest string
	DefaultStorageSize   string
}

type CORSConfig struct {
	Origins []string
}

const envPrefix = "ORCHESTRA_"

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(getenv("ENV"))
	{
		n, err := intOr("PORT", 8000)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.App.Port = n
	}

	c.Auth.Secret = getenv("SECRET_KEY")
	c.Auth.Algorithm = strings.TrimSpace(getenv("ALGORITHM"))
	c.Auth.AccessTokenTTL = durationOr("ACCESS_TOKEN_TTL", 0)
	c.Auth.RefreshTokenTTL = durationOr("REFRESH_TOKEN_TTL", 0)

	c.OAuth.Provider = strings.TrimSpace(getenv("OAUTH_PROVIDER"))
	c.OAuth.ClientID = strings.TrimSpace(getenv("OAUTH_CLIENT_ID"))
	c.OAuth.ClientSecret = getenv("OAUTH_CLIENT_SECRET")
	c.OAuth.RedirectURI = strings.TrimSpace(getenv("OAUTH_REDIRECT_URI"))

	c.Kube.KubeconfigPath = strings.TrimSpace(getenv("KUBECONFIG_PATH"))
	c.Kube.RequestTimeout = durationOr("KUBE_REQUEST_TIMEOUT", 0)

	c.Workshop.DefaultImage = strings.TrimSpace(getenv("DEFAULT_WORKSHOP_IMAGE"))
	c.Workshop.DefaultDuration = strings.TrimSpace(getenv("DEFAULT_WORKSHOP_DURATION"))
	c.Workshop.DefaultCPULimit = strings.TrimSpace(getenv("DEFAULT_CPU_LIMIT"))
	c.Workshop.DefaultMemoryLimit = strings.TrimSpace(getenv("DEFAULT_MEMORY_LIMIT"))
	c.Workshop.DefaultCPURequest = strings.TrimSpace(getenv("DEFAULT_CPU_REQUEST"))
	c.Workshop.DefaultMemoryRequest = strings.TrimSpace(getenv("DEFAULT_MEMORY_REQUEST"))
	c.Workshop.DefaultStorageSize = strings.TrimSpace(getenv("DEFAULT_STORAGE_SIZE"))

	if v := strings.TrimSpace(getenv("CORS_ORIGINS")); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORS.Origins = append(c.CORS.Origins, o)
			}
		}
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		c.App.Env = "local"
	}
	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("ORCHESTRA_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("ORCHESTRA_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("ORCHESTRA_SECRET_KEY is required"))
	}
	if c.Auth.Algorithm == "" {
		c.Auth.Algorithm = "HS256"
	}
	if c.Auth.Algorithm != "HS256" {
		errs = append(errs, fmt.Errorf("ORCHESTRA_ALGORITHM must be HS256, got %q", c.Auth.Algorithm))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		// Short-lived access tokens.
		c.Auth.AccessTokenTTL = 30 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("ORCHESTRA_REFRESH_TOKEN_TTL must be greater than ORCHESTRA_ACCESS_TOKEN_TTL"))
	}

	if c.OAuth.Provider == "" {
		c.OAuth.Provider = "github"
	}
	if !isValidProvider(c.OAuth.Provider) {
		errs = append(errs, fmt.Errorf("ORCHESTRA_OAUTH_PROVIDER must be github or google, got %q", c.OAuth.Provider))
	}
	if c.OAuth.RedirectURI == "" {
		c.OAuth.RedirectURI = "http://localhost:3000/auth/callback"
	}

	if c.Kube.RequestTimeout <= 0 {
		c.Kube.RequestTimeout = 30 * time.Second
	}

	if c.Workshop.DefaultImage == "" {
		c.Workshop.DefaultImage = "rocker/rstudio:latest"
	}
	if c.Workshop.DefaultDuration == "" {
		c.Workshop.DefaultDuration = "4h"
	}
	if c.Workshop.DefaultCPULimit == "" {
		c.Workshop.DefaultCPULimit = "1"
	}
	if c.Workshop.DefaultMemoryLimit == "" {
		c.Workshop.DefaultMemoryLimit = "2Gi"
	}
	if c.Workshop.DefaultCPURequest == "" {
		c.Workshop.DefaultCPURequest = "500m"
	}
	if c.Workshop.DefaultMemoryRequest == "" {
		c.Workshop.DefaultMemoryRequest = "1Gi"
	}
	if c.Workshop.DefaultStorageSize == "" {
		c.Workshop.DefaultStorageSize = "10Gi"
	}

	if len(c.CORS.Origins) == 0 {
		c.CORS.Origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func getenv(key string) string {
	return os.Getenv(envPrefix + key)
}

func intOr(key string, def int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s%s must be an integer, got %q", envPrefix, key, v)
	}
	return n, nil
}

func durationOr(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidProvider(v string) bool {
	switch v {
	case "github", "google":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
