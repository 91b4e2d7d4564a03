package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"orchestra-api/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// Provider is the closed set of supported OAuth identity providers.
// The string from config is resolved into this variant exactly once at
// startup; an unknown value is a configuration failure, not a per-request
// error.
type Provider int

const (
	ProviderGitHub Provider = iota
	ProviderGoogle
)

func (p Provider) String() string {
	switch p {
	case ProviderGitHub:
		return "github"
	case ProviderGoogle:
		return "google"
	default:
		return "unknown"
	}
}

func ParseProvider(s string) (Provider, error) {
	switch s {
	case "github":
		return ProviderGitHub, nil
	case "google":
		return ProviderGoogle, nil
	default:
		return 0, fmt.Errorf("unsupported OAuth provider %q", s)
	}
}

// IdentityExchanger is the capability the auth handlers need from the
// OAuth boundary: turn an authorization code into a verified identity.
// Test doubles implement this interface directly.
type IdentityExchanger interface {
	ExchangeCode(ctx context.Context, code string) (Identity, error)
	AuthorizeURL() string
	ProviderName() string
	RedirectURI() string
}

// OAuthClient exchanges authorization codes and fetches profiles from the
// configured provider.
type OAuthClient struct {
	provider    Provider
	conf        *oauth2.Config
	userInfoURL string
	timeout     time.Duration
}

const defaultScope = "user"

func NewOAuthClient(cfg config.OAuthConfig) (*OAuthClient, error) {
	p, err := ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("ORCHESTRA_OAUTH_CLIENT_ID and ORCHESTRA_OAUTH_CLIENT_SECRET are required")
	}

	c := &OAuthClient{
		provider: p,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
		},
		timeout: 10 * time.Second,
	}

	switch p {
	case ProviderGitHub:
		c.conf.Endpoint = github.Endpoint
		c.conf.Scopes = []string{"user:email"}
		c.userInfoURL = "https://api.github.com/user"
	case ProviderGoogle:
		c.conf.Endpoint = google.Endpoint
		c.conf.Scopes = []string{"openid", "email", "profile"}
		c.userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	}

	return c, nil
}

func (c *OAuthClient) ProviderName() string { return c.provider.String() }

func (c *OAuthClient) RedirectURI() string { return c.conf.RedirectURL }

// AuthorizeURL is the provider URL the frontend sends the user to.
func (c *OAuthClient) AuthorizeURL() string {
	return c.conf.AuthCodeURL("")
}

// ExchangeCode trades an authorization code for a provider access token,
// fetches the profile, and derives the local identity with the default
// scope set.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tok, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("exchanging authorization code: %w", err)
	}

	profile, err := c.fetchProfile(ctx, tok)
	if err != nil {
		return Identity{}, err
	}

	subject := profile.Login
	if subject == "" {
		subject = profile.Email
	}
	if subject == "" {
		return Identity{}, errors.New("provider profile has no login or email")
	}

	avatar := profile.AvatarURL
	if avatar == "" {
		avatar = profile.Picture
	}

	return Identity{
		Subject:   subject,
		UserID:    profile.userID(),
		Email:     profile.Email,
		Name:      profile.Name,
		AvatarURL: avatar,
		Scopes:    []string{defaultScope},
	}, nil
}

// providerProfile is the union of the GitHub and Google user-info shapes.
type providerProfile struct {
	Login     string `json:"login"`
	ID        any    `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Picture   string `json:"picture"`
}

// userID normalizes the provider id: GitHub sends a number, Google a string.
func (p providerProfile) userID() string {
	switch v := p.ID.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

func (c *OAuthClient) fetchProfile(ctx context.Context, tok *oauth2.Token) (providerProfile, error) {
	var profile providerProfile

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return profile, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return profile, fmt.Errorf("fetching provider profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return profile, fmt.Errorf("provider profile fetch returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return profile, fmt.Errorf("decoding provider profile: %w", err)
	}
	return profile, nil
}
