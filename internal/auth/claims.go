package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the only supported JWT claims shape for this service.
// Tokens are stateless and self-contained: validity is a function of the
// signature and the exp claim only, never of server-side state.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Scopes    []string  `json:"scopes,omitempty"`
	TokenType TokenType `json:"token_type"`
}

// Identity is a verified third-party identity, as derived from an OAuth
// provider profile. It is the input to access-token issuance.
type Identity struct {
	Subject   string `json:"username"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`

	Scopes []string `json:"scopes,omitempty"`
}
