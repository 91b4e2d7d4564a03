package auth

import (
	"errors"
	"fmt"
	"time"

	"orchestra-api/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers any signature, format, or claims failure. The
// caller should reauthenticate from scratch.
var ErrInvalidToken = errors.New("invalid token")

// ErrExpired means the signature checked out but exp has passed. The
// caller should attempt a refresh instead of reauthenticating.
var ErrExpired = errors.New("token expired")

// Manager issues and verifies session tokens with a process-wide secret.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("ORCHESTRA_SECRET_KEY is required")
	}
	if cfg.Algorithm != "" && cfg.Algorithm != "HS256" {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}

	return &Manager{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

func (m *Manager) AccessTTL() time.Duration { return m.accessTTL }

/* ===================== ISSUE TOKENS ===================== */

// IssueAccessToken signs an access token carrying the identity with the
// configured TTL.
func (m *Manager) IssueAccessToken(now time.Time, id Identity) (string, error) {
	return m.IssueAccessTokenTTL(now, id, m.accessTTL)
}

// IssueAccessTokenTTL is IssueAccessToken with an explicit TTL.
func (m *Manager) IssueAccessTokenTTL(now time.Time, id Identity, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		UserID:    id.UserID,
		Email:     id.Email,
		Name:      id.Name,
		AvatarURL: id.AvatarURL,
		Scopes:    id.Scopes,
		TokenType: TokenTypeAccess,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// IssueRefreshToken signs a refresh token bound to the subject only.
func (m *Manager) IssueRefreshToken(now time.Time, subject string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
			ID:        uuid.NewString(),
		},
		TokenType: TokenTypeRefresh,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

/* ===================== VERIFY TOKENS ===================== */

// Verify checks signature and expiry. It returns ErrExpired when the
// signature is valid but exp has passed, and ErrInvalidToken for every
// other failure. The distinction is load-bearing for clients.
func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: sub missing", ErrInvalidToken)
	}

	return claims, nil
}

// VerifyAccess verifies the token and requires token_type=access.
func (m *Manager) VerifyAccess(tokenString string, now time.Time) (Claims, error) {
	claims, err := m.Verify(tokenString, now)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != TokenTypeAccess {
		return Claims{}, fmt.Errorf("%w: token_type mismatch", ErrInvalidToken)
	}
	return claims, nil
}

// Refresh verifies a refresh token and issues a new access token bound to
// the same subject. Scopes are NOT carried over from the original access
// token; the refreshed token starts with none.
func (m *Manager) Refresh(refreshToken string, now time.Time) (string, error) {
	claims, err := m.Verify(refreshToken, now)
	if err != nil {
		return "", err
	}
	if claims.TokenType != TokenTypeRefresh {
		return "", fmt.Errorf("%w: token_type mismatch", ErrInvalidToken)
	}

	return m.IssueAccessToken(now, Identity{Subject: claims.Subject})
}
