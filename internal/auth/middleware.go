package auth

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// RequireAccessToken verifies a bearer access token and injects the caller
// identity into the request context. Expired tokens are reported with a
// distinct error body so clients know to refresh rather than reauthenticate.
func RequireAccessToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}
		tok := strings.TrimPrefix(raw, bearerPrefix)

		claims, err := m.VerifyAccess(tok, time.Now())
		if err != nil {
			if errors.Is(err, ErrExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token_expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		id := Identity{
			Subject:   claims.Subject,
			UserID:    claims.UserID,
			Email:     claims.Email,
			Name:      claims.Name,
			AvatarURL: claims.AvatarURL,
			Scopes:    claims.Scopes,
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Set("username", claims.Subject)

		c.Next()
	}
}

// RequireScope gates a route group on a scope claim. Must run after
// RequireAccessToken.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := IdentityFrom(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}
		if !slices.Contains(id.Scopes, scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient_scope"})
			return
		}
		c.Next()
	}
}
