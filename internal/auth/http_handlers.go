package auth

import (
	"errors"
	"net/http"
	"time"

	"orchestra-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups the auth HTTP handlers for dependency injection.
// Keep these thin: parse input, call the manager or exchanger, return JSON.
type Handlers struct {
	Manager *Manager
	OAuth   IdentityExchanger
}

type oauthCallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// OAuthCallback exchanges a provider authorization code for a local token
// pair.
func (h Handlers) OAuthCallback(c *gin.Context) {
	log := logger.FromGin(c)

	if h.OAuth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "oauth not configured"})
		return
	}

	var req oauthCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}

	id, err := h.OAuth.ExchangeCode(c.Request.Context(), req.Code)
	if err != nil {
		log.Warn("oauth exchange failed", "provider", h.OAuth.ProviderName(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "oauth authentication failed"})
		return
	}

	now := time.Now()
	access, err := h.Manager.IssueAccessToken(now, id)
	if err != nil {
		log.Error("access token issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	refresh, err := h.Manager.IssueRefreshToken(now, id.Subject)
	if err != nil {
		log.Error("refresh token issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "bearer",
		"expires_in":    int(h.Manager.AccessTTL().Seconds()),
		"user": gin.H{
			"id":         id.UserID,
			"username":   id.Subject,
			"email":      id.Email,
			"name":       id.Name,
			"avatar_url": id.AvatarURL,
		},
	})
}

// Refresh issues a new access token from a refresh token. The new token is
// bound to the subject only; scopes are not carried over.
func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}

	access, err := h.Manager.Refresh(req.RefreshToken, time.Now())
	if err != nil {
		if errors.Is(err, ErrExpired) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token_expired"})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": access,
		"token_type":   "bearer",
		"expires_in":   int(h.Manager.AccessTTL().Seconds()),
	})
}

// Me returns the claims of the bearer. Requires RequireAccessToken.
func (h Handlers) Me(c *gin.Context) {
	id, err := IdentityFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":   id.Subject,
		"user_id":    id.UserID,
		"email":      id.Email,
		"name":       id.Name,
		"avatar_url": id.AvatarURL,
		"scopes":     id.Scopes,
	})
}

// AuthConfig tells the frontend where to send the user for authorization.
func (h Handlers) AuthConfig(c *gin.Context) {
	if h.OAuth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "oauth not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"provider":     h.OAuth.ProviderName(),
		"auth_url":     h.OAuth.AuthorizeURL(),
		"redirect_uri": h.OAuth.RedirectURI(),
	})
}
