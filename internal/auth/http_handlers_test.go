package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// fakeExchanger implements IdentityExchanger without any provider calls.
type fakeExchanger struct {
	identity Identity
	err      error
}

func (f fakeExchanger) ExchangeCode(_ context.Context, code string) (Identity, error) {
	if f.err != nil {
		return Identity{}, f.err
	}
	return f.identity, nil
}

func (f fakeExchanger) AuthorizeURL() string { return "https://github.com/login/oauth/authorize?x=y" }
func (f fakeExchanger) ProviderName() string { return "github" }
func (f fakeExchanger) RedirectURI() string  { return "http://localhost:3000/auth/callback" }

func testAuthRouter(t *testing.T, ex IdentityExchanger) (*gin.Engine, *Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m := testManager(t)
	h := Handlers{Manager: m, OAuth: ex}

	r := gin.New()
	ag := r.Group("/auth")
	{
		ag.POST("/oauth/callback", h.OAuthCallback)
		ag.POST("/refresh", h.Refresh)
		ag.GET("/auth-config", h.AuthConfig)
		ag.GET("/me", RequireAccessToken(m), h.Me)
	}
	return r, m
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestOAuthCallbackIssuesTokenPair(t *testing.T) {
	ex := fakeExchanger{identity: Identity{
		Subject: "octocat", UserID: "583231", Email: "octocat@example.com",
		Name: "The Octocat", AvatarURL: "https://example.com/a.png", Scopes: []string{"user"},
	}}
	r, m := testAuthRouter(t, ex)

	rec := postJSON(r, "/auth/oauth/callback", `{"code":"the-code"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
		User         struct {
			Username string `json:"username"`
			ID       string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TokenType != "bearer" || resp.ExpiresIn != 1800 {
		t.Fatalf("envelope: %+v", resp)
	}
	if resp.User.Username != "octocat" || resp.User.ID != "583231" {
		t.Fatalf("user block: %+v", resp.User)
	}

	claims, err := m.VerifyAccess(resp.AccessToken, time.Now())
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	if claims.Subject != "octocat" || len(claims.Scopes) != 1 {
		t.Fatalf("claims: %+v", claims)
	}

	rclaims, err := m.Verify(resp.RefreshToken, time.Now())
	if err != nil || rclaims.TokenType != TokenTypeRefresh {
		t.Fatalf("refresh token: %v %+v", err, rclaims)
	}
}

func TestOAuthCallbackRequiresCode(t *testing.T) {
	r, _ := testAuthRouter(t, fakeExchanger{})
	if rec := postJSON(r, "/auth/oauth/callback", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestOAuthCallbackReportsExchangeFailure(t *testing.T) {
	r, _ := testAuthRouter(t, fakeExchanger{err: errors.New("bad code")})
	rec := postJSON(r, "/auth/oauth/callback", `{"code":"nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "bad code") {
		t.Fatalf("provider detail leaked: %s", rec.Body.String())
	}
}

func TestRefreshEndpoint(t *testing.T) {
	r, m := testAuthRouter(t, fakeExchanger{})

	refresh, err := m.IssueRefreshToken(time.Now(), "octocat")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := postJSON(r, "/auth/refresh", `{"refresh_token":"`+refresh+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := m.VerifyAccess(resp.AccessToken, time.Now())
	if err != nil || claims.Subject != "octocat" {
		t.Fatalf("refreshed token: %v %+v", err, claims)
	}
}

func TestRefreshEndpointRejectsAccessToken(t *testing.T) {
	r, m := testAuthRouter(t, fakeExchanger{})

	access, err := m.IssueAccessToken(time.Now(), Identity{Subject: "u"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := postJSON(r, "/auth/refresh", `{"refresh_token":"`+access+`"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_token") {
		t.Fatalf("body: %s", rec.Body.String())
	}
}

func TestRefreshEndpointDistinguishesExpired(t *testing.T) {
	r, m := testAuthRouter(t, fakeExchanger{})

	// Issued far enough in the past that the 7d refresh TTL has elapsed.
	refresh, err := m.IssueRefreshToken(time.Now().Add(-8*24*time.Hour), "u")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := postJSON(r, "/auth/refresh", `{"refresh_token":"`+refresh+`"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "token_expired") {
		t.Fatalf("body: %s", rec.Body.String())
	}
}

func TestMeRequiresBearer(t *testing.T) {
	r, m := testAuthRouter(t, fakeExchanger{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}

	tok, err := m.IssueAccessToken(time.Now(), Identity{Subject: "octocat", UserID: "42", Scopes: []string{"user"}})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with token: %d body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Username string   `json:"username"`
		UserID   string   `json:"user_id"`
		Scopes   []string `json:"scopes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Username != "octocat" || resp.UserID != "42" || len(resp.Scopes) != 1 {
		t.Fatalf("claims: %+v", resp)
	}
}

func TestMiddlewareDistinguishesExpiredToken(t *testing.T) {
	r, m := testAuthRouter(t, fakeExchanger{})

	tok, err := m.IssueAccessTokenTTL(time.Now().Add(-time.Hour), Identity{Subject: "u"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "token_expired") {
		t.Fatalf("body: %s", rec.Body.String())
	}
}

func TestRequireScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := testManager(t)

	r := gin.New()
	r.GET("/guarded", RequireAccessToken(m), RequireScope("user"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	noScope, err := m.IssueAccessToken(time.Now(), Identity{Subject: "u"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+noScope)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("no scope: %d", rec.Code)
	}

	withScope, err := m.IssueAccessToken(time.Now(), Identity{Subject: "u", Scopes: []string{"user"}})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+withScope)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with scope: %d", rec.Code)
	}
}

func TestAuthConfigEndpoint(t *testing.T) {
	r, _ := testAuthRouter(t, fakeExchanger{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/auth-config", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}

	var resp struct {
		Provider    string `json:"provider"`
		AuthURL     string `json:"auth_url"`
		RedirectURI string `json:"redirect_uri"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Provider != "github" || resp.AuthURL == "" || resp.RedirectURI == "" {
		t.Fatalf("config: %+v", resp)
	}
}
