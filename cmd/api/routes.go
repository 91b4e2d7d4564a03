package main

import (
	"errors"

	"orchestra-api/internal/auth"
	"orchestra-api/internal/config"
	"orchestra-api/internal/httpapi"
	"orchestra-api/internal/workshop"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	cfg       config.Config
	auth      *auth.Manager
	oauth     auth.IdentityExchanger
	directory *workshop.Directory
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal
// modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	// public
	health := httpapi.Health{
		KubeReady: func() error {
			if deps.directory == nil {
				return errors.New("kubernetes client not initialized")
			}
			return nil
		},
	}
	r.GET("/", httpapi.Root)
	r.GET("/health", health.Check)
	r.GET("/health/ready", health.Ready)
	r.GET("/health/live", health.Live)

	// auth (token issuance is public; /me requires a bearer)
	ah := auth.Handlers{Manager: deps.auth, OAuth: deps.oauth}
	ag := r.Group("/auth")
	{
		ag.POST("/oauth/callback", ah.OAuthCallback)
		ag.POST("/refresh", ah.Refresh)
		ag.GET("/auth-config", ah.AuthConfig)
		ag.GET("/me", auth.RequireAccessToken(deps.auth), ah.Me)
	}

	// workshops, bearer-protected
	wh := workshop.Handlers{Directory: deps.directory, Defaults: deps.cfg.Workshop}
	ws := r.Group("/workshops")
	ws.Use(auth.RequireAccessToken(deps.auth))
	ws.Use(auth.RequireScope("user"))
	{
		ws.POST("/", wh.Create)
		ws.GET("/", wh.List)
		ws.GET("/:name", wh.Get)
		ws.DELETE("/:name", wh.Delete)
		ws.GET("/:name/status", wh.Status)
	}
}
