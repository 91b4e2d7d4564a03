package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const serviceName = "orchestra-api"
const serviceVersion = "0.1.0"

// Health groups the probe handlers. Readiness asks the injected check so
// the router does not depend on the kube package.
type Health struct {
	// KubeReady reports whether the cluster client is usable. Nil means
	// the check is skipped (degraded but alive).
	KubeReady func() error
}

func (h Health) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h Health) Ready(c *gin.Context) {
	if h.KubeReady != nil {
		if err := h.KubeReady(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "not ready",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h Health) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Root serves GET / with service metadata.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":       serviceName,
		"version":    serviceVersion,
		"health_url": "/health",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
