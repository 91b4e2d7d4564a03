package workshop

import (
	"net/http"
	"strconv"

	"orchestra-api/internal/config"

	"github.com/gin-gonic/gin"
)

const defaultNamespace = "default"

// Handlers exposes the workshop directory over HTTP. Keep these thin:
// parse/validate input, call the directory, return JSON. Upstream detail
// never reaches the response body; the directory logs it server-side.
type Handlers struct {
	Directory *Directory
	Defaults  config.WorkshopConfig
}

// Create handles POST /workshops/.
func (h Handlers) Create(c *gin.Context) {
	var spec Spec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if spec.Name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	h.applyDefaults(&spec)

	namespace := c.DefaultQuery("namespace", defaultNamespace)

	w, err := h.Directory.Create(c.Request.Context(), spec, namespace)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to create workshop"})
		return
	}
	c.JSON(http.StatusCreated, w)
}

// List handles GET /workshops/ with in-memory pagination.
func (h Handlers) List(c *gin.Context) {
	namespace := c.DefaultQuery("namespace", defaultNamespace)

	page, err := queryInt(c, "page", 1)
	if err != nil || page < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "page must be >= 1"})
		return
	}
	size, err := queryInt(c, "size", 50)
	if err != nil || size < 1 || size > 100 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "size must be in 1..100"})
		return
	}

	items, err := h.Directory.List(c.Request.Context(), namespace, "")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to list workshops"})
		return
	}

	c.JSON(http.StatusOK, List{
		Items: Page(items, page, size),
		Total: len(items),
		Page:  page,
		Size:  size,
	})
}

// Get handles GET /workshops/:name.
func (h Handlers) Get(c *gin.Context) {
	name := c.Param("name")
	namespace := c.DefaultQuery("namespace", defaultNamespace)

	w, err := h.Directory.Get(c.Request.Context(), name, namespace)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to get workshop"})
		return
	}
	if w == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "workshop not found"})
		return
	}
	c.JSON(http.StatusOK, w)
}

// Delete handles DELETE /workshops/:name. Deleting an absent workshop is
// a 404, not a failure.
func (h Handlers) Delete(c *gin.Context) {
	name := c.Param("name")
	namespace := c.DefaultQuery("namespace", defaultNamespace)

	deleted, err := h.Directory.Delete(c.Request.Context(), name, namespace)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to delete workshop"})
		return
	}
	if !deleted {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "workshop not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Status handles GET /workshops/:name/status, a projection of the
// operator-owned status block.
func (h Handlers) Status(c *gin.Context) {
	name := c.Param("name")
	namespace := c.DefaultQuery("namespace", defaultNamespace)

	w, err := h.Directory.Get(c.Request.Context(), name, namespace)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to get workshop status"})
		return
	}
	if w == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "workshop not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":      w.Name,
		"namespace": w.Namespace,
		"status":    w.Status,
		"url":       w.Status.URL,
	})
}

// applyDefaults fills unset spec fields from configuration before the spec
// goes to the cluster, so stored documents are always explicit.
func (h Handlers) applyDefaults(spec *Spec) {
	if spec.Duration == "" {
		spec.Duration = h.Defaults.DefaultDuration
	}
	if spec.Image == "" {
		spec.Image = h.Defaults.DefaultImage
	}
	if spec.Resources.CPU == "" {
		spec.Resources.CPU = h.Defaults.DefaultCPULimit
	}
	if spec.Resources.Memory == "" {
		spec.Resources.Memory = h.Defaults.DefaultMemoryLimit
	}
	if spec.Resources.CPURequest == "" {
		spec.Resources.CPURequest = h.Defaults.DefaultCPURequest
	}
	if spec.Resources.MemoryRequest == "" {
		spec.Resources.MemoryRequest = h.Defaults.DefaultMemoryRequest
	}
	if spec.Storage != nil && spec.Storage.Size == "" {
		spec.Storage.Size = h.Defaults.DefaultStorageSize
	}
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
