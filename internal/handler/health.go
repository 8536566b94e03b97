package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Returns the health status of the service
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Ready godoc
// @Summary      Readiness check
// @Description  Returns 200 once a refresh cycle has produced market stats, 503 before that
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /ready [get]
func (h *Handler) Ready(c *gin.Context) {
	d := h.store.Snapshot()
	body := gin.H{"loading": d.Loading}
	if !d.UpdatedAt.IsZero() {
		body["updatedAt"] = d.UpdatedAt
	}
	if d.Error != nil {
		body["error"] = *d.Error
	}

	if d.Stats == nil {
		body["status"] = "not ready"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "ready"
	c.JSON(http.StatusOK, body)
}
