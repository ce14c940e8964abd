package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles the liveness probe endpoint.
type HealthHandler struct {
	*BaseHandler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{BaseHandler: NewBaseHandler()}
}

// HealthCheck returns the health status of the service.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "sixthed-backend",
	})
}
