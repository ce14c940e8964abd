package http

import (
	"sixthed-backend/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON shape every handler error returns.
type ErrorResponse struct {
	Message string   `json:"message"`
	Clauses []string `json:"clauses,omitempty"`
}

// BaseHandler holds the logger every handler needs; embedded rather than
// passed around so handler methods read the same as the teacher's plain
// gin.Context methods.
type BaseHandler struct {
	logger *zap.Logger
}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{logger: logger.Get()}
}

// WriteError responds with a JSON ErrorResponse at the given status.
func (h *BaseHandler) WriteError(c *gin.Context, status int, message string, clauses ...string) {
	c.JSON(status, ErrorResponse{Message: message, Clauses: clauses})
}

// LogRequest logs the incoming HTTP request under handlerName.
func (h *BaseHandler) LogRequest(c *gin.Context, handlerName string) {
	h.logger.Info("client request received",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("handler", handlerName),
		zap.String("remote_addr", c.ClientIP()),
	)
}
