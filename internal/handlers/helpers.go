package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"board-service/internal/middleware"
)

// requestIDFromContext returns the id set by the RequestID middleware,
// falling back to the header or a fresh id when the middleware is absent.
func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(middleware.RequestIDKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader(middleware.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDKey, requestID)
	return requestID
}
