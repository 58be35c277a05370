package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDKey is the gin context key the request id is stored under.
	RequestIDKey = "requestID"
	// RequestIDHeader carries the id on requests and responses.
	RequestIDHeader = "X-Request-Id"
)

// RequestID tags every request with an id, propagating an incoming
// X-Request-Id header or generating a fresh one. The id is echoed on the
// response so clients can reference it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}
