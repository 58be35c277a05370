package handlers

import (
	"github.com/gin-gonic/gin"
)

// RegisterDebugRoutes wires debug-only endpoints. The message listing
// exposes raw stored records including IP addresses, so it can be switched
// off in deployments where that is not wanted.
func RegisterDebugRoutes(router *gin.Engine, handler *MessageHandler, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/messages", handler.ListMessages)
}
