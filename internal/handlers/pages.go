package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Index renders the submission form.
func Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{})
}
