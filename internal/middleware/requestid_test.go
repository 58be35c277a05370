package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})
	return router
}

func TestRequestIDGenerated(t *testing.T) {
	router := setupRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(rec, req)

	require.NotEmpty(t, rec.Body.String())
	require.Equal(t, rec.Body.String(), rec.Header().Get(RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	router := setupRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-abc")
	router.ServeHTTP(rec, req)

	require.Equal(t, "req-abc", rec.Body.String())
	require.Equal(t, "req-abc", rec.Header().Get(RequestIDHeader))
}
