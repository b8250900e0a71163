package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newCORSRouter(origins []string, environment string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CORS(origins, environment))
	engine.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func TestCORS_AllowedOrigin(t *testing.T) {
	engine := newCORSRouter([]string{"http://localhost:5173"}, "development")

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_DisallowedOriginNotReflected(t *testing.T) {
	engine := newCORSRouter([]string{"http://localhost:5173"}, "development")

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_EmptyAllowlistReflectsOnlyOutsideProduction(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")

	dev := httptest.NewRecorder()
	newCORSRouter(nil, "development").ServeHTTP(dev, req)
	assert.Equal(t, "http://localhost:5173", dev.Header().Get("Access-Control-Allow-Origin"))

	prod := httptest.NewRecorder()
	newCORSRouter(nil, "production").ServeHTTP(prod, req)
	assert.Empty(t, prod.Header().Get("Access-Control-Allow-Origin"),
		"credentialed responses must not reflect arbitrary origins in production")
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	engine := newCORSRouter([]string{"http://localhost:5173"}, "development")

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
