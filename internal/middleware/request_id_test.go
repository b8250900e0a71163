package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestIDRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID(), Recovery(zerolog.Nop()))
	engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, requestID(c))
	})
	engine.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})
	return engine
}

func TestRequestID_GeneratedWhenAbsent(t *testing.T) {
	engine := newRequestIDRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	id := rec.Header().Get("X-Request-Id")
	_, err := uuid.Parse(id)
	require.NoError(t, err, "generated request id must be a uuid")
	assert.Equal(t, id, rec.Body.String(), "handlers must see the same id")
}

func TestRequestID_CallerIDAdopted(t *testing.T) {
	engine := newRequestIDRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "caller-supplied")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "caller-supplied", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "caller-supplied", rec.Body.String())
}

func TestRecovery_PanicBecomesGeneric500(t *testing.T) {
	engine := newRequestIDRouter()

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal_server_error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "kaboom")
}
