package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newRouter(logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger(logger))
	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})
	r.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	return r
}

func TestRequestID_Generated(t *testing.T) {
	r := newRouter(zap.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	rid := w.Header().Get("X-Request-ID")
	assert.Len(t, rid, 36)
	assert.Equal(t, rid, w.Body.String())
}

func TestRequestID_Propagated(t *testing.T) {
	r := newRouter(zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 65))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := newRouter(zap.New(core))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(http.StatusNotFound), entries[1].ContextMap()["status"])
}
