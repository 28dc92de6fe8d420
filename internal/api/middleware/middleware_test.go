package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

// TestNewCORSConfig tests the wildcard fallback and that credentials
// are only allowed for explicit origins
func TestNewCORSConfig(t *testing.T) {
	cfg := NewCORSConfig(nil)
	assert.Equal(t, []string{"*"}, cfg.AllowOrigins)
	assert.False(t, cfg.AllowCredentials)

	cfg = NewCORSConfig([]string{"https://ui.example.com"})
	assert.Equal(t, []string{"https://ui.example.com"}, cfg.AllowOrigins)
	assert.True(t, cfg.AllowCredentials)
}

// TestCORSAllowsConfiguredOrigin tests that a configured origin is
// echoed in the response headers
func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := newTestRouter(CORS(NewCORSConfig([]string{"https://ui.example.com"})))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://ui.example.com")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://ui.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

// TestRateLimitRejectsBurstOverflow tests that requests beyond the
// burst get a 429
func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	r := newTestRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))

	var codes []int
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

// TestRateLimitIsPerClient tests that each client IP gets its own bucket
func TestRateLimitIsPerClient(t *testing.T) {
	r := newTestRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))

	send := func(addr string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = addr
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1234"))
	// A second client is unaffected by the first one's exhaustion.
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234"))
}
