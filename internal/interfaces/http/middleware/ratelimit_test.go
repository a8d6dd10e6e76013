package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Run("allows up to limit then blocks", func(t *testing.T) {
		rl := NewRateLimiter(3, time.Hour)
		defer rl.Stop()

		assert.True(t, rl.Allow("a"))
		assert.True(t, rl.Allow("a"))
		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Hour)
		defer rl.Stop()

		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))
		assert.True(t, rl.Allow("b"))
	})

	t.Run("refills over the window", func(t *testing.T) {
		rl := NewRateLimiter(1, 50*time.Millisecond)
		defer rl.Stop()

		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))
		assert.Eventually(t, func() bool { return rl.Allow("a") }, time.Second, 10*time.Millisecond)
	})

	t.Run("remaining", func(t *testing.T) {
		rl := NewRateLimiter(5, time.Hour)
		defer rl.Stop()

		assert.Equal(t, 5, rl.Remaining("unknown"))
		rl.Allow("a")
		rl.Allow("a")
		assert.Equal(t, 3, rl.Remaining("a"))
	})

	t.Run("non-positive settings get defaults", func(t *testing.T) {
		rl := NewRateLimiter(0, 0)
		defer rl.Stop()

		assert.Equal(t, 1, rl.Limit())
		assert.Equal(t, 60, rl.retryAfter())
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Minute)
		rl.Stop()
		rl.Stop()
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	router := gin.New()
	router.Use(RateLimit(rl))
	router.POST("/api/v1/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := send("10.0.0.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	rec = send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, dto.ErrCodeRateLimited, errorCode(t, rec))

	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
}

func TestClientKey(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "192.0.2.7:5555"

	assert.Equal(t, "ip:192.0.2.7", ClientKey(c))

	c.Set(JWTUserIDKey, "u-1")
	assert.Equal(t, "user:u-1", ClientKey(c))
}

func TestRateLimitByKey(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	router := gin.New()
	router.Use(RateLimitByKey(rl, func(c *gin.Context) string { return c.GetHeader("X-Key") }))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Key", key)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("k1"))
	assert.Equal(t, http.StatusTooManyRequests, send("k1"))
	assert.Equal(t, http.StatusOK, send("k2"))
}
