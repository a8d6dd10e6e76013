package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandlerHealth(t *testing.T) {
	t.Run("healthy without checks", func(t *testing.T) {
		h := NewSystemHandler("shopfront", "1.0.0")
		c, w := newTestContext(http.MethodGet, "/health")

		h.Health(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Empty(t, resp.Components)
	})

	t.Run("reports each component", func(t *testing.T) {
		h := NewSystemHandler("shopfront", "1.0.0").
			AddCheck("database", func(ctx context.Context) error { return nil }).
			AddCheck("redis", func(ctx context.Context) error { return errors.New("dial tcp: refused") })
		c, w := newTestContext(http.MethodGet, "/health")

		h.Health(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, map[string]string{"database": "ok", "redis": "error"}, resp.Components)
		assert.NotContains(t, w.Body.String(), "refused")
	})

	t.Run("checks get a deadline", func(t *testing.T) {
		var hasDeadline bool
		h := NewSystemHandler("shopfront", "1.0.0").
			AddCheck("database", func(ctx context.Context) error {
				_, hasDeadline = ctx.Deadline()
				return nil
			})
		c, _ := newTestContext(http.MethodGet, "/health")

		h.Health(c)

		assert.True(t, hasDeadline)
	})
}

func TestSystemHandlerGetSystemInfo(t *testing.T) {
	h := NewSystemHandler("shopfront", "2.3.4")
	c, w := newTestContext(http.MethodGet, "/api/v1/system/info")

	h.GetSystemInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool               `json:"success"`
		Data    SystemInfoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "shopfront", resp.Data.Name)
	assert.Equal(t, "2.3.4", resp.Data.Version)
	assert.NotEmpty(t, resp.Data.GoVersion)
}

func TestSystemHandlerPing(t *testing.T) {
	h := NewSystemHandler("shopfront", "1.0.0")
	c, w := newTestContext(http.MethodGet, "/api/v1/system/ping")

	h.Ping(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"pong"`)
}
