package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwaggerProtection(t *testing.T) {
	deny := func(c *gin.Context) {
		abortWith(c, http.StatusUnauthorized, "UNAUTHORIZED", "no")
	}
	allow := func(c *gin.Context) {
		c.Set(JWTUserIDKey, "admin-1")
	}

	tests := []struct {
		name       string
		cfg        SwaggerConfig
		jwt        gin.HandlerFunc
		remoteAddr string
		want       int
	}{
		{"disabled", SwaggerConfig{Enabled: false}, nil, "10.0.0.1:1", http.StatusNotFound},
		{"open", SwaggerConfig{Enabled: true}, nil, "10.0.0.1:1", http.StatusOK},
		{"ip allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, nil, "10.0.0.1:1", http.StatusOK},
		{"ip denied", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, nil, "192.168.1.1:1", http.StatusForbidden},
		{"cidr allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, nil, "10.20.30.40:1", http.StatusOK},
		{"bad entries ignored", SwaggerConfig{Enabled: true, AllowedIPs: []string{"nope", "10.0.0.0/99"}}, nil, "10.0.0.1:1", http.StatusForbidden},
		{"auth denied", SwaggerConfig{Enabled: true, RequireAuth: true}, deny, "10.0.0.1:1", http.StatusUnauthorized},
		{"auth allowed", SwaggerConfig{Enabled: true, RequireAuth: true}, allow, "10.0.0.1:1", http.StatusOK},
		{"ip checked before auth", SwaggerConfig{Enabled: true, RequireAuth: true, AllowedIPs: []string{"10.0.0.1"}}, allow, "172.16.0.1:1", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/swagger/*any", SwaggerProtection(tt.cfg, tt.jwt), func(c *gin.Context) {
				c.String(http.StatusOK, "docs")
			})

			req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
			req.RemoteAddr = tt.remoteAddr
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAllowList(t *testing.T) {
	list := parseAllowList([]string{"10.0.0.1", " ::1 ", "192.168.7.9/16", "not-an-ip", "10.0.0.0/99"})
	require.Len(t, list, 3)

	assert.True(t, list.contains("10.0.0.1"))
	assert.True(t, list.contains("::1"))
	assert.True(t, list.contains("192.168.44.2"))
	assert.True(t, list.contains("::ffff:10.0.0.1"))
	assert.False(t, list.contains("10.0.0.2"))
	assert.False(t, list.contains(""))
	assert.False(t, allowList(nil).contains("10.0.0.1"))
}
