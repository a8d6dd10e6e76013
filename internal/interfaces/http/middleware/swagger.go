package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
)

// SwaggerConfig controls who can read /swagger
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	// AllowedIPs accepts single addresses and CIDR ranges; empty allows everyone
	AllowedIPs []string
}

// SwaggerProtection guards the API docs. Disabled docs answer 404, callers
// outside AllowedIPs get 403, and with RequireAuth the JWT middleware runs last.
func SwaggerProtection(cfg SwaggerConfig, jwtMiddleware gin.HandlerFunc) gin.HandlerFunc {
	allowed := parseAllowList(cfg.AllowedIPs)
	restricted := len(cfg.AllowedIPs) > 0

	return func(c *gin.Context) {
		if !cfg.Enabled {
			abortWith(c, http.StatusNotFound, dto.ErrCodeNotFound, "API documentation is not available")
			return
		}
		if restricted && !allowed.contains(c.ClientIP()) {
			abortWith(c, http.StatusForbidden, dto.ErrCodeForbidden, "Access to API documentation is restricted")
			return
		}
		if cfg.RequireAuth && jwtMiddleware != nil {
			if jwtMiddleware(c); c.IsAborted() {
				return
			}
		}
		c.Next()
	}
}

type allowList []netip.Prefix

// parseAllowList skips entries that are neither an address nor a prefix
func parseAllowList(entries []string) allowList {
	var list allowList
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			if prefix, err := netip.ParsePrefix(entry); err == nil {
				list = append(list, prefix.Masked())
			}
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			list = append(list, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return list
}

func (l allowList) contains(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range l {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
