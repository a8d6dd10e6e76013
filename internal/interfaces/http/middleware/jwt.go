package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = logger.GinUserIDKey
	JWTRoleKey    = "jwt_role"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "

	// TokenQueryParam carries the access token where headers cannot be set (websocket upgrade)
	TokenQueryParam = "token"
)

// RoleAdmin is the role claim value granting the admin surface
const RoleAdmin = "admin"

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// TokenBlacklist is optional; revoked tokens are rejected when set
	TokenBlacklist auth.TokenBlacklist
	// QueryTokenPaths accept ?token= in place of the Authorization header
	QueryTokenPaths []string
	// Optional. When nil failures are answered with 401 in the API envelope.
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService:      jwtService,
		QueryTokenPaths: []string{"/api/v1/ws"},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractToken(c, cfg.QueryTokenPaths)
		if err != nil {
			handleAuthError(c, cfg, err)
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err)
			return
		}

		if cfg.TokenBlacklist != nil && isRevoked(c, cfg, claims) {
			handleAuthError(c, cfg, auth.ErrTokenRevoked)
			return
		}

		setClaims(c, claims)
		if cfg.Logger != nil {
			cfg.Logger.Debug("JWT authentication successful",
				zap.String("user_id", claims.UserID),
				zap.String("role", claims.Role),
			)
		}
		c.Next()
	}
}

// OptionalJWTAuthMiddleware extracts claims when a valid bearer token is present
// and lets anonymous requests through otherwise.
func OptionalJWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractToken(c, nil)
		if err != nil {
			c.Next()
			return
		}
		if claims, err := jwtService.ValidateAccessToken(tokenString); err == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// RequireRole rejects authenticated users whose role is not listed. Must follow JWTAuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			abortWith(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if !slices.Contains(roles, claims.Role) {
			abortWith(c, http.StatusForbidden, dto.ErrCodeForbidden, "Insufficient permissions")
			return
		}
		c.Next()
	}
}

// RequireAdmin is RequireRole(RoleAdmin)
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(RoleAdmin)
}

var errMissingToken = errors.New("missing token")

func extractToken(c *gin.Context, queryPaths []string) (string, error) {
	header := c.GetHeader(AuthHeaderKey)
	if header != "" {
		if !strings.HasPrefix(header, BearerPrefix) {
			return "", auth.ErrInvalidToken
		}
		if token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix)); token != "" {
			return token, nil
		}
		return "", errMissingToken
	}
	if slices.Contains(queryPaths, c.Request.URL.Path) {
		if token := c.Query(TokenQueryParam); token != "" {
			return token, nil
		}
	}
	return "", errMissingToken
}

// isRevoked checks both the token ID and the user-wide cutoff.
// Blacklist errors are logged and treated as not revoked.
func isRevoked(c *gin.Context, cfg JWTMiddlewareConfig, claims *auth.Claims) bool {
	ctx := c.Request.Context()
	log := logger.Ctx(ctx, cfg.Logger)

	if claims.ID != "" {
		revoked, err := cfg.TokenBlacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			log.Error("Failed to check token blacklist", zap.String("jti", claims.ID), zap.Error(err))
		} else if revoked {
			return true
		}
	}

	revoked, err := cfg.TokenBlacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
	if err != nil {
		log.Error("Failed to check user token revocation", zap.String("user_id", claims.UserID), zap.Error(err))
		return false
	}
	return revoked
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTRoleKey, claims.Role)
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
}

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		c.Abort()
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
	}

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, message = dto.ErrCodeTokenInvalid, "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrInvalidClaims):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}
	abortWith(c, http.StatusUnauthorized, code, message)
}

func abortWith(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTUserID retrieves the user ID from JWT claims in context
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTRole retrieves the role from JWT claims in context
func GetJWTRole(c *gin.Context) string {
	return c.GetString(JWTRoleKey)
}

// IsAdmin reports whether the authenticated user holds the admin role
func IsAdmin(c *gin.Context) bool {
	return GetJWTRole(c) == RoleAdmin
}
