package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/comanda-app/backend/internal/auth"
	"github.com/comanda-app/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for user role in gin context.
	ContextUserRole = "user_role"
	// ContextTenantID is the key for the acting tenant ID in gin context.
	// It is absent for superadmins.
	ContextTenantID = "tenant_id"
	// ContextTenantSlug is the key for the acting tenant slug in gin context.
	ContextTenantSlug = "tenant_slug"
)

// JWT returns a middleware that validates the bearer token and sets claims in
// context. A missing token is 401; a token that fails validation is 403.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Forbidden(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		if claims.TenantID != nil {
			c.Set(ContextTenantID, *claims.TenantID)
		}
		c.Set(ContextTenantSlug, claims.Slug)
		c.Next()
	}
}

// TenantID returns the acting tenant from context.
func TenantID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextTenantID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// MustTenantID returns the acting tenant; only call behind RequireTenant.
func MustTenantID(c *gin.Context) int64 {
	return c.MustGet(ContextTenantID).(int64)
}
