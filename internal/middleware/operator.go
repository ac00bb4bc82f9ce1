package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/comanda-app/backend/pkg/response"
)

// HeaderOperatorKey carries the operator key on provisioning requests.
const HeaderOperatorKey = "X-Admin-Secret"

// RequireOperatorKey gates provisioning endpoints behind a static shared key.
// The comparison is plain equality. An empty key rejects every request.
func RequireOperatorKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || c.GetHeader(HeaderOperatorKey) != key {
			response.Forbidden(c, "operator key required")
			c.Abort()
			return
		}
		c.Next()
	}
}
