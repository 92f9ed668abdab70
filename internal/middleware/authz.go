package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pipeline/internal/authz"
)

func RequireRoles(allowed ...int) gin.HandlerFunc {
	allowedSet := map[int]struct{}{}
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		roleID, exists := c.Get(CtxRoleID)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no role in context", "code": "UNAUTHORIZED"})
			return
		}
		id, _ := roleID.(int)
		if _, ok := allowedSet[id]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "code": "FORBIDDEN"})
			return
		}
		c.Next()
	}
}

// ReadOnlyGuard blocks unsafe methods for read-only roles.
func ReadOnlyGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(CtxRoleID)
		roleID, _ := v.(int)
		if authz.IsReadOnly(roleID) {
			switch c.Request.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "read-only role", "code": "FORBIDDEN"})
				return
			}
		}
		c.Next()
	}
}
