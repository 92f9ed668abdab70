package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"pipeline/internal/authz"
)

const (
	CtxTenantID = "tenant_id"
	CtxUserID   = "user_id"
	CtxRoleID   = "role_id"
)

type Claims struct {
	TenantID int64 `json:"tenant_id"`
	UserID   int64 `json:"user_id"`
	RoleID   int   `json:"role_id"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 access token for the given identity.
func IssueToken(secret []byte, tenantID, userID int64, roleID int, ttl time.Duration) (string, error) {
	if tenantID <= 0 || userID <= 0 {
		return "", errors.New("tenant and user ids must be positive")
	}
	if !authz.IsKnown(roleID) {
		return "", errors.New("unknown role")
	}
	now := time.Now()
	claims := &Claims{
		TenantID: tenantID,
		UserID:   userID,
		RoleID:   roleID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// public endpoints that need no token
func isPublicPath(path string) bool {
	return strings.HasPrefix(path, "/swagger") ||
		strings.HasPrefix(path, "/healthz") ||
		path == "/metrics"
}

// AuthMiddleware validates the bearer token and puts tenant, user and role
// ids into the gin context.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header", "code": "UNAUTHORIZED"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(token *jwt.Token) (interface{}, error) {
			// HMAC only
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return secret, nil
		}, jwt.WithLeeway(2*time.Minute), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "code": "UNAUTHORIZED"})
			return
		}
		if claims.TenantID <= 0 || claims.UserID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token carries no tenant", "code": "UNAUTHORIZED"})
			return
		}

		c.Set(CtxTenantID, claims.TenantID)
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRoleID, claims.RoleID)
		c.Next()
	}
}
