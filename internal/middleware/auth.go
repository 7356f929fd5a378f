package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bluemedix-system/internal/auth"
	"bluemedix-system/internal/database/models"
)

const principalKey = "principal"

// Principal is the authenticated caller, attached to the gin context by
// JWTAuth and read back by handlers via GetPrincipal.
type Principal struct {
	UserID      int64
	Role        string
	FranchiseID *int64
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// ManagesFranchise reports whether the caller is the order manager bound
// to the given franchise.
func (p Principal) ManagesFranchise(franchiseID int64) bool {
	return p.Role == models.RoleOrderManager && p.FranchiseID != nil && *p.FranchiseID == franchiseID
}

func JWTAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "authorization header required",
			})
			return
		}

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "authorization header must be a bearer token",
			})
			return
		}

		claims, err := tokens.ParseToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired token",
			})
			return
		}

		c.Set(principalKey, Principal{
			UserID:      claims.UserID,
			Role:        claims.Role,
			FranchiseID: claims.FranchiseID,
		})
		c.Next()
	}
}

// RequireRoles aborts with 403 unless the authenticated principal holds
// one of the given roles. Must run after JWTAuth.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "authentication required",
			})
			return
		}
		for _, role := range roles {
			if p.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "insufficient permissions",
		})
	}
}

func GetPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
