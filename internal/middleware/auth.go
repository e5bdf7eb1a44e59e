package middleware

import (
	"net/http"
	"strings"

	"office-management-backend/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const identityKey = "identity"

// Identity is the per-request caller context every office-scoped handler
// depends on. It is the narrow contract with the auth subsystem.
type Identity struct {
	UserID   uuid.UUID
	OfficeID uuid.UUID
	Role     string
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
			return
		}

		claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		c.Set(identityKey, Identity{
			UserID:   claims.UserID,
			OfficeID: claims.OfficeID,
			Role:     claims.Role,
		})
		c.Next()
	}
}

// RequireRole restricts an endpoint to the listed roles. Must run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := CurrentIdentity(c)
		for _, role := range roles {
			if ident.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Insufficient role"})
	}
}

func CurrentIdentity(c *gin.Context) Identity {
	v, _ := c.Get(identityKey)
	ident, _ := v.(Identity)
	return ident
}
