package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"crcsite/internal/models"
	"crcsite/internal/security"
)

const identityKey = "identity"

// BearerAuth authenticates API requests from the Authorization header.
// A missing header, a malformed header, and an invalid or expired token
// all produce the same denial.
func BearerAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			Deny(c)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseToken(tokenStr, secret)
		if err != nil || claims.Kind != security.TokenKindAuth {
			Deny(c)
			return
		}

		c.Set(identityKey, models.Identity{
			Email: claims.Subject,
			Roles: claims.Roles,
		})

		c.Next()
	}
}

// CurrentIdentity returns the authenticated principal for the request,
// if any guard has attached one.
func CurrentIdentity(c *gin.Context) (models.Identity, bool) {
	val, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := val.(models.Identity)
	return identity, ok
}
