package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRoles allows the request through iff an identity is present and
// it holds every required role. The check is subset membership: an
// identity with {admin, user} satisfies a requirement of {user}.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok || !identity.HasRoles(roles...) {
			Deny(c)
			return
		}
		c.Next()
	}
}

// Deny aborts with the one denial the API ever gives. Missing token,
// bad signature, expiry, no session, and insufficient roles are
// indistinguishable from the outside.
func Deny(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":  "failure",
		"message": "Unauthorized",
	})
}
