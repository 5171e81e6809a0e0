package middleware

import (
	"github.com/gin-gonic/gin"

	"crcsite/internal/session"
)

// SessionCookie is the name of the UI login cookie.
const SessionCookie = "session_id"

// SessionAuth resolves the session cookie to an identity. Requests
// without a valid session stay anonymous; denying is RequireRoles'
// job so that public and guarded routes can share the middleware.
func SessionAuth(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || id == "" {
			c.Next()
			return
		}

		identity, err := store.Get(c.Request.Context(), id)
		if err != nil {
			c.Next()
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}
