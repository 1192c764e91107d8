// File: backend/services/auth-service/internal/handler/http/middleware/session.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionIDHeader carries the console session identifier on every API call.
const SessionIDHeader = "X-Session-Id"

// SessionIDKey is the gin context key the extracted session ID lives under.
const SessionIDKey = "session_id"

// SessionMiddleware requires the session ID header on session-scoped routes.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionIDHeader)
		if sessionID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "missing " + SessionIDHeader + " header",
				"code":  "missing_session_id",
			})
			return
		}
		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}

// SessionID returns the session ID extracted by SessionMiddleware.
func SessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
