package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// userIDKey is the gin context key holding the caller's identity.
const userIDKey = "user_id"

// extractUser extracts the caller from trusted proxy headers.
// Priority: X-Forwarded-User (oauth2-proxy) > X-Remote-User (kube-rbac-proxy).
func extractUser(c *gin.Context) string {
	if user := strings.TrimSpace(c.GetHeader("X-Forwarded-User")); user != "" {
		return user
	}
	return strings.TrimSpace(c.GetHeader("X-Remote-User"))
}

// requireUser rejects requests without an identity and stores it for handlers.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := extractUser(c)
		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
			return
		}
		c.Set(userIDKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
