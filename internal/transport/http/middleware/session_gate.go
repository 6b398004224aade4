package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/learnhub-client/internal/usecase"
)

// UserKey is the gin context key holding the authenticated profile.
const UserKey = "current_user"

// StateSource exposes the current authentication state.
type StateSource interface {
	Snapshot() usecase.AuthState
}

// RequireSession rejects requests arriving without an active session and
// stores the current profile on the gin context for downstream handlers.
func RequireSession(source StateSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := source.Snapshot()
		if !state.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		if state.User != nil {
			c.Set(UserKey, state.User)
		}

		c.Next()
	}
}
