package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/chainguard/domain"
)

// RequireSession aborts with 401 unless a user is signed in, and puts the
// user's id and email in the gin context otherwise.
func RequireSession(auth domain.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := auth.Session()
		if !session.Authenticated || session.User == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not signed in"})
			c.Abort()
			return
		}

		c.Set("user_id", session.User.ID)
		c.Set("user_email", session.User.Email)
		c.Next()
	}
}
