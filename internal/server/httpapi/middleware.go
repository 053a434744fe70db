package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skydexapp/skydex/internal/common"
	"github.com/skydexapp/skydex/internal/server/auth"
)

// RequestID tags every response with an id clients can quote when
// reporting a failed recognition.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// userIDKey is the gin context key the auth middleware stores the
// authenticated user id under.
const userIDKey = "userID"

// RequireAuth validates the Bearer token and stores the user id on the
// request context for the handlers.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "missing or invalid authorization header"})
			return
		}

		userID, err := auth.GetUserIDFromToken(header[7:], secret)
		if err != nil {
			detail := "invalid token"
			if errors.Is(err, common.ErrTokenExpired) {
				detail = "token expired, please log in again"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
