package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/soundshare-api/internal/constants"
	apierrors "github.com/yukikurage/soundshare-api/internal/errors"
)

// RequireAuth rejects requests without a session user with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := sessionUserID(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// OptionalAuth stores the session user, if any, for public routes whose
// output depends on the viewer.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := sessionUserID(c); ok {
			c.Set(constants.ContextKeyUserID, userID)
		}
		c.Next()
	}
}

// GetUserID returns the user ID stored by RequireAuth or OptionalAuth.
func GetUserID(c *gin.Context) (uint64, bool) {
	value, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUserID(value)
}

// ViewerID returns the current user ID as a pointer, nil for anonymous requests.
func ViewerID(c *gin.Context) *uint64 {
	if userID, ok := GetUserID(c); ok {
		return &userID
	}
	return nil
}

func sessionUserID(c *gin.Context) (uint64, bool) {
	return toUserID(sessions.Default(c).Get(constants.ContextKeyUserID))
}

// toUserID normalises IDs read back from a session store; encoders differ in
// the integer type they restore.
func toUserID(value interface{}) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), v != 0
	case int64:
		return uint64(v), v > 0
	case int:
		return uint64(v), v > 0
	default:
		return 0, false
	}
}
