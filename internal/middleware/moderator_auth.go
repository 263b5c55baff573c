package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/soundshare-api/internal/constants"
	"github.com/yukikurage/soundshare-api/internal/database"
	apierrors "github.com/yukikurage/soundshare-api/internal/errors"
	"github.com/yukikurage/soundshare-api/internal/models"
)

// RequireModerator lets only live moderator accounts through.
// Must run after RequireAuth.
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var user models.User
		if err := database.GetDB().First(&user, userID).Error; err != nil {
			// Session of a removed account
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if !user.IsModerator {
			apierrors.Forbidden(c, "Moderators only")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyCurrentUser, user)
		c.Next()
	}
}
