package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/soundshare-api/internal/constants"
	"github.com/yukikurage/soundshare-api/internal/database"
	apierrors "github.com/yukikurage/soundshare-api/internal/errors"
	"github.com/yukikurage/soundshare-api/internal/models"
)

// RequirePlaylistOwner loads the playlist named by the :id parameter and
// checks that the current user owns it
func RequirePlaylistOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		playlistID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid playlist ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var playlist models.Playlist
		err = database.GetDB().
			Where("id = ? AND user_id = ?", playlistID, userID).
			First(&playlist).Error
		if err != nil {
			// Return 404 instead of 403 to avoid leaking playlist existence
			apierrors.NotFound(c, "Playlist not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyPlaylist, playlist)
		c.Next()
	}
}

// GetPlaylist returns the playlist stored by RequirePlaylistOwner
func GetPlaylist(c *gin.Context) (models.Playlist, bool) {
	value, exists := c.Get(constants.ContextKeyPlaylist)
	if !exists {
		return models.Playlist{}, false
	}
	playlist, ok := value.(models.Playlist)
	return playlist, ok
}
