package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/soundshare-api/internal/dto"
	apierrors "github.com/yukikurage/soundshare-api/internal/errors"
	"github.com/yukikurage/soundshare-api/internal/middleware"
	"github.com/yukikurage/soundshare-api/internal/services"
)

const (
	landingPage = "/"
	loginPage   = "/login"
)

// UserHandler serves account removal, profiles, statistics and favorites.
type UserHandler struct {
	moderation *services.ModerationService
	stats      *services.StatisticsService
	playlists  *services.PlaylistService
}

func NewUserHandler(moderation *services.ModerationService, stats *services.StatisticsService, playlists *services.PlaylistService) *UserHandler {
	return &UserHandler{
		moderation: moderation,
		stats:      stats,
		playlists:  playlists,
	}
}

// DestroyUser removes an account. Denied requests and unknown logins get the
// same answer as a moderator's successful removal.
func (h *UserHandler) DestroyUser(c *gin.Context) {
	actorID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	result, err := h.moderation.DestroyUser(c.Request.Context(), actorID, c.Param("login"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusOK, dto.DestroyResponse{Redirect: landingPage})
			return
		}
		respondCascadeError(c, err)
		return
	}

	switch result.Outcome {
	case services.OutcomeLoggedOut:
		clearSession(c)
		c.JSON(http.StatusOK, dto.DestroyResponse{Redirect: loginPage, Queued: result.Queued})
	case services.OutcomeModeratorReturn:
		c.JSON(http.StatusOK, dto.DestroyResponse{Redirect: landingPage, Queued: result.Queued})
	default:
		c.JSON(http.StatusOK, dto.DestroyResponse{Redirect: landingPage})
	}
}

// UpdateProfile edits the current user's bio. A bio judged spam removes the
// account and ends the session.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type UpdateProfileRequest struct {
		Bio string `json:"bio" binding:"max=5000"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.moderation.UpdateProfile(c.Request.Context(), userID, services.ProfileInput{
		Bio:       req.Bio,
		RemoteIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			clearSession(c)
			apierrors.Unauthorized(c, "")
			return
		}
		respondCascadeError(c, err)
		return
	}

	if result.LoggedOut {
		clearSession(c)
		c.JSON(http.StatusOK, dto.DestroyResponse{Redirect: loginPage})
		return
	}

	c.JSON(http.StatusOK, dto.ToMeDTO(*result.User))
}

// GetStats returns listening statistics for a user.
func (h *UserHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.Stats(c.Param("login"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			apierrors.NotFound(c, "User not found")
			return
		}
		apierrors.InternalError(c, "Failed to compute statistics")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ToggleFavorite favorites or unfavorites an asset for the current user.
func (h *UserHandler) ToggleFavorite(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	assetID, ok := parseID(c, "asset_id")
	if !ok {
		return
	}

	result, err := h.playlists.ToggleFavorite(c.Request.Context(), userID, assetID)
	if err != nil {
		respondPlaylistError(c, err)
		return
	}

	response := dto.FavoriteDTO{Favorited: result.Favorited}
	if result.Track != nil {
		track := dto.ToTrackDTO(*result.Track)
		response.Track = &track
	}
	c.JSON(http.StatusOK, response)
}
