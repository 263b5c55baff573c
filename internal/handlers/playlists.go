package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/soundshare-api/internal/dto"
	apierrors "github.com/yukikurage/soundshare-api/internal/errors"
	"github.com/yukikurage/soundshare-api/internal/middleware"
	"github.com/yukikurage/soundshare-api/internal/services"
)

type PlaylistHandler struct {
	playlists *services.PlaylistService
}

func NewPlaylistHandler(playlists *services.PlaylistService) *PlaylistHandler {
	return &PlaylistHandler{playlists: playlists}
}

// CreatePlaylist creates a playlist owned by the current user
func (h *PlaylistHandler) CreatePlaylist(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreatePlaylistRequest struct {
		Title     string `json:"title" binding:"required,max=255"`
		IsPrivate bool   `json:"is_private"`
	}

	var req CreatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	playlist, err := h.playlists.CreatePlaylist(services.CreatePlaylistInput{
		Title:     req.Title,
		IsPrivate: req.IsPrivate,
		OwnerID:   userID,
	})
	if err != nil {
		respondPlaylistError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToPlaylistDTO(*playlist))
}

// ListPlaylists lists the playlists of ?user_id, or of the current user
func (h *PlaylistHandler) ListPlaylists(c *gin.Context) {
	viewerID := middleware.ViewerID(c)

	var ownerID uint64
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid user ID")
			return
		}
		ownerID = id
	} else if viewerID != nil {
		ownerID = *viewerID
	} else {
		apierrors.BadRequest(c, "user_id is required")
		return
	}

	playlists, err := h.playlists.ListPlaylists(ownerID, viewerID)
	if err != nil {
		respondPlaylistError(c, err)
		return
	}

	items := make([]dto.PlaylistDTO, len(playlists))
	for i, playlist := range playlists {
		items[i] = dto.ToPlaylistDTO(playlist)
	}
	c.JSON(http.StatusOK, gin.H{"playlists": items})
}

// GetPlaylist returns a playlist with its tracks
func (h *PlaylistHandler) GetPlaylist(c *gin.Context) {
	playlistID, ok := parseID(c, "id")
	if !ok {
		return
	}

	playlist, err := h.playlists.GetPlaylist(playlistID, middleware.ViewerID(c))
	if err != nil {
		respondPlaylistError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPlaylistDTO(*playlist))
}

// AddTrack appends an asset. Runs behind RequirePlaylistOwner.
func (h *PlaylistHandler) AddTrack(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	playlist, ok := middleware.GetPlaylist(c)
	if !ok {
		apierrors.InternalError(c, "Playlist not found in context")
		return
	}

	type AddTrackRequest struct {
		AssetID uint64 `json:"asset_id" binding:"required"`
	}

	var req AddTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	track, err := h.playlists.AddTrack(userID, playlist.ID, req.AssetID)
	if err != nil {
		respondPlaylistError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTrackDTO(*track))
}

// RemoveTrack removes one track. Runs behind RequirePlaylistOwner.
func (h *PlaylistHandler) RemoveTrack(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	playlist, ok := middleware.GetPlaylist(c)
	if !ok {
		apierrors.InternalError(c, "Playlist not found in context")
		return
	}

	trackID, ok := parseID(c, "track_id")
	if !ok {
		return
	}

	if err := h.playlists.RemoveTrack(c.Request.Context(), userID, playlist.ID, trackID); err != nil {
		respondPlaylistError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeletePlaylist removes a playlist with its tracks. Runs behind RequirePlaylistOwner.
func (h *PlaylistHandler) DeletePlaylist(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	playlist, ok := middleware.GetPlaylist(c)
	if !ok {
		apierrors.InternalError(c, "Playlist not found in context")
		return
	}

	report, err := h.playlists.DeletePlaylist(c.Request.Context(), userID, playlist.ID)
	if err != nil {
		respondPlaylistError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCascadeReportDTO(report))
}

func respondPlaylistError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidPlaylistTitle):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrFavoritesReserved):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrPlaylistNotFound),
		errors.Is(err, services.ErrTrackNotFound),
		errors.Is(err, services.ErrAssetNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		respondCascadeError(c, err)
	}
}
