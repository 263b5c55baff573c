package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/soundshare-api/internal/dto"
	apierrors "github.com/yukikurage/soundshare-api/internal/errors"
	"github.com/yukikurage/soundshare-api/internal/middleware"
	"github.com/yukikurage/soundshare-api/internal/services"
	"github.com/yukikurage/soundshare-api/internal/utils"
)

type AssetHandler struct {
	assets  *services.AssetService
	listens *services.ListenService
}

func NewAssetHandler(assets *services.AssetService, listens *services.ListenService) *AssetHandler {
	return &AssetHandler{
		assets:  assets,
		listens: listens,
	}
}

// CreateAsset registers an uploaded track for the current user
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateAssetRequest struct {
		Title         string `json:"title" binding:"required,max=255"`
		AudioKey      string `json:"audio_key" binding:"max=255"`
		LengthSeconds int    `json:"length_seconds" binding:"min=0"`
		Published     *bool  `json:"published"`
	}

	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	published := true
	if req.Published != nil {
		published = *req.Published
	}

	asset, err := h.assets.CreateAsset(services.CreateAssetInput{
		OwnerID:       userID,
		Title:         req.Title,
		AudioKey:      req.AudioKey,
		LengthSeconds: req.LengthSeconds,
		Published:     published,
	})
	if err != nil {
		respondAssetError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToAssetDTO(*asset))
}

// ListAssets lists assets, optionally of one user (?login=)
func (h *AssetHandler) ListAssets(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	assets, total, err := h.assets.ListAssets(services.ListAssetsInput{
		OwnerLogin: c.Query("login"),
		ViewerID:   middleware.ViewerID(c),
		Page:       params.Page,
		PageSize:   params.Limit,
	})
	if err != nil {
		respondAssetError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAssetListResponse(assets, params.Page, params.Limit, total))
}

// DeleteAsset removes an asset with its comments, tracks and listens
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	report, err := h.assets.DeleteAsset(c.Request.Context(), userID, assetID)
	if err != nil {
		respondAssetError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCascadeReportDTO(report))
}

// RecordListen stores one play. Anonymous plays are allowed.
func (h *AssetHandler) RecordListen(c *gin.Context) {
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	listen, err := h.listens.RecordListen(services.RecordListenInput{
		AssetID:    assetID,
		ListenerID: middleware.ViewerID(c),
		RemoteIP:   c.ClientIP(),
		Source:     c.Request.Referer(),
	})
	if err != nil {
		respondAssetError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToListenDTO(*listen))
}

func respondAssetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidAssetTitle):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAssetNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		respondCascadeError(c, err)
	}
}
