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

// AdminHandler serves moderator-only routes. Every route runs behind
// RequireModerator.
type AdminHandler struct {
	moderation *services.ModerationService
}

func NewAdminHandler(moderation *services.ModerationService) *AdminHandler {
	return &AdminHandler{moderation: moderation}
}

// ShowUser inspects an account; ?with_deleted=true includes removed ones
func (h *AdminHandler) ShowUser(c *gin.Context) {
	withDeleted := c.Query("with_deleted") == "true"

	user, err := h.moderation.InspectUser(c.Param("login"), withDeleted)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			apierrors.NotFound(c, "User not found")
			return
		}
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, dto.ToAdminUserDTO(*user))
}

// FlagSpam marks an account as spam and removes it
func (h *AdminHandler) FlagSpam(c *gin.Context) {
	actorID, _ := middleware.GetUserID(c)

	result, err := h.moderation.FlagSpam(c.Request.Context(), actorID, c.Param("login"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			apierrors.NotFound(c, "User not found")
			return
		}
		respondCascadeError(c, err)
		return
	}

	if result.Outcome == services.OutcomeDenied {
		apierrors.Forbidden(c, "Moderators only")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"redirect": landingPage,
		"queued":   result.Queued,
		"report":   dto.ToCascadeReportDTO(result.Report),
	})
}
