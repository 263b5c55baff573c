package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/soundshare-api/internal/dto"
	apierrors "github.com/yukikurage/soundshare-api/internal/errors"
	"github.com/yukikurage/soundshare-api/internal/middleware"
	"github.com/yukikurage/soundshare-api/internal/models"
	"github.com/yukikurage/soundshare-api/internal/services"
	"github.com/yukikurage/soundshare-api/internal/utils"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// CreateComment leaves a comment on an asset or topic. Guests may comment;
// they are identified by their address.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	type CreateCommentRequest struct {
		CommentableType models.CommentableType `json:"commentable_type" binding:"required"`
		CommentableID   uint64                 `json:"commentable_id" binding:"required"`
		Body            string                 `json:"body" binding:"required"`
		IsPrivate       bool                   `json:"is_private"`
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.comments.CreateComment(c.Request.Context(), services.CreateCommentInput{
		CommentableType: req.CommentableType,
		CommentableID:   req.CommentableID,
		CommenterID:     middleware.ViewerID(c),
		RemoteIP:        c.ClientIP(),
		UserAgent:       c.Request.UserAgent(),
		Body:            req.Body,
		IsPrivate:       req.IsPrivate,
	})
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// ListComments lists the comments of ?type=&id=
func (h *CommentHandler) ListComments(c *gin.Context) {
	id, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid commentable ID")
		return
	}
	params := utils.GetPaginationParams(c)

	comments, total, err := h.comments.ListComments(services.ListCommentsInput{
		CommentableType: models.CommentableType(c.Query("type")),
		CommentableID:   id,
		ViewerID:        middleware.ViewerID(c),
		Page:            params.Page,
		PageSize:        params.Limit,
	})
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommentListResponse(comments, params.Page, params.Limit, total))
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	commentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.comments.DeleteComment(c.Request.Context(), userID, commentID); err != nil {
		respondCommentError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCommentable),
		errors.Is(err, services.ErrInvalidCommentBody),
		errors.Is(err, services.ErrGuestCommentNeedsIP):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrDuplicateComment):
		apierrors.Duplicate(c, err.Error())
	case errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrCommentableNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		respondCascadeError(c, err)
	}
}
