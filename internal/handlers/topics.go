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

type TopicHandler struct {
	topics *services.TopicService
}

func NewTopicHandler(topics *services.TopicService) *TopicHandler {
	return &TopicHandler{topics: topics}
}

func (h *TopicHandler) CreateTopic(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTopicRequest struct {
		Title string `json:"title" binding:"required,max=255"`
	}

	var req CreateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	topic, err := h.topics.CreateTopic(userID, req.Title)
	if err != nil {
		respondTopicError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTopicDTO(*topic))
}

func (h *TopicHandler) DeleteTopic(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	topicID, ok := parseID(c, "id")
	if !ok {
		return
	}

	report, err := h.topics.DeleteTopic(c.Request.Context(), userID, topicID)
	if err != nil {
		respondTopicError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCascadeReportDTO(report))
}

func respondTopicError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTopicTitle):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTopicNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		respondCascadeError(c, err)
	}
}
