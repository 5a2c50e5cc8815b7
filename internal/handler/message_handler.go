package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/meldings/meldings-api/internal/models"
	appErrors "github.com/meldings/meldings-api/pkg/errors"
	"github.com/meldings/meldings-api/pkg/response"
)

type messageService interface {
	PostMessage(ctx context.Context, claims *models.JWTClaims, req models.CreateMessageRequest) (*models.Message, error)
	PostReply(ctx context.Context, claims *models.JWTClaims, req models.CreateReplyRequest) (*models.Reply, error)
	ListMessages(ctx context.Context, claims *models.JWTClaims, filter models.MessageFilter) ([]models.Message, *models.Pagination, error)
	ListReplies(ctx context.Context, messageID int64) ([]models.Reply, error)
}

// MessageHandler wires HTTP endpoints to the message service.
type MessageHandler struct {
	service messageService
}

// NewMessageHandler creates a new handler.
func NewMessageHandler(svc messageService) *MessageHandler {
	return &MessageHandler{service: svc}
}

// Create godoc
// @Summary Post message
// @Description Store a note tied to a subject, authored by the caller
// @Tags Messages
// @Accept json
// @Produce json
// @Param payload body models.CreateMessageRequest true "Message payload"
// @Success 200 {object} models.CreateMessageResponse
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /messages [post]
func (h *MessageHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrNoCredentials)
		return
	}

	var req models.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}

	message, err := h.service.PostMessage(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKFlat(c, models.CreateMessageResponse{MessageID: message.ID})
}

// List godoc
// @Summary List messages
// @Description Students see their own messages, instructors see all
// @Tags Messages
// @Produce json
// @Param subject_id query int false "Filter by subject"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrNoCredentials)
		return
	}

	filter := models.MessageFilter{}
	if raw := c.Query("subject_id"); raw != "" {
		subjectID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subject_id must be an integer"))
			return
		}
		filter.SubjectID = &subjectID
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	messages, pagination, err := h.service.ListMessages(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, messages, pagination)
}

// CreateReply godoc
// @Summary Post reply
// @Description Store an instructor response to an existing message
// @Tags Messages
// @Accept json
// @Produce json
// @Param payload body models.CreateReplyRequest true "Reply payload"
// @Success 200 {object} models.CreateReplyResponse
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /replies [post]
func (h *MessageHandler) CreateReply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrNoCredentials)
		return
	}

	var req models.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reply payload"))
		return
	}

	reply, err := h.service.PostReply(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OKFlat(c, models.CreateReplyResponse{ReplyID: reply.ID})
}

// ListReplies godoc
// @Summary List replies
// @Description Returns the replies for a message
// @Tags Messages
// @Produce json
// @Param id path int true "Message id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /messages/{id}/replies [get]
func (h *MessageHandler) ListReplies(c *gin.Context) {
	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "message id must be an integer"))
		return
	}

	replies, err := h.service.ListReplies(c.Request.Context(), messageID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, replies)
}
