package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	messagingapp "github.com/shopfront/backend/internal/application/messaging"
	"github.com/shopfront/backend/internal/domain/messaging"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
)

// ConversationHandler handles customer support threads. Customers see their
// own conversations; admins see all of them.
type ConversationHandler struct {
	BaseHandler
	conversationService *messagingapp.ConversationService
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(conversationService *messagingapp.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
	}
}

func (h *ConversationHandler) participant(c *gin.Context) (messaging.Participant, bool) {
	userID, ok := h.currentUser(c)
	if !ok {
		return messaging.Participant{}, false
	}
	return messaging.Participant{UserID: userID, IsAdmin: middleware.IsAdmin(c)}, true
}

func (h *ConversationHandler) target(c *gin.Context) (messaging.Participant, uuid.UUID, bool) {
	who, ok := h.participant(c)
	if !ok {
		return who, uuid.Nil, false
	}
	id, ok := h.pathUUID(c, "id")
	return who, id, ok
}

// Start godoc
// @Summary      Open a conversation
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Param        request body messagingapp.StartConversationRequest true "Subject and first message"
// @Success      201 {object} dto.Response{data=messagingapp.StartConversationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /conversations [post]
func (h *ConversationHandler) Start(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req messagingapp.StartConversationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.conversationService.Start(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// List godoc
// @Summary      List conversations
// @Tags         conversations
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        status query string false "Status" Enums(open, closed)
// @Success      200 {object} dto.Response{data=[]messagingapp.ConversationResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	who, ok := h.participant(c)
	if !ok {
		return
	}
	var filter messagingapp.ConversationListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.conversationService.List(c.Request.Context(), who, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// Get godoc
// @Summary      Get a conversation
// @Tags         conversations
// @Produce      json
// @Param        id path string true "Conversation ID" format(uuid)
// @Success      200 {object} dto.Response{data=messagingapp.ConversationResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	who, id, ok := h.target(c)
	if !ok {
		return
	}

	conv, err := h.conversationService.Get(c.Request.Context(), who, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, conv)
}

// ListMessages godoc
// @Summary      List messages
// @Description  Oldest first
// @Tags         conversations
// @Produce      json
// @Param        id path string true "Conversation ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(50)
// @Success      200 {object} dto.Response{data=[]messagingapp.MessageResponse,meta=dto.Meta}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /conversations/{id}/messages [get]
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	who, id, ok := h.target(c)
	if !ok {
		return
	}
	var filter messagingapp.MessageListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.conversationService.ListMessages(c.Request.Context(), who, id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// Send godoc
// @Summary      Send a message
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Param        id path string true "Conversation ID" format(uuid)
// @Param        request body messagingapp.SendMessageRequest true "Message"
// @Success      201 {object} dto.Response{data=messagingapp.MessageResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /conversations/{id}/messages [post]
func (h *ConversationHandler) Send(c *gin.Context) {
	who, id, ok := h.target(c)
	if !ok {
		return
	}
	var req messagingapp.SendMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	msg, err := h.conversationService.Send(c.Request.Context(), who, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, msg)
}

// MarkRead godoc
// @Summary      Mark conversation read
// @Tags         conversations
// @Produce      json
// @Param        id path string true "Conversation ID" format(uuid)
// @Success      200 {object} dto.Response{data=messagingapp.ConversationResponse}
// @Security     BearerAuth
// @Router       /conversations/{id}/read [post]
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	h.mutate(c, h.conversationService.MarkRead)
}

// Close godoc
// @Summary      Close a conversation
// @Tags         conversations
// @Produce      json
// @Param        id path string true "Conversation ID" format(uuid)
// @Success      200 {object} dto.Response{data=messagingapp.ConversationResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /conversations/{id}/close [post]
func (h *ConversationHandler) Close(c *gin.Context) {
	h.mutate(c, h.conversationService.Close)
}

// Reopen godoc
// @Summary      Reopen a conversation
// @Tags         conversations
// @Produce      json
// @Param        id path string true "Conversation ID" format(uuid)
// @Success      200 {object} dto.Response{data=messagingapp.ConversationResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /conversations/{id}/reopen [post]
func (h *ConversationHandler) Reopen(c *gin.Context) {
	h.mutate(c, h.conversationService.Reopen)
}

type conversationChange func(ctx context.Context, who messaging.Participant, id uuid.UUID) (*messagingapp.ConversationResponse, error)

func (h *ConversationHandler) mutate(c *gin.Context, change conversationChange) {
	who, id, ok := h.target(c)
	if !ok {
		return
	}

	conv, err := change(c.Request.Context(), who, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, conv)
}
