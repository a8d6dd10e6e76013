package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	notificationapp "github.com/shopfront/backend/internal/application/notification"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// SocketServer upgrades a request to a push socket for userID and blocks until it closes
type SocketServer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error
}

// NotificationHandler handles in-app notifications and the push socket
type NotificationHandler struct {
	BaseHandler
	notificationService *notificationapp.Service
	sockets             SocketServer
}

// NewNotificationHandler creates a new NotificationHandler. sockets may be nil
// when realtime push is disabled.
func NewNotificationHandler(notificationService *notificationapp.Service, sockets SocketServer) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		sockets:             sockets,
	}
}

// List godoc
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        unread_only query bool false "Unread only"
// @Success      200 {object} dto.Response{data=[]notificationapp.Response,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var filter notificationapp.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.notificationService.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// UnreadCount godoc
// @Summary      Unread badge count
// @Tags         notifications
// @Produce      json
// @Success      200 {object} dto.Response{data=notificationapp.UnreadCountResponse}
// @Security     BearerAuth
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, count)
}

// MarkRead godoc
// @Summary      Mark a notification read
// @Tags         notifications
// @Param        id path string true "Notification ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// MarkAllRead godoc
// @Summary      Mark every notification read
// @Tags         notifications
// @Produce      json
// @Success      200 {object} dto.Response{data=CountData}
// @Security     BearerAuth
// @Router       /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	n, err := h.notificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CountData{Count: n})
}

// Delete godoc
// @Summary      Delete a notification
// @Tags         notifications
// @Param        id path string true "Notification ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Socket godoc
// @Summary      Notification push socket
// @Description  Upgrades to a WebSocket that receives notification and message frames.
// @Description  Browsers pass the access token in the token query parameter.
// @Tags         notifications
// @Param        token query string false "Access token"
// @Success      101
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /ws [get]
func (h *NotificationHandler) Socket(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	if h.sockets == nil {
		h.ErrorWithCode(c, "SERVICE_UNAVAILABLE", "Realtime notifications are disabled")
		return
	}

	// The upgrader writes its own error response when the handshake fails
	if err := h.sockets.Serve(c.Writer, c.Request, userID); err != nil {
		logger.FromContext(c.Request.Context()).Debug("WebSocket session ended with error",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
}
