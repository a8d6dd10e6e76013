package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/application/event"
)

// OutboxHandler exposes the side-effect job queue to admins
type OutboxHandler struct {
	BaseHandler
	outboxService *event.OutboxService
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(outboxService *event.OutboxService) *OutboxHandler {
	return &OutboxHandler{
		outboxService: outboxService,
	}
}

// GetDeadLetterEntries godoc
// @Summary      List dead letters
// @Description  Jobs that exhausted their retries
// @Tags         admin
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=event.OutboxListResult}
// @Security     BearerAuth
// @Router       /admin/outbox/dead [get]
func (h *OutboxHandler) GetDeadLetterEntries(c *gin.Context) {
	var filter event.OutboxFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	result, err := h.outboxService.GetDeadLetterEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RetryDeadEntry godoc
// @Summary      Retry a dead letter
// @Tags         admin
// @Produce      json
// @Param        id path string true "Outbox entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=event.OutboxEntryDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/outbox/dead/{id}/retry [post]
func (h *OutboxHandler) RetryDeadEntry(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	entry, err := h.outboxService.RetryDeadEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}

// RetryAllDeadEntries godoc
// @Summary      Retry every dead letter
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=event.RetryAllResult}
// @Security     BearerAuth
// @Router       /admin/outbox/dead/retry-all [post]
func (h *OutboxHandler) RetryAllDeadEntries(c *gin.Context) {
	result, err := h.outboxService.RetryAllDeadEntries(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetStats godoc
// @Summary      Outbox statistics
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=event.OutboxStatsDTO}
// @Security     BearerAuth
// @Router       /admin/outbox/stats [get]
func (h *OutboxHandler) GetStats(c *gin.Context) {
	stats, err := h.outboxService.GetStats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}
