package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/application/admin"
	notificationapp "github.com/shopfront/backend/internal/application/notification"
)

// AdminHandler serves the admin dashboard, reports and broadcasts
type AdminHandler struct {
	BaseHandler
	dashboardService    *admin.DashboardService
	notificationService *notificationapp.Service
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(dashboardService *admin.DashboardService, notificationService *notificationapp.Service) *AdminHandler {
	return &AdminHandler{
		dashboardService:    dashboardService,
		notificationService: notificationService,
	}
}

// Dashboard godoc
// @Summary      Dashboard summary
// @Description  Totals, orders by status, revenue from delivered orders, low stock, recent orders and best sellers
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=admin.Dashboard}
// @Security     BearerAuth
// @Router       /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.dashboardService.Dashboard(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dashboard)
}

// SalesReport godoc
// @Summary      Daily sales report
// @Description  One row per day in the inclusive range, at most 366 days
// @Tags         admin
// @Produce      json
// @Param        from query string true "First day (YYYY-MM-DD)"
// @Param        to query string true "Last day (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=admin.SalesReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/reports/sales [get]
func (h *AdminHandler) SalesReport(c *gin.Context) {
	var query admin.SalesReportQuery
	if !h.bindQuery(c, &query) {
		return
	}

	report, err := h.dashboardService.SalesReport(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// Broadcast godoc
// @Summary      Broadcast a notification
// @Description  Notifies every active user, or every active user with the given role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body notificationapp.BroadcastRequest true "Notification"
// @Success      200 {object} dto.Response{data=notificationapp.BroadcastResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/notifications/broadcast [post]
func (h *AdminHandler) Broadcast(c *gin.Context) {
	var req notificationapp.BroadcastRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.notificationService.Broadcast(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
