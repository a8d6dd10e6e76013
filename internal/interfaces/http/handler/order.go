package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	orderapp "github.com/shopfront/backend/internal/application/order"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
)

// HeaderIdempotentReplayed marks a response that returned an earlier order
const HeaderIdempotentReplayed = "Idempotent-Replayed"

// OrderHandler handles checkout and order endpoints
type OrderHandler struct {
	BaseHandler
	orderService *orderapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderapp.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// Create godoc
// @Summary      Place an order
// @Description  Places an order from explicit items or from the cart. Prices come from the catalog.
// @Description  Repeating a request with the same Idempotency-Key returns the original order with 200.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client generated key, at most 100 characters"
// @Param        request body orderapp.CreateOrderRequest true "Order"
// @Success      201 {object} dto.Response{data=orderapp.CreateOrderResult}
// @Success      200 {object} dto.Response{data=orderapp.CreateOrderResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req orderapp.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.IdempotencyKey = c.GetHeader(middleware.HeaderIdempotencyKey)

	result, err := h.orderService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Replayed {
		c.Header(HeaderIdempotentReplayed, strconv.FormatBool(true))
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// ListMine godoc
// @Summary      My orders
// @Tags         orders
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        status query string false "Status" Enums(pending, processing, shipped, delivered, cancelled)
// @Success      200 {object} dto.Response{data=[]orderapp.OrderResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /orders/mine [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var filter orderapp.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.orderService.ListMine(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// Get godoc
// @Summary      Get an order
// @Description  Owners see their own orders; admins see any
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.Get(c.Request.Context(), userID, middleware.IsAdmin(c), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, o)
}

// Cancel godoc
// @Summary      Cancel my order
// @Description  Pending and processing orders can be cancelled; stock is returned
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.CancelOrderRequest false "Reason"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req orderapp.CancelOrderRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	o, err := h.orderService.Cancel(c.Request.Context(), userID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, o)
}

// Pay godoc
// @Summary      Record payment
// @Description  Marks a pending card or PayPal order paid with the provider confirmation
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.PayOrderRequest true "Provider confirmation"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/pay [post]
func (h *OrderHandler) Pay(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req orderapp.PayOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	o, err := h.orderService.Pay(c.Request.Context(), userID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, o)
}

// Invoice godoc
// @Summary      Download invoice
// @Tags         orders
// @Produce      application/pdf
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {file} binary
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/invoice [get]
func (h *OrderHandler) Invoice(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.orderService.Invoice(c.Request.Context(), userID, middleware.IsAdmin(c), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+invoice.FileName+`"`)
	c.Data(http.StatusOK, invoice.ContentType, invoice.Data)
}

// AdminList godoc
// @Summary      List all orders
// @Tags         admin
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        status query string false "Status" Enums(pending, processing, shipped, delivered, cancelled)
// @Param        user_id query string false "Customer ID" format(uuid)
// @Param        from query string false "Created on or after (YYYY-MM-DD)"
// @Param        to query string false "Created before (YYYY-MM-DD)"
// @Param        search query string false "Order number"
// @Success      200 {object} dto.Response{data=[]orderapp.OrderResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/orders [get]
func (h *OrderHandler) AdminList(c *gin.Context) {
	var filter orderapp.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// UpdateStatus godoc
// @Summary      Change order status
// @Description  Moves an order along pending, processing, shipped, delivered. Cancelling restocks once.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.UpdateStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	actorID, ok := h.currentUser(c)
	if !ok {
		return
	}
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req orderapp.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	o, err := h.orderService.UpdateStatus(c.Request.Context(), actorID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, o)
}
