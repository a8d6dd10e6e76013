package handler

import (
	"github.com/gin-gonic/gin"
	cartapp "github.com/shopfront/backend/internal/application/cart"
)

// CartHandler handles the caller's shopping cart
type CartHandler struct {
	BaseHandler
	cartService *cartapp.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *cartapp.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// Get godoc
// @Summary      Get cart
// @Description  Returns the cart repriced against the catalog
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Security     BearerAuth
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	cart, err := h.cartService.Get(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// AddItem godoc
// @Summary      Add to cart
// @Description  Adds quantity to an existing line or creates one
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cartapp.AddItemRequest true "Item"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req cartapp.AddItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	cart, err := h.cartService.AddItem(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// UpdateItem godoc
// @Summary      Set line quantity
// @Description  A quantity of zero removes the line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Param        request body cartapp.UpdateItemRequest true "Quantity"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/items/{product_id} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}
	var req cartapp.UpdateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	cart, err := h.cartService.UpdateItem(c.Request.Context(), userID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// RemoveItem godoc
// @Summary      Remove a cart line
// @Tags         cart
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Security     BearerAuth
// @Router       /cart/items/{product_id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}

	cart, err := h.cartService.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// Clear godoc
// @Summary      Empty the cart
// @Tags         cart
// @Success      204
// @Security     BearerAuth
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.cartService.Clear(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
