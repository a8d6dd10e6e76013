package handler

import (
	"github.com/gin-gonic/gin"
	wishlistapp "github.com/shopfront/backend/internal/application/wishlist"
)

// WishlistHandler handles the caller's wishlist
type WishlistHandler struct {
	BaseHandler
	wishlistService *wishlistapp.Service
}

// NewWishlistHandler creates a new WishlistHandler
func NewWishlistHandler(wishlistService *wishlistapp.Service) *WishlistHandler {
	return &WishlistHandler{
		wishlistService: wishlistService,
	}
}

// Get godoc
// @Summary      Get wishlist
// @Tags         wishlist
// @Produce      json
// @Success      200 {object} dto.Response{data=wishlistapp.Response}
// @Security     BearerAuth
// @Router       /wishlist [get]
func (h *WishlistHandler) Get(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	list, err := h.wishlistService.Get(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, list)
}

// Add godoc
// @Summary      Save a product
// @Description  Adding a product that is already saved is a no-op
// @Tags         wishlist
// @Accept       json
// @Produce      json
// @Param        request body wishlistapp.AddItemRequest true "Product"
// @Success      200 {object} dto.Response{data=wishlistapp.Response}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /wishlist/items [post]
func (h *WishlistHandler) Add(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req wishlistapp.AddItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	list, err := h.wishlistService.Add(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, list)
}

// Remove godoc
// @Summary      Remove a saved product
// @Tags         wishlist
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=wishlistapp.Response}
// @Security     BearerAuth
// @Router       /wishlist/items/{product_id} [delete]
func (h *WishlistHandler) Remove(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}

	list, err := h.wishlistService.Remove(c.Request.Context(), userID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, list)
}

// Clear godoc
// @Summary      Empty the wishlist
// @Tags         wishlist
// @Success      204
// @Security     BearerAuth
// @Router       /wishlist [delete]
func (h *WishlistHandler) Clear(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.wishlistService.Clear(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// MoveToCart godoc
// @Summary      Move a saved product to the cart
// @Description  Adds one unit to the cart and removes the product from the wishlist
// @Tags         wishlist
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /wishlist/items/{product_id}/move-to-cart [post]
func (h *WishlistHandler) MoveToCart(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}

	cart, err := h.wishlistService.MoveToCart(c.Request.Context(), userID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}
