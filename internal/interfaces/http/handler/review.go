package handler

import (
	"github.com/gin-gonic/gin"
	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
)

// ReviewHandler handles product reviews
type ReviewHandler struct {
	BaseHandler
	reviewService *catalogapp.ReviewService
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService *catalogapp.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// List godoc
// @Summary      List product reviews
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]catalogapp.ReviewResponse,meta=dto.Meta}
// @Router       /products/{id}/reviews [get]
func (h *ReviewHandler) List(c *gin.Context) {
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var filter catalogapp.ReviewListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.reviewService.ListByProduct(c.Request.Context(), productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// Create godoc
// @Summary      Review a product
// @Description  Only customers with a delivered order containing the product may review it, once
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalogapp.CreateReviewRequest true "Review"
// @Success      201 {object} dto.Response{data=catalogapp.ReviewResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.CreateReviewRequest
	if !h.bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.Add(c.Request.Context(), userID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, review)
}

// Delete godoc
// @Summary      Delete a review
// @Description  Authors may delete their own review; admins may delete any
// @Tags         reviews
// @Param        id path string true "Product ID" format(uuid)
// @Param        review_id path string true "Review ID" format(uuid)
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/reviews/{review_id} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	reviewID, ok := h.pathUUID(c, "review_id")
	if !ok {
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), userID, middleware.IsAdmin(c), productID, reviewID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
