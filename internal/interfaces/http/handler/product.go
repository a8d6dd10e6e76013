package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
)

// ImageFormField is the multipart field carrying a product image
const ImageFormField = "image"

// ProductHandler handles product-related API endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// List godoc
// @Summary      List products
// @Description  Storefront listing with search, filters and sorting. include_inactive is honoured for admins only.
// @Tags         products
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        search query string false "Matches name, brand and description"
// @Param        category_id query string false "Category ID" format(uuid)
// @Param        brand query string false "Brand"
// @Param        min_price query number false "Minimum effective price"
// @Param        max_price query number false "Maximum effective price"
// @Param        featured query bool false "Featured only"
// @Param        in_stock query bool false "In stock only"
// @Param        order_by query string false "Sort field" Enums(price, created_at, rating, sold_count, name)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if !middleware.IsAdmin(c) {
		filter.IncludeInactive = false
	}

	page, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// Featured godoc
// @Summary      Featured products
// @Tags         products
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse}
// @Router       /products/featured [get]
func (h *ProductHandler) Featured(c *gin.Context) {
	products, err := h.productService.Featured(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, products)
}

// Get godoc
// @Summary      Get product by ID or slug
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID or slug"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.productService.Get(c.Request.Context(), c.Param("id"), middleware.IsAdmin(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Related godoc
// @Summary      Related products
// @Description  Other active products from the same category
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID or slug"
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/related [get]
func (h *ProductHandler) Related(c *gin.Context) {
	products, err := h.productService.Related(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, products)
}

// Create godoc
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateProductRequest true "Product"
// @Success      201 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, product)
}

// Update godoc
// @Summary      Update a product
// @Description  Only the fields present in the body are changed
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalogapp.UpdateProductRequest true "Changes"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Delete godoc
// @Summary      Delete a product
// @Tags         products
// @Param        id path string true "Product ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// AdjustStock godoc
// @Summary      Adjust stock
// @Description  Apply a signed stock correction. Stock never goes below zero.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalogapp.AdjustStockRequest true "Adjustment"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/stock [post]
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// UploadImage godoc
// @Summary      Upload a product image
// @Description  Accepts JPEG, PNG, WebP or GIF up to 5 MB. The type is sniffed from the content.
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        image formData file true "Image file"
// @Success      201 {object} dto.Response{data=ImageData}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/images [post]
func (h *ProductHandler) UploadImage(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	fh, err := c.FormFile(ImageFormField)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Image file is required in field '"+ImageFormField+"'")
		return
	}
	if fh.Size > catalogapp.MaxImageSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadLarge, "Image cannot exceed 5 MB")
		return
	}
	file, err := fh.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read image file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, catalogapp.MaxImageSize+1))
	if err != nil {
		h.BadRequest(c, "Unable to read image file")
		return
	}

	url, err := h.productService.UploadImage(c.Request.Context(), id, catalogapp.UploadImageRequest{
		FileName:    fh.Filename,
		ContentType: http.DetectContentType(data),
		Data:        data,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, ImageData{URL: url})
}

// RemoveImage godoc
// @Summary      Remove a product image
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalogapp.RemoveImageRequest true "Image URL"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id}/images [delete]
func (h *ProductHandler) RemoveImage(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.RemoveImageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.RemoveImage(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}
