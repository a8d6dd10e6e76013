package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=2000"`
	ImageURL    string `json:"image_url" binding:"omitempty,url,max=500"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=2000"`
	ImageURL    string `json:"image_url" binding:"omitempty,url,max=500"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryListFilter represents category list query parameters
type CategoryListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search" binding:"omitempty,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name              string           `json:"name" binding:"required,min=1,max=200"`
	Description       string           `json:"description" binding:"max=5000"`
	Brand             string           `json:"brand" binding:"max=100"`
	CategoryID        uuid.UUID        `json:"category_id" binding:"required"`
	Price             decimal.Decimal  `json:"price" binding:"required"`
	DiscountPrice     *decimal.Decimal `json:"discount_price"`
	Stock             int              `json:"stock" binding:"min=0"`
	LowStockThreshold *int             `json:"low_stock_threshold" binding:"omitempty,min=0"`
	Images            []string         `json:"images" binding:"omitempty,max=10,dive,url"`
	IsFeatured        bool             `json:"is_featured"`
}

// UpdateProductRequest represents a request to update a product.
// Nil fields are left unchanged.
type UpdateProductRequest struct {
	Name              *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description       *string          `json:"description" binding:"omitempty,max=5000"`
	Brand             *string          `json:"brand" binding:"omitempty,max=100"`
	CategoryID        *uuid.UUID       `json:"category_id"`
	Price             *decimal.Decimal `json:"price"`
	DiscountPrice     *decimal.Decimal `json:"discount_price"`
	ClearDiscount     bool             `json:"clear_discount"`
	LowStockThreshold *int             `json:"low_stock_threshold" binding:"omitempty,min=0"`
	IsFeatured        *bool            `json:"is_featured"`
	IsActive          *bool            `json:"is_active"`
}

// AdjustStockRequest represents a manual stock correction
type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required,min=1,max=200"`
}

// RemoveImageRequest identifies the image to drop
type RemoveImageRequest struct {
	URL string `json:"url" binding:"required"`
}

// UploadImageRequest carries an uploaded image file
type UploadImageRequest struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	Slug              string           `json:"slug"`
	Description       string           `json:"description"`
	Brand             string           `json:"brand"`
	CategoryID        uuid.UUID        `json:"category_id"`
	Price             decimal.Decimal  `json:"price"`
	DiscountPrice     *decimal.Decimal `json:"discount_price,omitempty"`
	EffectivePrice    decimal.Decimal  `json:"effective_price"`
	Stock             int              `json:"stock"`
	LowStockThreshold int              `json:"low_stock_threshold"`
	Images            []string         `json:"images"`
	IsFeatured        bool             `json:"is_featured"`
	IsActive          bool             `json:"is_active"`
	Rating            float64          `json:"rating"`
	ReviewCount       int              `json:"review_count"`
	SoldCount         int              `json:"sold_count"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	Version           int              `json:"version"`
}

// ProductListFilter represents product list query parameters
type ProductListFilter struct {
	Page            int              `form:"page" binding:"omitempty,min=1"`
	PageSize        int              `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search          string           `form:"search" binding:"omitempty,max=100"`
	CategoryID      *uuid.UUID       `form:"category_id"`
	Brand           string           `form:"brand" binding:"omitempty,max=100"`
	MinPrice        *decimal.Decimal `form:"min_price"`
	MaxPrice        *decimal.Decimal `form:"max_price"`
	Featured        *bool            `form:"featured"`
	InStock         bool             `form:"in_stock"`
	IncludeInactive bool             `form:"include_inactive"`
	OrderBy         string           `form:"order_by" binding:"omitempty,oneof=price created_at rating sold_count name"`
	OrderDir        string           `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// CreateReviewRequest represents a request to review a product
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// ReviewResponse represents a review in API responses
type ReviewResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewListFilter represents review list query parameters
type ReviewListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToCategoryResponse converts a domain category to a response
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ToProductResponse converts a domain product to a response
func ToProductResponse(p *catalog.Product) ProductResponse {
	resp := ProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		Slug:              p.Slug,
		Description:       p.Description,
		Brand:             p.Brand,
		CategoryID:        p.CategoryID,
		Price:             p.Price,
		EffectivePrice:    p.EffectivePrice(),
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		Images:            p.Images,
		IsFeatured:        p.IsFeatured,
		IsActive:          p.IsActive,
		Rating:            p.Rating,
		ReviewCount:       p.ReviewCount,
		SoldCount:         p.SoldCount,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Version:           p.Version,
	}
	if p.DiscountPrice.Valid {
		d := p.DiscountPrice.Decimal
		resp.DiscountPrice = &d
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	return resp
}

// ToProductResponses converts a slice of domain products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}

// ToReviewResponse converts a domain review to a response
func ToReviewResponse(r *catalog.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}
