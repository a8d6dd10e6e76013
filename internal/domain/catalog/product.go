package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold applies when a product sets none
const DefaultLowStockThreshold = 5

// MaxImages is the number of images a product may carry
const MaxImages = 10

// Product is the aggregate root of the catalog
type Product struct {
	shared.BaseAggregateRoot
	Name              string              `gorm:"type:varchar(200);not null"`
	Slug              string              `gorm:"type:varchar(200);not null;uniqueIndex"`
	Description       string              `gorm:"type:text"`
	Brand             string              `gorm:"type:varchar(100);index"`
	CategoryID        uuid.UUID           `gorm:"type:uuid;not null;index"`
	Price             decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	DiscountPrice     decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	Stock             int                 `gorm:"not null;default:0"`
	LowStockThreshold int                 `gorm:"not null;default:5"`
	Images            []string            `gorm:"type:text;serializer:json"`
	IsFeatured        bool                `gorm:"not null;default:false;index"`
	IsActive          bool                `gorm:"not null;default:true;index"`
	Rating            float64             `gorm:"type:decimal(2,1);not null;default:0"`
	ReviewCount       int                 `gorm:"not null;default:0"`
	SoldCount         int                 `gorm:"not null;default:0;index"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// ProductDetails holds the editable descriptive fields of a product
type ProductDetails struct {
	Name        string
	Description string
	Brand       string
	CategoryID  uuid.UUID
}

// NewProduct creates a new active product
func NewProduct(details ProductDetails, price decimal.Decimal, stock int) (*Product, error) {
	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		LowStockThreshold: DefaultLowStockThreshold,
		Images:            []string{},
		IsActive:          true,
	}
	if err := p.applyDetails(details); err != nil {
		return nil, err
	}
	if err := p.applyPricing(price, nil); err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	p.Stock = stock

	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// Update changes the descriptive fields
func (p *Product) Update(details ProductDetails) error {
	if err := p.applyDetails(details); err != nil {
		return err
	}
	p.Touch()
	p.IncrementVersion()
	return nil
}

func (p *Product) applyDetails(d ProductDetails) error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	slug := Slugify(name)
	if slug == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name must contain letters or digits")
	}
	if d.CategoryID == uuid.Nil {
		return shared.NewDomainError("INVALID_CATEGORY", "Category is required")
	}
	if utf8.RuneCountInString(d.Brand) > 100 {
		return shared.NewDomainError("INVALID_BRAND", "Brand cannot exceed 100 characters")
	}

	p.Name = name
	p.Slug = slug
	p.Description = strings.TrimSpace(d.Description)
	p.Brand = strings.TrimSpace(d.Brand)
	p.CategoryID = d.CategoryID
	return nil
}

// SetPricing sets the list price and an optional discount price
func (p *Product) SetPricing(price decimal.Decimal, discount *decimal.Decimal) error {
	if err := p.applyPricing(price, discount); err != nil {
		return err
	}
	p.Touch()
	p.IncrementVersion()
	return nil
}

func (p *Product) applyPricing(price decimal.Decimal, discount *decimal.Decimal) error {
	if !price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Price must be greater than zero")
	}
	price = price.Round(2)
	if discount != nil {
		d := discount.Round(2)
		if !d.IsPositive() || d.GreaterThanOrEqual(price) {
			return shared.NewDomainError("INVALID_PRICE", "Discount price must be between zero and the price")
		}
		p.DiscountPrice = decimal.NewNullDecimal(d)
	} else {
		p.DiscountPrice = decimal.NullDecimal{}
	}
	p.Price = price
	return nil
}

// EffectivePrice is the discount price if set, otherwise the list price
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice.Valid {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

// SetLowStockThreshold sets the level at or below which stock is reported low
func (p *Product) SetLowStockThreshold(threshold int) error {
	if threshold < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Low stock threshold cannot be negative")
	}
	p.LowStockThreshold = threshold
	p.Touch()
	return nil
}

// AdjustStock applies a signed delta to stock.
// A change that leaves stock at or below the threshold emits ProductStockLow.
func (p *Product) AdjustStock(delta int, reason string) error {
	if delta == 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Stock adjustment cannot be zero")
	}
	if p.Stock+delta < 0 {
		return shared.ErrInsufficientStock
	}
	before := p.Stock
	p.Stock += delta
	p.Touch()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStockAdjustedEvent(p, before, delta, reason))
	if CrossedLowStock(before, p.Stock, p.LowStockThreshold) {
		p.AddDomainEvent(NewProductStockLowEvent(p.ID, p.Name, p.Stock, p.LowStockThreshold))
	}
	return nil
}

// CrossedLowStock reports whether a stock change from before to after
// dropped the level to the threshold or below.
func CrossedLowStock(before, after, threshold int) bool {
	return after < before && after <= threshold && before > threshold
}

// IsLowStock reports whether stock is at or below the threshold
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.LowStockThreshold
}

// InStock reports whether at least one unit is available
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// AddImage appends an image URL
func (p *Product) AddImage(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return shared.NewDomainError("INVALID_IMAGE", "Image URL cannot be empty")
	}
	if len(p.Images) >= MaxImages {
		return shared.NewDomainError("INVALID_STATE", "Product already has the maximum number of images")
	}
	p.Images = append(p.Images, url)
	p.Touch()
	p.IncrementVersion()
	return nil
}

// RemoveImage removes an image URL
func (p *Product) RemoveImage(url string) error {
	for i, img := range p.Images {
		if img == url {
			p.Images = append(p.Images[:i], p.Images[i+1:]...)
			p.Touch()
			p.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Image not found on product")
}

// PrimaryImage returns the first image or ""
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// SetFeatured toggles the featured flag
func (p *Product) SetFeatured(featured bool) {
	p.IsFeatured = featured
	p.Touch()
}

// Activate makes the product purchasable
func (p *Product) Activate() {
	p.IsActive = true
	p.Touch()
	p.IncrementVersion()
}

// Deactivate hides the product from the storefront
func (p *Product) Deactivate() {
	p.IsActive = false
	p.Touch()
	p.IncrementVersion()
}
