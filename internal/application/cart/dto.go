package cart

import (
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds a product to the cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=99"`
}

// UpdateItemRequest sets the quantity of a cart line; zero removes it
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0,max=99"`
}

// CartItemResponse is one line of the cart
type CartItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartResponse is the priced cart
type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	order.Totals
}

// ToCartResponse prices a cart with the given policy
func ToCartResponse(c *cart.Cart, pricing order.PricingPolicy) CartResponse {
	items := make([]CartItemResponse, len(c.Items))
	for i, item := range c.Items {
		items[i] = CartItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal(),
		}
	}
	return CartResponse{
		Items:     items,
		ItemCount: c.ItemCount(),
		Totals:    pricing.Quote(c.Subtotal()),
	}
}
