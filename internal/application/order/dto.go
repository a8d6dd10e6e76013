package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// OrderItemRequest is one requested line. Prices are always taken from the catalog.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=99"`
}

// AddressRequest is the shipping address of a new order
type AddressRequest struct {
	FullName   string `json:"full_name" binding:"required,max=100"`
	Phone      string `json:"phone" binding:"omitempty,max=50"`
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"omitempty,max=200"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"omitempty,max=100"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	Country    string `json:"country" binding:"required,max=100"`
}

// CreateOrderRequest places an order from explicit items or from the cart
type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" binding:"omitempty,max=50,dive"`
	FromCart        bool               `json:"from_cart"`
	ShippingAddress AddressRequest     `json:"shipping_address" binding:"required"`
	PaymentMethod   string             `json:"payment_method" binding:"required,payment_method"`
	Note            string             `json:"note" binding:"omitempty,max=1000"`

	// IdempotencyKey comes from the Idempotency-Key header
	IdempotencyKey string `json:"-"`
}

// UpdateStatusRequest moves an order through its lifecycle
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
	Note   string `json:"note" binding:"omitempty,max=500"`
}

// CancelOrderRequest is a customer cancellation
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// PayOrderRequest records the payment provider's confirmation
type PayOrderRequest struct {
	ProviderID string `json:"provider_id" binding:"required,max=200"`
	Status     string `json:"status" binding:"omitempty,max=50"`
	PayerEmail string `json:"payer_email" binding:"omitempty,email,max=200"`
}

// OrderListFilter represents order list query parameters
type OrderListFilter struct {
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string     `form:"status" binding:"omitempty,oneof=pending processing shipped delivered cancelled"`
	UserID   *uuid.UUID `form:"user_id"`
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Search   string     `form:"search" binding:"omitempty,max=50"`
	OrderBy  string     `form:"order_by" binding:"omitempty,oneof=created_at total_price status"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// OrderItemResponse is a priced order line
type OrderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID             `json:"id"`
	OrderNumber     string                `json:"order_number"`
	UserID          uuid.UUID             `json:"user_id"`
	Items           []OrderItemResponse   `json:"items"`
	ShippingAddress order.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                `json:"payment_method"`
	PaymentStatus   string                `json:"payment_status"`
	PaymentResult   *order.PaymentResult  `json:"payment_result,omitempty"`
	ItemsPrice      decimal.Decimal       `json:"items_price"`
	ShippingPrice   decimal.Decimal       `json:"shipping_price"`
	TaxPrice        decimal.Decimal       `json:"tax_price"`
	TotalPrice      decimal.Decimal       `json:"total_price"`
	Status          string                `json:"status"`
	Note            string                `json:"note,omitempty"`
	StockRestored   bool                  `json:"stock_restored"`
	PaidAt          *time.Time            `json:"paid_at,omitempty"`
	ShippedAt       *time.Time            `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time            `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason    string                `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	Version         int                   `json:"version"`
}

// CreateOrderResult wraps a placed order. Replayed is true when an earlier
// order with the same idempotency key was returned instead.
type CreateOrderResult struct {
	Order    OrderResponse `json:"order"`
	Replayed bool          `json:"replayed"`
}

// Invoice is a rendered order invoice
type Invoice struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		}
	}
	resp := OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Items:           items,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		ItemsPrice:      o.ItemsPrice,
		ShippingPrice:   o.ShippingPrice,
		TaxPrice:        o.TaxPrice,
		TotalPrice:      o.TotalPrice,
		Status:          string(o.Status),
		Note:            o.Note,
		StockRestored:   o.StockRestored,
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		CancelReason:    o.CancelReason,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Version:         o.Version,
	}
	if o.PaymentResult.ProviderID != "" {
		result := o.PaymentResult
		resp.PaymentResult = &result
	}
	return resp
}

// ToOrderResponses converts a slice of domain orders
func ToOrderResponses(orders []order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out
}

func (a AddressRequest) toDomain() order.ShippingAddress {
	return order.ShippingAddress{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
