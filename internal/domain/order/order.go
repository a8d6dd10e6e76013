package order

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity is the largest quantity accepted for one product line
const MaxLineQuantity = 99

// ShippingAddress is where the order is delivered
type ShippingAddress struct {
	FullName   string `gorm:"type:varchar(100)" json:"full_name"`
	Phone      string `gorm:"type:varchar(50)" json:"phone"`
	Line1      string `gorm:"type:varchar(200)" json:"line1"`
	Line2      string `gorm:"type:varchar(200)" json:"line2"`
	City       string `gorm:"type:varchar(100)" json:"city"`
	State      string `gorm:"type:varchar(100)" json:"state"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`
	Country    string `gorm:"type:varchar(100)" json:"country"`
}

// Validate checks the required address fields
func (a ShippingAddress) Validate() error {
	required := map[string]string{
		"full name":   a.FullName,
		"line1":       a.Line1,
		"city":        a.City,
		"postal code": a.PostalCode,
		"country":     a.Country,
	}
	for _, field := range []string{"full name", "line1", "city", "postal code", "country"} {
		if strings.TrimSpace(required[field]) == "" {
			return shared.NewDomainError("INVALID_ADDRESS", fmt.Sprintf("Shipping address %s is required", field))
		}
	}
	return nil
}

// PaymentResult records the provider's confirmation
type PaymentResult struct {
	ProviderID string     `gorm:"type:varchar(200);uniqueIndex:idx_orders_payment_provider_id,where:payment_provider_id <> ''" json:"provider_id"`
	Status     string     `gorm:"column:provider_status;type:varchar(50)" json:"status"`
	PayerEmail string     `gorm:"type:varchar(200)" json:"payer_email"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
}

// Item is a priced order line
type Item struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Image     string          `gorm:"type:varchar(500)"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity  int             `gorm:"not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "order_items"
}

// NewItem creates a line priced at unitPrice
func NewItem(productID uuid.UUID, name, image string, unitPrice decimal.Decimal, quantity int) Item {
	return Item{
		ID:        uuid.New(),
		ProductID: productID,
		Name:      name,
		Image:     image,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
	}
}

// Order is the aggregate root for checkout and fulfilment
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_order_user_idempotency,priority:1"`
	IdempotencyKey  *string         `gorm:"type:varchar(100);uniqueIndex:idx_order_user_idempotency,priority:2"`
	Items           []Item          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(20);not null"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentResult   PaymentResult   `gorm:"embedded;embeddedPrefix:payment_"`
	ItemsPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ShippingPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status          Status          `gorm:"type:varchar(20);not null;default:'pending';index"`
	Note            string          `gorm:"type:text"`
	StockRestored   bool            `gorm:"not null;default:false"`
	PaidAt          *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// PlaceParams carries everything needed to place an order
type PlaceParams struct {
	Number         string
	UserID         uuid.UUID
	IdempotencyKey string
	Items          []Item
	Address        ShippingAddress
	PaymentMethod  PaymentMethod
	Note           string
	Pricing        PricingPolicy
}

// Place creates a pending order priced by the given policy and emits OrderPlaced
func Place(p PlaceParams) (*Order, error) {
	if len(p.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order must contain at least one item")
	}
	if !p.PaymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be cod, card or paypal")
	}
	if err := p.Address.Validate(); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(p.Note) > 1000 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Note cannot exceed 1000 characters")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       p.Number,
		UserID:            p.UserID,
		ShippingAddress:   p.Address,
		PaymentMethod:     p.PaymentMethod,
		PaymentStatus:     PaymentStatusPending,
		Status:            StatusPending,
		Note:              strings.TrimSpace(p.Note),
	}
	if p.IdempotencyKey != "" {
		key := p.IdempotencyKey
		o.IdempotencyKey = &key
	}

	items := decimal.Zero
	o.Items = make([]Item, 0, len(p.Items))
	for _, item := range p.Items {
		if item.Quantity < 1 || item.Quantity > MaxLineQuantity {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be between 1 and 99")
		}
		item.OrderID = o.ID
		o.Items = append(o.Items, item)
		items = items.Add(item.Subtotal)
	}

	totals := p.Pricing.Quote(items)
	o.ItemsPrice = totals.Items
	o.ShippingPrice = totals.Shipping
	o.TaxPrice = totals.Tax
	o.TotalPrice = totals.Total

	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return o, nil
}

// Totals returns the order's price breakdown
func (o *Order) Totals() Totals {
	return Totals{Items: o.ItemsPrice, Shipping: o.ShippingPrice, Tax: o.TaxPrice, Total: o.TotalPrice}
}

// ChangeStatus moves the order through its lifecycle and stamps timestamps.
// A delivered COD order is paid; a cancelled paid order is refunded.
// Stock is not touched here: callers check NeedsRestock.
func (o *Order) ChangeStatus(target Status, note string) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot change order from %s to %s", o.Status, target))
	}

	now := time.Now().UTC()
	old := o.Status
	o.Status = target
	switch target {
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
		if o.PaymentMethod == PaymentMethodCOD && o.PaymentStatus == PaymentStatusPending {
			o.PaymentStatus = PaymentStatusPaid
			o.PaidAt = &now
		}
	case StatusCancelled:
		o.CancelledAt = &now
		o.CancelReason = strings.TrimSpace(note)
		if o.PaymentStatus == PaymentStatusPaid {
			o.PaymentStatus = PaymentStatusRefunded
		}
	}
	o.Touch()
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderStatusChangedEvent(o, old, note))
	return nil
}

// Cancel is ChangeStatus to cancelled with a reason
func (o *Order) Cancel(reason string) error {
	if o.Status != StatusPending && o.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	return o.ChangeStatus(StatusCancelled, reason)
}

// NeedsRestock reports whether a cancelled order still holds reserved stock
func (o *Order) NeedsRestock() bool {
	return o.Status == StatusCancelled && !o.StockRestored
}

// MarkStockRestored flags that reserved stock went back to the catalog
func (o *Order) MarkStockRestored() {
	o.StockRestored = true
	events := o.GetDomainEvents()
	for i := len(events) - 1; i >= 0; i-- {
		if changed, ok := events[i].(*OrderStatusChangedEvent); ok {
			changed.Restocked = true
			return
		}
	}
}

// Pay records a successful online payment and starts processing
func (o *Order) Pay(result PaymentResult) error {
	if o.PaymentMethod == PaymentMethodCOD {
		return shared.NewDomainError("INVALID_STATE", "Cash on delivery orders are paid on delivery")
	}
	if o.Status != StatusPending || o.PaymentStatus != PaymentStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Order is not awaiting payment")
	}
	if strings.TrimSpace(result.ProviderID) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Payment provider ID is required")
	}

	now := time.Now().UTC()
	if result.PaidAt == nil {
		result.PaidAt = &now
	}
	if result.Status == "" {
		result.Status = "COMPLETED"
	}
	o.PaymentResult = result
	o.PaymentStatus = PaymentStatusPaid
	o.PaidAt = &now

	if err := o.ChangeStatus(StatusProcessing, "payment received"); err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderPaidEvent(o))
	return nil
}

// IsPaid reports whether payment has been received
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// IsVisibleTo reports whether the user may see this order
func (o *Order) IsVisibleTo(userID uuid.UUID, isAdmin bool) bool {
	return isAdmin || o.UserID == userID
}

// IsAwaitingOnlinePayment reports whether this is an unpaid card or PayPal order
func (o *Order) IsAwaitingOnlinePayment() bool {
	return o.Status == StatusPending && o.PaymentStatus == PaymentStatusPending && o.PaymentMethod != PaymentMethodCOD
}

// ContainsProduct reports whether any line is for the product
func (o *Order) ContainsProduct(productID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateOrderNumber returns ORD-YYYYMMDD-XXXXXX for the given time
func GenerateOrderNumber(now time.Time) string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), buf)
}
