package cart

import (
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity is the largest quantity a single cart line may hold
const MaxLineQuantity = 99

// Cart is the per-user shopping cart aggregate
type Cart struct {
	shared.BaseAggregateRoot
	UserID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	Items  []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Cart) TableName() string {
	return "carts"
}

// CartItem is one product line with a price snapshot
type CartItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CartID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_product,priority:1"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_product,priority:2"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Image     string          `gorm:"type:varchar(500)"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity  int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItem) TableName() string {
	return "cart_items"
}

// Subtotal returns unit price times quantity
func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ProductSnapshot is the catalog view of a product the cart needs
type ProductSnapshot struct {
	ID        uuid.UUID
	Name      string
	Image     string
	UnitPrice decimal.Decimal
	Stock     int
	Active    bool
}

// NewCart creates an empty cart for a user
func NewCart(userID uuid.UUID) *Cart {
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Items:             []CartItem{},
	}
}

// FindItem returns the line for a product, if present
func (c *Cart) FindItem(productID uuid.UUID) (*CartItem, bool) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// AddItem adds quantity of a product, merging with an existing line
func (c *Cart) AddItem(p ProductSnapshot, quantity int) error {
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if !p.Active {
		return shared.NewDomainError("NOT_FOUND", "Product is not available")
	}

	total := quantity
	if item, ok := c.FindItem(p.ID); ok {
		total += item.Quantity
	}
	if err := checkQuantity(total, p.Stock); err != nil {
		return err
	}

	if item, ok := c.FindItem(p.ID); ok {
		item.Quantity = total
		item.Name = p.Name
		item.Image = p.Image
		item.UnitPrice = p.UnitPrice
	} else {
		c.Items = append(c.Items, CartItem{
			ID:        uuid.New(),
			CartID:    c.ID,
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			UnitPrice: p.UnitPrice,
			Quantity:  quantity,
		})
	}
	c.Touch()
	return nil
}

// UpdateItem sets the quantity of a line; zero removes it
func (c *Cart) UpdateItem(p ProductSnapshot, quantity int) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	item, ok := c.FindItem(p.ID)
	if !ok {
		return shared.NewDomainError("NOT_FOUND", "Product is not in the cart")
	}
	if quantity == 0 {
		return c.RemoveItem(p.ID)
	}
	if err := checkQuantity(quantity, p.Stock); err != nil {
		return err
	}
	item.Quantity = quantity
	item.UnitPrice = p.UnitPrice
	c.Touch()
	return nil
}

// RemoveItem removes a product line
func (c *Cart) RemoveItem(productID uuid.UUID) error {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.Touch()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Product is not in the cart")
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Touch()
}

// Reconcile refreshes every line against current catalog data.
// Lines whose product is gone, inactive or out of stock are dropped; quantities
// are clamped to stock. Returns true when anything changed.
func (c *Cart) Reconcile(products map[uuid.UUID]ProductSnapshot) bool {
	changed := false
	kept := c.Items[:0]
	for _, item := range c.Items {
		p, ok := products[item.ProductID]
		if !ok || !p.Active || p.Stock < 1 {
			changed = true
			continue
		}
		if !item.UnitPrice.Equal(p.UnitPrice) || item.Name != p.Name || item.Image != p.Image {
			item.UnitPrice = p.UnitPrice
			item.Name = p.Name
			item.Image = p.Image
			changed = true
		}
		if limit := min(p.Stock, MaxLineQuantity); item.Quantity > limit {
			item.Quantity = limit
			changed = true
		}
		kept = append(kept, item)
	}
	c.Items = kept
	if changed {
		c.Touch()
	}
	return changed
}

// ProductIDs returns the product IDs of every line
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Subtotal sums all line subtotals
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.Subtotal())
	}
	return sum
}

// ItemCount sums quantities across lines
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func checkQuantity(quantity, stock int) error {
	if quantity > MaxLineQuantity {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot exceed 99 per product")
	}
	if quantity > stock {
		return shared.ErrInsufficientStock
	}
	return nil
}
