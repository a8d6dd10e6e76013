package order

import "github.com/shopspring/decimal"

// PricingPolicy holds the shop-wide pricing rules
type PricingPolicy struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultPricingPolicy returns free shipping from 100, a flat fee of 10 and 15% tax
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		FreeShippingThreshold: decimal.NewFromInt(100),
		FlatShippingFee:       decimal.NewFromInt(10),
		TaxRate:               decimal.RequireFromString("0.15"),
	}
}

// Totals is the price breakdown of an order or cart
type Totals struct {
	Items    decimal.Decimal `json:"items_price"`
	Shipping decimal.Decimal `json:"shipping_price"`
	Tax      decimal.Decimal `json:"tax_price"`
	Total    decimal.Decimal `json:"total_price"`
}

// Quote prices an items subtotal. An empty subtotal costs nothing to ship.
func (p PricingPolicy) Quote(items decimal.Decimal) Totals {
	items = items.Round(2)
	shipping := decimal.Zero
	if items.IsPositive() && items.LessThan(p.FreeShippingThreshold) {
		shipping = p.FlatShippingFee.Round(2)
	}
	tax := items.Mul(p.TaxRate).Round(2)
	return Totals{
		Items:    items,
		Shipping: shipping,
		Tax:      tax,
		Total:    items.Add(shipping).Add(tax),
	}
}
