package order

import (
	"context"

	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// InvoiceRenderer turns an order into a printable document
type InvoiceRenderer interface {
	Render(ctx context.Context, o *order.Order) ([]byte, error)
}

// PaymentVerifier confirms an online payment with the provider
type PaymentVerifier interface {
	Verify(ctx context.Context, o *order.Order, providerID string) (*order.PaymentResult, error)
}

// BusinessRecorder receives checkout business metrics
type BusinessRecorder interface {
	RecordOrderPlaced(ctx context.Context, paymentMethod string, total decimal.Decimal, lines int)
	RecordOrderRejected(ctx context.Context, reason string)
	RecordOrderCancelled(ctx context.Context, restocked bool)
	RecordPayment(ctx context.Context, paymentMethod string)
}

// Recorders fans metrics out to several recorders
type Recorders []BusinessRecorder

func (r Recorders) RecordOrderPlaced(ctx context.Context, paymentMethod string, total decimal.Decimal, lines int) {
	for _, rec := range r {
		rec.RecordOrderPlaced(ctx, paymentMethod, total, lines)
	}
}

func (r Recorders) RecordOrderRejected(ctx context.Context, reason string) {
	for _, rec := range r {
		rec.RecordOrderRejected(ctx, reason)
	}
}

func (r Recorders) RecordOrderCancelled(ctx context.Context, restocked bool) {
	for _, rec := range r {
		rec.RecordOrderCancelled(ctx, restocked)
	}
}

func (r Recorders) RecordPayment(ctx context.Context, paymentMethod string) {
	for _, rec := range r {
		rec.RecordPayment(ctx, paymentMethod)
	}
}

var _ BusinessRecorder = Recorders(nil)
