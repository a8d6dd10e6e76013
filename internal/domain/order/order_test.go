package order

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress() ShippingAddress {
	return ShippingAddress{
		FullName:   "Jane Doe",
		Line1:      "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
	}
}

func placeTestOrder(t *testing.T, method PaymentMethod, price int64, qty int) *Order {
	t.Helper()
	o, err := Place(PlaceParams{
		Number:        GenerateOrderNumber(time.Now()),
		UserID:        uuid.New(),
		Items:         []Item{NewItem(uuid.New(), "Mug", "", decimal.NewFromInt(price), qty)},
		Address:       testAddress(),
		PaymentMethod: method,
		Pricing:       DefaultPricingPolicy(),
	})
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func TestPricingPolicy_Quote(t *testing.T) {
	policy := DefaultPricingPolicy()

	tests := []struct {
		name                 string
		items                string
		shipping, tax, total string
	}{
		{"below threshold pays shipping", "40", "10", "6", "56"},
		{"at threshold ships free", "100", "0", "15", "115"},
		{"rounds tax to cents", "33.33", "10", "5", "48.33"},
		{"empty subtotal", "0", "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := policy.Quote(decimal.RequireFromString(tt.items))
			assert.Equal(t, tt.shipping, q.Shipping.String())
			assert.Equal(t, tt.tax, q.Tax.String())
			assert.Equal(t, tt.total, q.Total.String())
		})
	}
}

func TestPlace(t *testing.T) {
	t.Run("prices order and emits OrderPlaced", func(t *testing.T) {
		o, err := Place(PlaceParams{
			Number:         "ORD-20260101-ABCDEF",
			UserID:         uuid.New(),
			IdempotencyKey: "key-1",
			Items: []Item{
				NewItem(uuid.New(), "Mug", "", decimal.NewFromInt(30), 2),
				NewItem(uuid.New(), "Plate", "", decimal.RequireFromString("12.50"), 1),
			},
			Address:       testAddress(),
			PaymentMethod: PaymentMethodCard,
			Pricing:       DefaultPricingPolicy(),
		})

		require.NoError(t, err)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, PaymentStatusPending, o.PaymentStatus)
		assert.Equal(t, "72.5", o.ItemsPrice.String())
		assert.Equal(t, "10", o.ShippingPrice.String())
		assert.Equal(t, "10.88", o.TaxPrice.String())
		assert.Equal(t, "93.38", o.TotalPrice.String())
		require.NotNil(t, o.IdempotencyKey)
		assert.Equal(t, "key-1", *o.IdempotencyKey)
		for _, item := range o.Items {
			assert.Equal(t, o.ID, item.OrderID)
		}

		events := o.GetDomainEvents()
		require.Len(t, events, 1)
		placed := events[0].(*OrderPlacedEvent)
		assert.Len(t, placed.Items, 2)
	})

	t.Run("validates input", func(t *testing.T) {
		base := PlaceParams{
			UserID:        uuid.New(),
			Items:         []Item{NewItem(uuid.New(), "Mug", "", decimal.NewFromInt(1), 1)},
			Address:       testAddress(),
			PaymentMethod: PaymentMethodCOD,
		}

		noItems := base
		noItems.Items = nil
		_, err := Place(noItems)
		assert.Error(t, err)

		badMethod := base
		badMethod.PaymentMethod = "bitcoin"
		_, err = Place(badMethod)
		assert.Error(t, err)

		badAddress := base
		badAddress.Address.City = " "
		_, err = Place(badAddress)
		assert.ErrorContains(t, err, "city")

		tooMany := base
		tooMany.Items = []Item{NewItem(uuid.New(), "Mug", "", decimal.NewFromInt(1), 100)}
		_, err = Place(tooMany)
		assert.Error(t, err)
	})
}

func TestOrder_ChangeStatus(t *testing.T) {
	t.Run("walks the happy path", func(t *testing.T) {
		o := placeTestOrder(t, PaymentMethodCOD, 20, 1)

		require.NoError(t, o.ChangeStatus(StatusProcessing, ""))
		require.NoError(t, o.ChangeStatus(StatusShipped, ""))
		assert.NotNil(t, o.ShippedAt)
		require.NoError(t, o.ChangeStatus(StatusDelivered, ""))
		assert.NotNil(t, o.DeliveredAt)
		assert.Equal(t, PaymentStatusPaid, o.PaymentStatus, "cod is paid on delivery")
		assert.Len(t, o.GetDomainEvents(), 3)
	})

	t.Run("rejects invalid transitions", func(t *testing.T) {
		o := placeTestOrder(t, PaymentMethodCOD, 20, 1)

		err := o.ChangeStatus(StatusDelivered, "")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, StatusPending, o.Status)

		require.NoError(t, o.ChangeStatus(StatusCancelled, "customer request"))
		assert.ErrorIs(t, o.ChangeStatus(StatusProcessing, ""), shared.ErrInvalidState)
	})

	t.Run("shipped orders cannot be cancelled", func(t *testing.T) {
		o := placeTestOrder(t, PaymentMethodCOD, 20, 1)
		require.NoError(t, o.ChangeStatus(StatusProcessing, ""))
		require.NoError(t, o.ChangeStatus(StatusShipped, ""))

		assert.Error(t, o.Cancel("too late"))
	})
}

func TestOrder_CancelAndRestock(t *testing.T) {
	o := placeTestOrder(t, PaymentMethodCard, 20, 2)
	require.NoError(t, o.Pay(PaymentResult{ProviderID: "pay_1"}))
	o.ClearDomainEvents()

	require.NoError(t, o.Cancel("changed mind"))
	assert.Equal(t, PaymentStatusRefunded, o.PaymentStatus)
	assert.Equal(t, "changed mind", o.CancelReason)
	assert.True(t, o.NeedsRestock())

	o.MarkStockRestored()
	assert.False(t, o.NeedsRestock())
	changed := o.GetDomainEvents()[0].(*OrderStatusChangedEvent)
	assert.True(t, changed.Restocked)
}

func TestOrder_Pay(t *testing.T) {
	t.Run("marks paid and moves to processing", func(t *testing.T) {
		o := placeTestOrder(t, PaymentMethodPayPal, 50, 1)

		require.NoError(t, o.Pay(PaymentResult{ProviderID: "PAYID-1", PayerEmail: "jane@example.com"}))
		assert.True(t, o.IsPaid())
		assert.Equal(t, StatusProcessing, o.Status)
		assert.NotNil(t, o.PaymentResult.PaidAt)

		events := o.GetDomainEvents()
		require.Len(t, events, 2)
		_, ok := events[1].(*OrderPaidEvent)
		assert.True(t, ok)

		assert.Error(t, o.Pay(PaymentResult{ProviderID: "PAYID-2"}), "cannot pay twice")
	})

	t.Run("cod cannot be paid online", func(t *testing.T) {
		o := placeTestOrder(t, PaymentMethodCOD, 50, 1)
		assert.Error(t, o.Pay(PaymentResult{ProviderID: "x"}))
	})

	t.Run("requires provider id", func(t *testing.T) {
		o := placeTestOrder(t, PaymentMethodCard, 50, 1)
		assert.Error(t, o.Pay(PaymentResult{}))
	})
}

func TestOrder_Visibility(t *testing.T) {
	o := placeTestOrder(t, PaymentMethodCOD, 1, 1)
	assert.True(t, o.IsVisibleTo(o.UserID, false))
	assert.False(t, o.IsVisibleTo(uuid.New(), false))
	assert.True(t, o.IsVisibleTo(uuid.New(), true))
}

func TestGenerateOrderNumber(t *testing.T) {
	now := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)
	number := GenerateOrderNumber(now)
	assert.Regexp(t, regexp.MustCompile(`^ORD-20260309-[A-Z2-9]{6}$`), number)
	assert.NotEqual(t, number, GenerateOrderNumber(now))
}
