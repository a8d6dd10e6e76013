package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"go.uber.org/zap"
)

// StripeConfig holds the settings for verifying card payments with Stripe
type StripeConfig struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string

	// IsTestMode requires a test key
	IsTestMode bool

	// Currency is the shop currency, e.g. "usd"
	Currency string
}

// Validate validates the Stripe configuration
func (c StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}
	prefix := "sk_live"
	if c.IsTestMode {
		prefix = "sk_test"
	}
	if !strings.HasPrefix(c.SecretKey, prefix) {
		return fmt.Errorf("stripe: secret key does not match mode, expected %s_ key", prefix)
	}
	if c.Currency == "" {
		return fmt.Errorf("stripe: currency is required")
	}
	return nil
}

// zero-decimal currencies are charged in whole units
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true, "krw": true,
	"mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true, "vuv": true, "xaf": true,
	"xof": true, "xpf": true,
}

// MinorUnits converts an amount to the smallest currency unit Stripe charges in
func MinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimal[strings.ToLower(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// StripeVerifier confirms a card payment by reading the PaymentIntent the
// client completed. The intent must have succeeded for the order's total in
// the shop currency, and when it carries an order_id in its metadata that ID
// must match.
type StripeVerifier struct {
	intents  paymentintent.Client
	currency string
	logger   *zap.Logger
}

// NewStripeVerifier creates a verifier on the default Stripe API backend
func NewStripeVerifier(cfg StripeConfig, logger *zap.Logger) (*StripeVerifier, error) {
	return NewStripeVerifierWithBackend(cfg, stripe.GetBackend(stripe.APIBackend), logger)
}

// NewStripeVerifierWithBackend creates a verifier on a specific backend
func NewStripeVerifierWithBackend(cfg StripeConfig, backend stripe.Backend, logger *zap.Logger) (*StripeVerifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &StripeVerifier{
		intents:  paymentintent.Client{B: backend, Key: cfg.SecretKey},
		currency: strings.ToLower(cfg.Currency),
		logger:   logger,
	}, nil
}

// Verify fetches the PaymentIntent and checks it pays for o
func (v *StripeVerifier) Verify(ctx context.Context, o *order.Order, providerID string) (*order.PaymentResult, error) {
	providerID = strings.TrimSpace(providerID)
	if !strings.HasPrefix(providerID, "pi_") {
		return nil, shared.NewDomainError("INVALID_INPUT", "Card payments require a Stripe PaymentIntent ID")
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	intent, err := v.intents.Get(providerID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404 {
			return nil, shared.NewDomainError("INVALID_INPUT", "Payment not found")
		}
		v.logger.Error("Failed to fetch Stripe PaymentIntent",
			zap.String("order_id", o.ID.String()),
			zap.String("payment_intent", providerID),
			zap.Error(err))
		return nil, shared.WrapDomainError("SERVICE_UNAVAILABLE", "Payment provider unavailable", err)
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Payment has not succeeded (status %s)", intent.Status))
	}
	if ref, ok := intent.Metadata["order_id"]; ok && ref != o.ID.String() {
		return nil, shared.NewDomainError("INVALID_STATE", "Payment belongs to another order")
	}
	if !strings.EqualFold(string(intent.Currency), v.currency) {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Payment currency %s does not match %s", intent.Currency, v.currency))
	}
	if want := MinorUnits(o.TotalPrice, v.currency); intent.AmountReceived != want {
		v.logger.Warn("Stripe payment amount mismatch",
			zap.String("order_id", o.ID.String()),
			zap.Int64("expected", want),
			zap.Int64("received", intent.AmountReceived))
		return nil, shared.NewDomainError("INVALID_STATE", "Payment amount does not match the order total")
	}

	paidAt := time.Unix(intent.Created, 0).UTC()
	return &order.PaymentResult{
		ProviderID: intent.ID,
		Status:     string(intent.Status),
		PayerEmail: intent.ReceiptEmail,
		PaidAt:     &paidAt,
	}, nil
}
