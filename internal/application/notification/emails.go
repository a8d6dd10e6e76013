package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/order"
)

// Templates renders the plain text emails. Links point at the storefront.
type Templates struct {
	ShopName    string
	FrontendURL string
	Currency    string
}

func (t Templates) link(path string) string {
	return strings.TrimRight(t.FrontendURL, "/") + path
}

func (t Templates) signature() string {
	return "\n\nThanks,\nThe " + t.ShopName + " team\n"
}

func (t Templates) Welcome(e *identity.UserRegisteredEvent) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", e.Name)
	fmt.Fprintf(&b, "Welcome to %s. Your account is ready.\n", t.ShopName)
	fmt.Fprintf(&b, "Start shopping at %s", t.link("/"))
	b.WriteString(t.signature())
	return Email{To: e.Email, Subject: "Welcome to " + t.ShopName, Body: b.String()}
}

func (t Templates) PasswordReset(e *identity.PasswordResetRequestedEvent) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", e.Name)
	b.WriteString("We received a request to reset your password. Use the link below to choose a new one:\n\n")
	fmt.Fprintf(&b, "%s\n\n", t.link("/reset-password?token="+e.Token))
	fmt.Fprintf(&b, "The link expires at %s. If you did not ask for this, ignore this email.",
		e.ExpiresAt.UTC().Format(time.RFC1123))
	b.WriteString(t.signature())
	return Email{To: e.Email, Subject: "Reset your password", Body: b.String()}
}

func (t Templates) OrderConfirmation(to, name string, e *order.OrderPlacedEvent) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", e.OrderNumber)
	for _, item := range e.Items {
		fmt.Fprintf(&b, "  %d x %s @ %s %s\n", item.Quantity, item.Name, item.UnitPrice.StringFixed(2), t.Currency)
	}
	fmt.Fprintf(&b, "\nTotal: %s %s\n", e.TotalPrice.StringFixed(2), t.Currency)
	fmt.Fprintf(&b, "Payment: %s\n\n", paymentLabel(e.PaymentMethod))
	fmt.Fprintf(&b, "Track your order at %s", t.link("/orders/"+e.OrderID.String()))
	b.WriteString(t.signature())
	return Email{To: to, Subject: fmt.Sprintf("Order %s confirmed", e.OrderNumber), Body: b.String()}
}

func (t Templates) OrderStatus(to, name string, e *order.OrderStatusChangedEvent) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Your order %s is now %s.\n", e.OrderNumber, e.NewStatus)
	if e.Note != "" {
		fmt.Fprintf(&b, "\nNote: %s\n", e.Note)
	}
	if e.NewStatus == order.StatusCancelled && e.PaymentStatus == order.PaymentStatusRefunded {
		b.WriteString("\nYour payment will be refunded.\n")
	}
	fmt.Fprintf(&b, "\nDetails: %s", t.link("/orders/"+e.OrderID.String()))
	b.WriteString(t.signature())
	return Email{To: to, Subject: fmt.Sprintf("Order %s %s", e.OrderNumber, e.NewStatus), Body: b.String()}
}

func (t Templates) Receipt(to, name string, e *order.OrderPaidEvent) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "We received your payment of %s %s for order %s.\n", e.TotalPrice.StringFixed(2), t.Currency, e.OrderNumber)
	fmt.Fprintf(&b, "Payment reference: %s", e.ProviderID)
	b.WriteString(t.signature())
	return Email{To: to, Subject: fmt.Sprintf("Receipt for order %s", e.OrderNumber), Body: b.String()}
}

func paymentLabel(m order.PaymentMethod) string {
	switch m {
	case order.PaymentMethodCOD:
		return "cash on delivery"
	case order.PaymentMethodCard:
		return "card"
	case order.PaymentMethodPayPal:
		return "PayPal"
	}
	return string(m)
}
