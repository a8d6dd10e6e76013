package order

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/application/transaction"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OrderServiceConfig holds checkout settings
type OrderServiceConfig struct {
	Pricing order.PricingPolicy

	// KeyTTL is how long an in-flight idempotency marker is held
	KeyTTL time.Duration

	// PendingTTL is how long an unpaid online order may stay pending
	PendingTTL time.Duration

	// ExpireBatchSize caps how many stale orders one sweep cancels
	ExpireBatchSize int
}

// DefaultOrderServiceConfig returns the default configuration
func DefaultOrderServiceConfig() OrderServiceConfig {
	return OrderServiceConfig{
		Pricing:         order.DefaultPricingPolicy(),
		KeyTTL:          24 * time.Hour,
		PendingTTL:      24 * time.Hour,
		ExpireBatchSize: 100,
	}
}

// PaymentTimeoutReason is the cancel reason of expired unpaid orders
const PaymentTimeoutReason = "payment timeout"

// OrderService handles checkout and the order lifecycle
type OrderService struct {
	scope     transaction.Scope
	orderRepo order.Repository
	cartRepo  cart.CartRepository
	keys      shared.IdempotencyStore
	invoices  InvoiceRenderer
	payments  PaymentVerifier
	metrics   BusinessRecorder
	config    OrderServiceConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(
	scope transaction.Scope,
	orderRepo order.Repository,
	cartRepo cart.CartRepository,
	keys shared.IdempotencyStore,
	config OrderServiceConfig,
	logger *zap.Logger,
) *OrderService {
	defaults := DefaultOrderServiceConfig()
	if config.KeyTTL <= 0 {
		config.KeyTTL = defaults.KeyTTL
	}
	if config.PendingTTL <= 0 {
		config.PendingTTL = defaults.PendingTTL
	}
	if config.ExpireBatchSize <= 0 {
		config.ExpireBatchSize = defaults.ExpireBatchSize
	}
	return &OrderService{
		scope:     scope,
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		keys:      keys,
		metrics:   Recorders(nil),
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *OrderService) SetBusinessMetrics(m BusinessRecorder) {
	if m != nil {
		s.metrics = m
	}
}

// SetPaymentVerifier makes Pay confirm card payments with the provider
func (s *OrderService) SetPaymentVerifier(v PaymentVerifier) {
	s.payments = v
}

// SetInvoiceRenderer enables invoice rendering
func (s *OrderService) SetInvoiceRenderer(r InvoiceRenderer) {
	s.invoices = r
}

type line struct {
	productID uuid.UUID
	quantity  int
}

// Create places an order. Stock for every line is reserved, prices are
// computed from the catalog, and the order with its outbox events is written,
// all in one transaction.
func (s *OrderService) Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*CreateOrderResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create")
	defer span.End()

	result, err := s.create(ctx, userID, req)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordOrderRejected(ctx, errorCode(err))
		return nil, err
	}
	telemetry.SetAttributes(span,
		"order_id", result.Order.ID.String(),
		"replayed", result.Replayed,
		"lines", len(result.Order.Items))
	return result, nil
}

func (s *OrderService) create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*CreateOrderResult, error) {
	method := order.PaymentMethod(strings.ToLower(req.PaymentMethod))
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be cod, card or paypal")
	}
	address := req.ShippingAddress.toDomain()
	if err := address.Validate(); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if len(key) > 100 {
		return nil, shared.NewDomainError("INVALID_IDEMPOTENCY_KEY", "Idempotency key cannot exceed 100 characters")
	}

	if key != "" {
		existing, err := s.orderRepo.FindByUserAndIdempotencyKey(ctx, userID, key)
		switch {
		case err == nil:
			s.logger.Info("Order request replayed",
				zap.String("order_id", existing.ID.String()),
				zap.String("user_id", userID.String()))
			return &CreateOrderResult{Order: ToOrderResponse(existing), Replayed: true}, nil
		case !errors.Is(err, shared.ErrNotFound):
			return nil, internalError(s.logger, "Failed to look up idempotency key", err)
		}

		marker := idempotencyMarker(userID, key)
		claimed, err := s.keys.MarkProcessed(ctx, marker, s.config.KeyTTL)
		if err != nil {
			return nil, internalError(s.logger, "Failed to claim idempotency key", err)
		}
		if !claimed {
			return nil, shared.NewDomainError("CONFLICT", "Order request already in progress")
		}
		placed := false
		defer func() {
			if placed {
				return
			}
			// A failed attempt must not block the client's retry
			if err := s.keys.Release(context.WithoutCancel(ctx), marker); err != nil {
				s.logger.Warn("Failed to release idempotency key", zap.String("key", marker), zap.Error(err))
			}
		}()

		o, err := s.place(ctx, userID, key, method, address, req)
		if err != nil {
			return nil, err
		}
		placed = true
		return &CreateOrderResult{Order: ToOrderResponse(o)}, nil
	}

	o, err := s.place(ctx, userID, "", method, address, req)
	if err != nil {
		return nil, err
	}
	return &CreateOrderResult{Order: ToOrderResponse(o)}, nil
}

func (s *OrderService) place(
	ctx context.Context,
	userID uuid.UUID,
	key string,
	method order.PaymentMethod,
	address order.ShippingAddress,
	req CreateOrderRequest,
) (*order.Order, error) {
	lines, err := s.collectLines(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	var placed *order.Order
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		items := make([]order.Item, 0, len(lines))
		var lowStock []shared.DomainEvent

		for _, l := range lines {
			reserved, err := repos.Stock().Reserve(ctx, l.productID, l.quantity)
			if err != nil {
				return err
			}
			product, err := repos.Products().FindByID(ctx, l.productID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return productUnavailable(l.productID)
				}
				return err
			}
			if !reserved {
				if !product.IsActive {
					return productUnavailable(l.productID)
				}
				return shared.NewDomainError("INSUFFICIENT_STOCK",
					fmt.Sprintf("Only %d of %s left in stock", product.Stock, product.Name))
			}

			// product now reflects the decremented stock
			if catalog.CrossedLowStock(product.Stock+l.quantity, product.Stock, product.LowStockThreshold) {
				lowStock = append(lowStock, catalog.NewProductStockLowEvent(
					product.ID, product.Name, product.Stock, product.LowStockThreshold))
			}
			items = append(items, order.NewItem(product.ID, product.Name, product.PrimaryImage(), product.EffectivePrice(), l.quantity))
		}

		o, err := order.Place(order.PlaceParams{
			Number:         order.GenerateOrderNumber(s.now()),
			UserID:         userID,
			IdempotencyKey: key,
			Items:          items,
			Address:        address,
			PaymentMethod:  method,
			Note:           req.Note,
			Pricing:        s.config.Pricing,
		})
		if err != nil {
			return err
		}
		if err := repos.Orders().Create(ctx, o); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return shared.NewDomainError("CONFLICT", "Order request already in progress")
			}
			return err
		}
		if req.FromCart {
			if err := repos.Carts().ClearByUser(ctx, userID); err != nil {
				return err
			}
		}
		if err := repos.Events().Write(ctx, o.PullDomainEvents()...); err != nil {
			return err
		}
		if err := repos.Events().Write(ctx, lowStock...); err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		return nil, internalError(s.logger, "Failed to place order", err)
	}

	s.metrics.RecordOrderPlaced(ctx, string(placed.PaymentMethod), placed.TotalPrice, len(placed.Items))
	s.logger.Info("Order placed",
		zap.String("order_id", placed.ID.String()),
		zap.String("order_number", placed.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("total", placed.TotalPrice.StringFixed(2)))
	return placed, nil
}

// collectLines validates the requested lines, merges duplicates and sorts
// them by product ID so concurrent checkouts lock rows in the same order
func (s *OrderService) collectLines(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) ([]line, error) {
	requested := req.Items
	if req.FromCart {
		c, err := s.cartRepo.FindByUser(ctx, userID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, internalError(s.logger, "Failed to load cart", err)
		}
		requested = nil
		if c != nil {
			for _, item := range c.Items {
				requested = append(requested, OrderItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
			}
		}
	}
	if len(requested) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order must contain at least one item")
	}

	merged := make(map[uuid.UUID]int, len(requested))
	for _, item := range requested {
		if item.ProductID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Product is required for every item")
		}
		if item.Quantity < 1 || item.Quantity > order.MaxLineQuantity {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be between 1 and 99")
		}
		merged[item.ProductID] += item.Quantity
	}

	lines := make([]line, 0, len(merged))
	for id, qty := range merged {
		if qty > order.MaxLineQuantity {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be between 1 and 99")
		}
		lines = append(lines, line{productID: id, quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool {
		return bytes.Compare(lines[i].productID[:], lines[j].productID[:]) < 0
	})
	return lines, nil
}

// UpdateStatus moves an order through its lifecycle. Cancelling returns the
// reserved stock exactly once.
func (s *OrderService) UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	target := order.Status(req.Status)
	o, err := s.transition(ctx, orderID, func(o *order.Order) error {
		return o.ChangeStatus(target, req.Note)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("status", string(o.Status)),
		zap.String("by", actorID.String()))
	resp := ToOrderResponse(o)
	return &resp, nil
}

// Cancel lets the owner cancel a pending or processing order
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "cancelled by customer"
	}
	o, err := s.transition(ctx, orderID, func(o *order.Order) error {
		if o.UserID != userID {
			return orderNotFound()
		}
		return o.Cancel(reason)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Order cancelled by customer", zap.String("order_id", o.ID.String()))
	resp := ToOrderResponse(o)
	return &resp, nil
}

// Pay records an online payment for the owner's pending order
func (s *OrderService) Pay(ctx context.Context, userID, orderID uuid.UUID, req PayOrderRequest) (*OrderResponse, error) {
	result := order.PaymentResult{
		ProviderID: strings.TrimSpace(req.ProviderID),
		Status:     req.Status,
		PayerEmail: req.PayerEmail,
	}
	if s.payments != nil {
		verified, err := s.verifyPayment(ctx, userID, orderID, result.ProviderID)
		if err != nil {
			return nil, err
		}
		if verified != nil {
			result = *verified
		}
	}

	o, err := s.transition(ctx, orderID, func(o *order.Order) error {
		if o.UserID != userID {
			return orderNotFound()
		}
		return o.Pay(result)
	})
	if errors.Is(err, shared.ErrAlreadyExists) {
		s.logger.Warn("Payment reference already settles another order",
			zap.String("order_id", orderID.String()),
			zap.String("provider_id", result.ProviderID))
		return nil, shared.NewDomainError("CONFLICT", "Payment has already been applied to another order")
	}
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPayment(ctx, string(o.PaymentMethod))
	s.logger.Info("Order paid", zap.String("order_id", o.ID.String()))
	resp := ToOrderResponse(o)
	return &resp, nil
}

// verifyPayment asks the provider about a card payment before the order row
// is locked. Other methods are recorded as reported by the client.
func (s *OrderService) verifyPayment(ctx context.Context, userID, orderID uuid.UUID, providerID string) (*order.PaymentResult, error) {
	o, err := s.load(ctx, userID, false, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != order.PaymentMethodCard {
		return nil, nil
	}
	if !o.IsAwaitingOnlinePayment() {
		return nil, shared.NewDomainError("INVALID_STATE", "Order is not awaiting payment")
	}
	return s.payments.Verify(ctx, o, providerID)
}

// ExpireStale cancels unpaid online orders older than the pending TTL.
// It returns how many orders were cancelled.
func (s *OrderService) ExpireStale(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.config.PendingTTL)
	ids, err := s.orderRepo.FindStalePending(ctx, cutoff, s.config.ExpireBatchSize)
	if err != nil {
		return 0, internalError(s.logger, "Failed to find stale orders", err)
	}

	expired := 0
	for _, id := range ids {
		_, err := s.transition(ctx, id, func(o *order.Order) error {
			if !o.IsAwaitingOnlinePayment() {
				return errSkip
			}
			return o.Cancel(PaymentTimeoutReason)
		})
		switch {
		case err == nil:
			expired++
		case errors.Is(err, errSkip):
		default:
			s.logger.Warn("Failed to expire order", zap.String("order_id", id.String()), zap.Error(err))
		}
	}
	if expired > 0 {
		s.logger.Info("Expired unpaid orders", zap.Int("count", expired))
	}
	return expired, nil
}

var errSkip = errors.New("order no longer eligible")

// transition locks the order, applies change and restocks a newly cancelled
// order, all within one transaction
func (s *OrderService) transition(ctx context.Context, orderID uuid.UUID, change func(o *order.Order) error) (*order.Order, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "transition")
	defer span.End()

	var (
		updated   *order.Order
		restocked bool
	)
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		o, err := repos.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := change(o); err != nil {
			return err
		}

		if o.NeedsRestock() {
			for _, item := range o.Items {
				err := repos.Stock().Restore(ctx, item.ProductID, item.Quantity)
				if errors.Is(err, shared.ErrNotFound) {
					s.logger.Warn("Skipping restock of deleted product",
						zap.String("order_id", o.ID.String()),
						zap.String("product_id", item.ProductID.String()))
					continue
				}
				if err != nil {
					return err
				}
			}
			o.MarkStockRestored()
			restocked = true
		}

		if err := repos.Orders().Update(ctx, o); err != nil {
			return err
		}
		if err := repos.Events().Write(ctx, o.PullDomainEvents()...); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, errSkip) {
			return nil, err
		}
		return nil, internalError(s.logger, "Failed to update order", err)
	}

	if updated.Status == order.StatusCancelled {
		s.metrics.RecordOrderCancelled(ctx, restocked)
	}
	telemetry.SetAttributes(span, "order_id", orderID.String(), "status", string(updated.Status), "restocked", restocked)
	return updated, nil
}

// Get returns an order to its owner or an admin. Anyone else gets not found.
func (s *OrderService) Get(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.load(ctx, userID, isAdmin, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// ListMine returns the user's orders, newest first
func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	filter.UserID = &userID
	return s.list(ctx, filter)
}

// List returns orders for the admin console
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	return s.list(ctx, filter)
}

func (s *OrderService) list(ctx context.Context, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	f := order.Filter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   strings.TrimSpace(filter.Search),
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
		UserID: filter.UserID,
		Status: order.Status(filter.Status),
		From:   filter.From,
	}
	if filter.To != nil {
		// the to date is inclusive
		end := filter.To.Add(24 * time.Hour)
		f.To = &end
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "from must not be after to")
	}

	orders, total, err := s.orderRepo.FindAll(ctx, f)
	if err != nil {
		return nil, internalError(s.logger, "Failed to list orders", err)
	}
	page := shared.NewPaginated(ToOrderResponses(orders), total, f.Page, f.PageSize)
	return &page, nil
}

// Invoice renders a PDF invoice for the owner or an admin
func (s *OrderService) Invoice(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*Invoice, error) {
	if s.invoices == nil {
		return nil, shared.NewDomainError("SERVICE_UNAVAILABLE", "Invoice rendering is disabled")
	}
	o, err := s.load(ctx, userID, isAdmin, orderID)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "order", "invoice")
	defer span.End()

	data, err := s.invoices.Render(ctx, o)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, internalError(s.logger, "Failed to render invoice", err)
	}
	return &Invoice{
		FileName:    fmt.Sprintf("invoice-%s.pdf", o.OrderNumber),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func (s *OrderService) load(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load order", err)
	}
	if !o.IsVisibleTo(userID, isAdmin) {
		return nil, orderNotFound()
	}
	return o, nil
}

func idempotencyMarker(userID uuid.UUID, key string) string {
	return fmt.Sprintf("order:%s:%s", userID, key)
}

func orderNotFound() error {
	return shared.NewDomainError("NOT_FOUND", "Order not found")
}

func productUnavailable(id uuid.UUID) error {
	return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Product %s is not available", id))
}

func errorCode(err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return strings.ToLower(domainErr.Code)
	}
	return "internal_error"
}

// internalError passes domain errors through and hides everything else
// behind INTERNAL_ERROR
func internalError(logger *zap.Logger, message string, err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	logger.Error(message, zap.Error(err))
	return shared.WrapDomainError("INTERNAL_ERROR", message, err)
}
