package transaction

import (
	"context"

	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/messaging"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
)

// Scope runs work atomically. Repositories handed to fn share one database
// transaction, and events written through Events commit with it.
type Scope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// EventWriter stages domain events in the transactional outbox
type EventWriter interface {
	Write(ctx context.Context, events ...shared.DomainEvent) error
}

// Repositories provides access to every repository scoped to the current transaction
type Repositories interface {
	Users() identity.UserRepository
	Products() catalog.ProductRepository
	Reviews() catalog.ReviewRepository
	Carts() cart.CartRepository
	Orders() order.TxRepository
	Stock() order.StockLedger
	Conversations() messaging.Repository
	Events() EventWriter
}

// StaticRepositories is a Repositories backed by fixed implementations
type StaticRepositories struct {
	UserRepo         identity.UserRepository
	ProductRepo      catalog.ProductRepository
	ReviewRepo       catalog.ReviewRepository
	CartRepo         cart.CartRepository
	OrderRepo        order.TxRepository
	StockLedger      order.StockLedger
	ConversationRepo messaging.Repository
	EventWriter      EventWriter
}

func (s *StaticRepositories) Users() identity.UserRepository { return s.UserRepo }
func (s *StaticRepositories) Products() catalog.ProductRepository { return s.ProductRepo }
func (s *StaticRepositories) Reviews() catalog.ReviewRepository { return s.ReviewRepo }
func (s *StaticRepositories) Carts() cart.CartRepository { return s.CartRepo }
func (s *StaticRepositories) Orders() order.TxRepository { return s.OrderRepo }
func (s *StaticRepositories) Stock() order.StockLedger { return s.StockLedger }
func (s *StaticRepositories) Conversations() messaging.Repository { return s.ConversationRepo }
func (s *StaticRepositories) Events() EventWriter { return s.EventWriter }

// NoOpScope runs fn against fixed repositories without a transaction.
// Service tests use it with mocks.
type NoOpScope struct {
	Repos *StaticRepositories
}

// NewNoOpScope creates a NoOpScope
func NewNoOpScope(repos *StaticRepositories) *NoOpScope {
	return &NoOpScope{Repos: repos}
}

// Execute runs fn directly
func (s *NoOpScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s.Repos)
}

// RecordingEventWriter collects written events in memory
type RecordingEventWriter struct {
	Events []shared.DomainEvent
	Err    error
}

// Write appends events, or fails with Err when set
func (w *RecordingEventWriter) Write(_ context.Context, events ...shared.DomainEvent) error {
	if w.Err != nil {
		return w.Err
	}
	w.Events = append(w.Events, events...)
	return nil
}

// Types returns the event types written so far
func (w *RecordingEventWriter) Types() []string {
	types := make([]string, 0, len(w.Events))
	for _, e := range w.Events {
		types = append(types, e.EventType())
	}
	return types
}

var (
	_ Scope        = (*NoOpScope)(nil)
	_ Repositories = (*StaticRepositories)(nil)
	_ EventWriter  = (*RecordingEventWriter)(nil)
)
