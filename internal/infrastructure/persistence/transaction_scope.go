package persistence

import (
	"context"

	"github.com/shopfront/backend/internal/application/transaction"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/messaging"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionScope implements transaction.Scope using GORM transactions
type GormTransactionScope struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope.
// Events written inside Execute go to outbox on the same transaction.
func NewGormTransactionScope(db *gorm.DB, outbox shared.OutboxEventSaver) *GormTransactionScope {
	return &GormTransactionScope{db: db, outbox: outbox}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos transaction.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, outbox: s.outbox})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx     *gorm.DB
	outbox shared.OutboxEventSaver
}

func (r *gormTransactionalRepositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

func (r *gormTransactionalRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) Reviews() catalog.ReviewRepository {
	return NewGormReviewRepository(r.tx)
}

func (r *gormTransactionalRepositories) Carts() cart.CartRepository {
	return NewGormCartRepository(r.tx)
}

func (r *gormTransactionalRepositories) Orders() order.TxRepository {
	return NewGormOrderTxRepository(r.tx)
}

func (r *gormTransactionalRepositories) Stock() order.StockLedger {
	return NewGormStockLedger(r.tx)
}

func (r *gormTransactionalRepositories) Conversations() messaging.Repository {
	return NewGormConversationRepository(r.tx)
}

func (r *gormTransactionalRepositories) Events() transaction.EventWriter {
	return outboxWriter{tx: r.tx, outbox: r.outbox}
}

// outboxWriter adapts the outbox saver to transaction.EventWriter
type outboxWriter struct {
	tx     *gorm.DB
	outbox shared.OutboxEventSaver
}

func (w outboxWriter) Write(ctx context.Context, events ...shared.DomainEvent) error {
	return w.outbox.SaveEvents(ctx, w.tx, events...)
}

var (
	_ transaction.Scope        = (*GormTransactionScope)(nil)
	_ transaction.Repositories = (*gormTransactionalRepositories)(nil)
)
