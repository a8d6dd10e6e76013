package persistence

import (
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/messaging"
	"github.com/shopfront/backend/internal/domain/notification"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/wishlist"
	"gorm.io/gorm"
)

// Models lists every persisted type in dependency order
func Models() []any {
	return []any{
		&identity.User{},
		&catalog.Category{},
		&catalog.Product{},
		&catalog.Review{},
		&cart.Cart{},
		&cart.CartItem{},
		&order.Order{},
		&order.Item{},
		&messaging.Conversation{},
		&messaging.Message{},
		&notification.Notification{},
		&wishlist.Item{},
		&shared.OutboxEntry{},
	}
}

// AutoMigrate creates the schema from the models. Used for sqlite in
// development; postgres deployments run the SQL migrations instead.
func (d *Database) AutoMigrate() error {
	return AutoMigrate(d.DB)
}

// AutoMigrate creates the schema on db
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
