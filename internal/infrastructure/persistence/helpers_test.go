package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewSQLiteDB(t, Models()...)
}

// seedUser inserts a user without paying for bcrypt
func seedUser(t *testing.T, db *gorm.DB, name, email string, role identity.Role) *identity.User {
	t.Helper()
	u := &identity.User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		PasswordHash:      "hash",
		Role:              role,
		Status:            identity.UserStatusActive,
	}
	require.NoError(t, NewGormUserRepository(db).Create(context.Background(), u))
	return u
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *catalog.Category {
	t.Helper()
	c, err := catalog.NewCategory(name, "", "")
	require.NoError(t, err)
	require.NoError(t, NewGormCategoryRepository(db).Create(context.Background(), c))
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID uuid.UUID, name, price string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(catalog.ProductDetails{Name: name, Brand: "Acme", CategoryID: categoryID},
		decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Create(context.Background(), p))
	return p
}
