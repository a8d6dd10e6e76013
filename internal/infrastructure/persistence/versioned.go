package persistence

import (
	"context"
	"errors"

	"github.com/shopfront/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type versioned interface {
	NextVersion() int
	MarkPersisted()
}

// saveVersioned writes every column of agg guarded by its stored version.
// Associations are left to the caller.
func saveVersioned(ctx context.Context, db *gorm.DB, agg versioned) error {
	expected := agg.NextVersion()
	result := db.WithContext(ctx).
		Model(agg).
		Where("version = ?", expected).
		Select("*").
		Omit(clause.Associations, "created_at").
		Updates(agg)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	agg.MarkPersisted()
	return nil
}

// notFound maps gorm.ErrRecordNotFound to shared.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// translateError maps unique violations to shared.ErrAlreadyExists.
// Requires gorm.Config.TranslateError on the connection.
func translateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}
