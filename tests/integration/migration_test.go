//go:build integration

package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopfront/backend/internal/infrastructure/migration"
	"github.com/shopfront/backend/internal/infrastructure/persistence"
	"github.com/shopfront/backend/migrations"
)

func TestMigrations_UpDownUp(t *testing.T) {
	tdb := NewEmptyTestDB(t)
	m := tdb.Migrator()

	available, err := migration.ListMigrations(migrations.FS)
	require.NoError(t, err)
	latest := available[len(available)-1].Version

	status, err := m.Status()
	require.NoError(t, err)
	assert.Equal(t, uint(0), status.Current)
	assert.Len(t, status.Pending, len(available))

	require.NoError(t, m.Up())
	status, err = m.Status()
	require.NoError(t, err)
	assert.Equal(t, latest, status.Current)
	assert.False(t, status.Dirty)
	assert.Empty(t, status.Pending)

	tables := tdb.Tables()
	for _, table := range []string{"users", "products", "orders", "order_items", "outbox_events", "wishlist_items"} {
		assert.Contains(t, tables, table)
	}

	// already at the latest version
	require.NoError(t, m.Up())

	require.NoError(t, m.Down())
	assert.Equal(t, []string{migration.TableName}, tdb.Tables())

	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, latest, version)
	assert.False(t, dirty)
}

func TestMigrations_Steps(t *testing.T) {
	tdb := NewEmptyTestDB(t)
	m := tdb.Migrator()

	require.NoError(t, m.Steps(1))
	version, _, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.NotContains(t, tdb.Tables(), "outbox_events")

	require.NoError(t, m.GoTo(3))
	assert.Contains(t, tdb.Tables(), "outbox_events")

	require.NoError(t, m.Steps(-1))
	assert.NotContains(t, tdb.Tables(), "outbox_events")
	assert.Contains(t, tdb.Tables(), "notifications")
}

func TestMigrations_SchemaCoversModels(t *testing.T) {
	tdb := NewTestDB(t)

	for _, model := range persistence.Models() {
		stmt := &gorm.Statement{DB: tdb.DB}
		require.NoError(t, stmt.Parse(model))
		for _, column := range stmt.Schema.DBNames {
			assert.True(t, tdb.DB.Migrator().HasColumn(model, column),
				"%s.%s is missing from the migrations", stmt.Schema.Table, column)
		}
	}
}
