package persistence

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

func postgresConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:          "postgres",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 60,
		ConnMaxIdleTime: 30,
	}
}

func TestOpen_AppliesPoolSettings(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)

	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}), postgresConfig())
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "postgres", db.Driver)
	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 10, stats.MaxOpenConnections)
	assert.NoError(t, db.Ping())
}

func TestOpen_PingFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	_, err = Open(postgres.New(postgres.Config{Conn: sqlDB}), postgresConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDatabase_Close(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}), postgresConfig())
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestNewDatabase_SQLiteAutoMigrate(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "shop.db"),
	}
	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "sqlite", db.Driver)
	require.NoError(t, db.AutoMigrate())
	for _, table := range []string{"users", "products", "orders", "order_items", "outbox_events"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
}
