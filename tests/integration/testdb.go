//go:build integration

// Package integration runs the storage-dependent paths against real
// PostgreSQL and Redis containers started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shopfront/backend/internal/infrastructure/migration"
	"github.com/shopfront/backend/migrations"
)

// TestDB is a migrated PostgreSQL database in its own container
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container *tcpostgres.PostgresContainer
	DSN       string
	t         *testing.T
}

// NewTestDB starts a fresh container and applies the embedded migrations
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	tdb := startPostgres(t)
	tdb.Migrate()
	return tdb
}

// NewEmptyTestDB starts a container without applying migrations
func NewEmptyTestDB(t *testing.T) *TestDB {
	t.Helper()
	return startPostgres(t)
}

func startPostgres(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration tests need docker")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("shop_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)

	tdb := &TestDB{DB: db, SqlDB: sqlDB, Container: container, DSN: dsn, t: t}
	t.Cleanup(tdb.Close)
	return tdb
}

// Migrator opens a migrator on the embedded migration set
func (tdb *TestDB) Migrator() *migration.Migrator {
	tdb.t.Helper()
	m, err := migration.Open(tdb.DSN, migration.Embedded(migrations.FS), zap.NewNop())
	require.NoError(tdb.t, err)
	tdb.t.Cleanup(func() { _ = m.Close() })
	return m
}

// Migrate applies every pending migration
func (tdb *TestDB) Migrate() {
	tdb.t.Helper()
	require.NoError(tdb.t, tdb.Migrator().Up(), "Failed to run migrations")
}

// Close releases the connection pool and terminates the container
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		_ = tdb.SqlDB.Close()
	}
	if tdb.Container != nil {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("Warning: failed to terminate container: %v", err)
		}
	}
}

// CleanTables truncates every application table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != ?
	`, migration.TableName).Scan(&tables).Error
	require.NoError(tdb.t, err)

	for _, table := range tables {
		require.NoError(tdb.t, tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %q CASCADE", table)).Error)
	}
}

// Tables lists the tables in the public schema
func (tdb *TestDB) Tables() []string {
	tdb.t.Helper()
	var tables []string
	require.NoError(tdb.t, tdb.DB.Raw(
		`SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename`,
	).Scan(&tables).Error)
	return tables
}
