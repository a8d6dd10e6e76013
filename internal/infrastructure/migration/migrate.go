package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// TableName is where golang-migrate records the applied version
const TableName = "schema_migrations"

// Source is a set of migration files
type Source struct {
	fsys fs.FS
	desc string
}

// Dir reads migrations from a directory on disk
func Dir(path string) Source {
	return Source{fsys: os.DirFS(path), desc: path}
}

// Embedded reads migrations compiled into the binary
func Embedded(fsys fs.FS) Source {
	return Source{fsys: fsys, desc: "embedded"}
}

// String describes the source for logs
func (s Source) String() string {
	return s.desc
}

// Migrator applies the postgres schema migrations
type Migrator struct {
	migrate *migrate.Migrate
	source  Source
	logger  *zap.Logger
}

// Status is the schema version compared with the available migrations
type Status struct {
	Current uint
	Dirty   bool
	Pending []Migration
}

// New creates a Migrator on an open postgres connection
func New(db *sql.DB, src Source, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: TableName})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	files, err := iofs.New(src.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations from %s: %w", src, err)
	}
	m, err := migrate.NewWithInstance("iofs", files, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return newMigrator(m, src, logger), nil
}

// Open creates a Migrator from a postgres URL
func Open(databaseURL string, src Source, logger *zap.Logger) (*Migrator, error) {
	files, err := iofs.New(src.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations from %s: %w", src, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", files, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return newMigrator(m, src, logger), nil
}

func newMigrator(m *migrate.Migrate, src Source, logger *zap.Logger) *Migrator {
	m.Log = &migrateLogger{log: logger.Named("migrate")}
	return &Migrator{migrate: m, source: src, logger: logger}
}

// Up runs all pending migrations
func (m *Migrator) Up() error {
	m.logger.Info("Running migrations up", zap.Stringer("source", m.source))
	return m.apply("up", m.migrate.Up)
}

// Down rolls back all migrations
func (m *Migrator) Down() error {
	m.logger.Info("Rolling back all migrations")
	return m.apply("down", m.migrate.Down)
}

// Steps applies n migrations (positive = up, negative = down)
func (m *Migrator) Steps(n int) error {
	m.logger.Info("Running migration steps", zap.Int("steps", n))
	return m.apply("steps", func() error { return m.migrate.Steps(n) })
}

// GoTo migrates up or down to a specific version
func (m *Migrator) GoTo(version uint) error {
	m.logger.Info("Migrating to version", zap.Uint("target_version", version))
	return m.apply("goto", func() error { return m.migrate.Migrate(version) })
}

// apply runs op, treats ErrNoChange as success and logs the resulting version
func (m *Migrator) apply(op string, run func() error) error {
	err := run()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("Schema already at target", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migration finished",
		zap.String("op", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Version returns the applied version; zero when nothing was applied
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Status lists the migrations newer than the applied version
func (m *Migrator) Status() (*Status, error) {
	version, dirty, err := m.Version()
	if err != nil {
		return nil, err
	}
	available, err := ListMigrations(m.source.fsys)
	if err != nil {
		return nil, err
	}
	status := &Status{Current: version, Dirty: dirty}
	for _, mig := range available {
		if mig.Version > version {
			status.Pending = append(status.Pending, mig)
		}
	}
	return status, nil
}

// Force sets the migration version without running migrations.
// It clears the dirty flag after a failed migration was fixed by hand.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every table in the database
func (m *Migrator) Drop() error {
	m.logger.Warn("Dropping database - all data will be lost")
	if err := m.migrate.Drop(); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}
	return nil
}

// Close releases the source and the database driver
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}

// migrateLogger routes golang-migrate output to zap
type migrateLogger struct {
	log *zap.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrateLogger) Verbose() bool {
	return l.log.Core().Enabled(zap.DebugLevel)
}
