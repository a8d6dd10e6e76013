package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQuery = 200 * time.Millisecond

type queryStartKey struct{}

type registerFunc func(name string, fn func(*gorm.DB)) error

// hookPoint is one GORM processor with registration slots on either side
// of its built-in callback. After hooks run ahead of otelgorm's, while the
// statement span is still open.
type hookPoint struct {
	op     string
	before registerFunc
	after  registerFunc
}

func hookPoints(db *gorm.DB) []hookPoint {
	cb := db.Callback()
	return []hookPoint{
		{"INSERT", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Before("otel:after:create").Register},
		{"SELECT", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Before("otel:after:query").Register},
		{"UPDATE", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Before("otel:after:update").Register},
		{"DELETE", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Before("otel:after:delete").Register},
		{"ROW", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Before("otel:after:row").Register},
		{"RAW", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Before("otel:after:raw").Register},
	}
}

// registerAround installs callbacks named "<prefix>:before_<op>" and
// "<prefix>:after_<op>" on every processor
func registerAround(db *gorm.DB, prefix string, before func(*gorm.DB), after func(db *gorm.DB, op string)) error {
	for _, h := range hookPoints(db) {
		op := h.op
		name := strings.ToLower(op)
		if before != nil {
			if err := h.before(prefix+":before_"+name, before); err != nil {
				return err
			}
		}
		if err := h.after(prefix+":after_"+name, func(tx *gorm.DB) { after(tx, op) }); err != nil {
			return err
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

func queryElapsed(db *gorm.DB) (time.Duration, bool) {
	if db.Statement.Context == nil {
		return 0, false
	}
	start, ok := db.Statement.Context.Value(queryStartKey{}).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

// sqlVerb classifies ROW and RAW statements by their leading keyword
func sqlVerb(op, statement string) string {
	if op != "ROW" && op != "RAW" {
		return op
	}
	fields := strings.Fields(statement)
	if len(fields) == 0 {
		return "OTHER"
	}
	switch verb := strings.ToUpper(fields[0]); verb {
	case "SELECT", "INSERT", "UPDATE", "DELETE":
		return verb
	case "WITH":
		return "SELECT"
	default:
		return "OTHER"
	}
}

// ---------------------------------------------------------------------------
// Tracing
// ---------------------------------------------------------------------------

// DBTracingConfig configures GORM spans
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound values in db.statement; leave off in production
	LogFullSQL       bool
	SlowQueryThresh  time.Duration
	DBSystem         string
	WithoutVariables bool
}

// DBTracingPlugin adds otelgorm spans plus row counts, table names and a
// slow_query event to every statement
type DBTracingPlugin struct {
	cfg    DBTracingConfig
	logger *zap.Logger
}

func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQuery
	}
	return &DBTracingPlugin{cfg: cfg, logger: logger}
}

// RegisterOtelGorm installs the plugin on db. It does nothing when tracing is disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.cfg.Enabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(p.cfg.DBSystem)}
	if p.cfg.WithoutVariables || !p.cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := registerAround(db, "shop_trace", markQueryStart, p.annotate); err != nil {
		return err
	}
	p.logger.Info("Database tracing enabled",
		zap.String("db_system", p.cfg.DBSystem),
		zap.Duration("slow_query_threshold", p.cfg.SlowQueryThresh))
	return nil
}

func (p *DBTracingPlugin) annotate(db *gorm.DB, _ string) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
	if elapsed, ok := queryElapsed(db); ok && elapsed > p.cfg.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()))
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.cfg.SlowQueryThresh.Milliseconds())))
	}
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

// DBMetricsConfig configures query and pool metrics
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

// DBMetrics records query counts and latency per operation and samples the
// sql.DB pool on an interval until Stop
type DBMetrics struct {
	queries   *Counter
	latency   *Histogram
	slow      *Counter
	pool      *Gauge
	poolLimit *Gauge

	cfg   DBMetricsConfig
	sqlDB *sql.DB

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// RegisterDBMetrics instruments db and starts pool sampling. It returns nil
// when metrics are disabled.
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled || !mp.IsEnabled() {
		return nil, nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	m, err := newDBMetrics(mp, cfg, sqlDB)
	if err != nil {
		return nil, err
	}
	if err := registerAround(db, "shop_metrics", markQueryStart, m.observe); err != nil {
		return nil, err
	}
	m.startPoolSampling()
	logger.Info("Database metrics enabled",
		zap.Duration("slow_query_threshold", m.cfg.SlowQueryThreshold),
		zap.Duration("pool_interval", m.cfg.PoolStatsInterval))
	return m, nil
}

func newDBMetrics(mp *MeterProvider, cfg DBMetricsConfig, sqlDB *sql.DB) (*DBMetrics, error) {
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQuery
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}
	meter := mp.Meter("db.client")
	m := &DBMetrics{cfg: cfg, sqlDB: sqlDB, stop: make(chan struct{})}

	var err error
	if m.queries, err = NewCounter(meter, "db_query_total", "Database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.slow, err = NewCounter(meter, "db_slow_query_total", "Queries slower than the configured threshold", "{query}"); err != nil {
		return nil, err
	}
	if m.latency, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.pool, err = NewGauge(meter, "db_pool_connections", "Pooled connections by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolLimit, err = NewGauge(meter, "db_pool_connections_max", "Maximum open connections", "{connection}"); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DBMetrics) observe(db *gorm.DB, op string) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	verb := AttrDBOperation.String(sqlVerb(op, db.Statement.SQL.String()))
	m.queries.Inc(ctx, verb)

	elapsed, ok := queryElapsed(db)
	if !ok {
		return
	}
	m.latency.RecordDuration(ctx, elapsed, verb)
	if elapsed > m.cfg.SlowQueryThreshold {
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		m.slow.Inc(ctx, AttrDBTable.String(table))
	}
}

func (m *DBMetrics) samplePool(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.poolLimit.Record(ctx, int64(stats.MaxOpenConnections))
	m.pool.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.pool.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.pool.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

func (m *DBMetrics) startPoolSampling() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx := context.Background()
		ticker := time.NewTicker(m.cfg.PoolStatsInterval)
		defer ticker.Stop()

		m.samplePool(ctx)
		for {
			select {
			case <-ticker.C:
				m.samplePool(ctx)
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends pool sampling; it is safe to call more than once
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.wg.Wait()
	})
}
