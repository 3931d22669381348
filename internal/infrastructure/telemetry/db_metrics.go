package telemetry

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBDurationBuckets are the query latency buckets in seconds
var DBDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// Metric attribute keys for database metrics
var (
	AttrDBOperation = attribute.Key("db.operation")
	AttrDBTable     = attribute.Key("db.table")
	AttrDBStatus    = attribute.Key("db.status")
	AttrPoolState   = attribute.Key("state")
)

// DBMetricsPlugin is a gorm plugin recording query latency per operation and
// table, slow queries, and connection pool usage
type DBMetricsPlugin struct {
	meter         metric.Meter
	slowThreshold time.Duration
	logger        *zap.Logger

	queryDuration *Histogram
	slowQueries   *Counter
}

// NewDBMetricsPlugin creates the plugin. A zero slowThreshold uses 200ms.
func NewDBMetricsPlugin(meter metric.Meter, slowThreshold time.Duration, logger *zap.Logger) (*DBMetricsPlugin, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}

	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	slow, err := NewCounter(meter, "db_slow_query_total", "Queries slower than the slow query threshold", "{query}")
	if err != nil {
		return nil, err
	}

	return &DBMetricsPlugin{
		meter:         meter,
		slowThreshold: slowThreshold,
		logger:        logger,
		queryDuration: duration,
		slowQueries:   slow,
	}, nil
}

// Name implements gorm.Plugin
func (p *DBMetricsPlugin) Name() string {
	return "storefront:db_metrics"
}

// Initialize implements gorm.Plugin
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	if err := p.registerPoolStats(db); err != nil {
		return err
	}

	if err := p.registerBeforeCallbacks(db); err != nil {
		return err
	}
	return p.registerAfterCallbacks(db)
}

func (p *DBMetricsPlugin) registerBeforeCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("db_metrics:before_create", p.before); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("db_metrics:before_query", p.before); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("db_metrics:before_update", p.before); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("db_metrics:before_delete", p.before); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("db_metrics:before_row", p.before); err != nil {
		return err
	}
	return cb.Raw().Before("gorm:raw").Register("db_metrics:before_raw", p.before)
}

func (p *DBMetricsPlugin) registerAfterCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().After("gorm:create").Register("db_metrics:after_create", p.afterOp("INSERT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("db_metrics:after_query", p.afterOp("SELECT")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("db_metrics:after_update", p.afterOp("UPDATE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("db_metrics:after_delete", p.afterOp("DELETE")); err != nil {
		return err
	}
	// row and raw statements carry their verb in the SQL
	if err := cb.Row().After("gorm:row").Register("db_metrics:after_row", p.afterOp("")); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("db_metrics:after_raw", p.afterOp(""))
}

func (p *DBMetricsPlugin) afterOp(op string) func(*gorm.DB) {
	return func(tx *gorm.DB) { p.after(tx, op) }
}

type queryStartKey struct{}

func (p *DBMetricsPlugin) before(tx *gorm.DB) {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tx.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (p *DBMetricsPlugin) after(tx *gorm.DB, op string) {
	ctx := tx.Statement.Context
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if op == "" {
		op = operationOf(tx.Statement.SQL.String())
	}

	status := "ok"
	if tx.Error != nil && tx.Error != gorm.ErrRecordNotFound {
		status = "error"
	}
	attrs := []attribute.KeyValue{
		AttrDBOperation.String(op),
		AttrDBTable.String(tx.Statement.Table),
		AttrDBStatus.String(status),
	}

	elapsed := time.Since(start)
	p.queryDuration.RecordDuration(ctx, elapsed, attrs...)
	if elapsed > p.slowThreshold {
		p.slowQueries.Inc(ctx, attrs[:2]...)
	}
}

func (p *DBMetricsPlugin) registerPoolStats(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	conns, err := p.meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	maxConns, err := p.meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}

	_, err = p.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := sqlDB.Stats()
		o.ObserveInt64(conns, int64(s.InUse), metric.WithAttributes(AttrPoolState.String("in_use")))
		o.ObserveInt64(conns, int64(s.Idle), metric.WithAttributes(AttrPoolState.String("idle")))
		o.ObserveInt64(maxConns, int64(s.MaxOpenConnections))
		return nil
	}, conns, maxConns)
	return err
}

func operationOf(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return "OTHER"
}

// Ensure DBMetricsPlugin implements gorm.Plugin
var _ gorm.Plugin = (*DBMetricsPlugin)(nil)
