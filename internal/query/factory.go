package query

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Factory creates queries and write clauses bound to one gorm handle. A
// Factory obtained from Transaction or Begin is bound to that transaction.
type Factory struct {
	db      *gorm.DB
	log     *zap.Logger
	metrics *Metrics
}

type Option func(*Factory)

func WithLogger(l *zap.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.log = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(f *Factory) { f.metrics = m }
}

func NewFactory(db *gorm.DB, opts ...Option) *Factory {
	f := &Factory{db: db, log: zap.NewNop()}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Factory) DB() *gorm.DB { return f.db }

// Dialect is the name of the underlying driver: mysql, postgres or sqlite.
func (f *Factory) Dialect() string { return f.db.Dialector.Name() }

func (f *Factory) with(db *gorm.DB) *Factory {
	cp := *f
	cp.db = db
	return &cp
}

// InTransaction reports whether the factory is bound to an open transaction.
func (f *Factory) InTransaction() bool {
	if f.db.Statement == nil {
		return false
	}
	committer, ok := f.db.Statement.ConnPool.(gorm.TxCommitter)
	return ok && committer != nil
}

// Transaction runs fn in a transaction: committed when fn returns nil, rolled
// back on error or panic. Nested calls use savepoints.
func (f *Factory) Transaction(ctx context.Context, fn func(tx *Factory) error) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(f.with(tx))
	})
}

// Tx is a caller-demarcated transaction. Exactly one of Commit or Rollback
// should be called; later calls are no-ops.
type Tx struct {
	*Factory
	done bool
}

func (f *Factory) Begin(ctx context.Context) (*Tx, error) {
	tx := f.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, NewStorageError("begin", tx.Error)
	}
	return &Tx{Factory: f.with(tx)}, nil
}

func (t *Tx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	return NewStorageError("commit", t.db.Commit().Error)
}

func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	err := t.db.Rollback().Error
	if errors.Is(err, gorm.ErrInvalidTransaction) {
		return nil
	}
	return NewStorageError("rollback", err)
}

// Metrics records statement latency and failures per operation.
type Metrics struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "query_duration_seconds",
				Help:    "Latency of rendered query statements",
				Buckets: prometheus.DefBuckets,
			}, []string{"op"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "query_failures_total", Help: "Count of failed query statements"},
			[]string{"op"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.duration, m.failures)
	}
	return m
}

func (f *Factory) observe(op, stmt string, args int, start time.Time, err error) {
	took := time.Since(start)
	if f.metrics != nil {
		f.metrics.duration.WithLabelValues(op).Observe(took.Seconds())
		if err != nil {
			f.metrics.failures.WithLabelValues(op).Inc()
		}
	}
	if err != nil {
		f.log.Warn("query failed", zap.String("op", op), zap.String("sql", stmt), zap.Error(err))
		return
	}
	if ce := f.log.Check(zap.DebugLevel, "query"); ce != nil {
		ce.Write(zap.String("op", op), zap.String("sql", stmt), zap.Int("args", args), zap.Duration("took", took))
	}
}

// queryRows runs a rendered statement and hands each row to scan. The rows
// are always closed before returning.
func (f *Factory) queryRows(ctx context.Context, op string, r *renderer, scan func(db *gorm.DB, rows *sql.Rows) error) (err error) {
	stmt := r.sql()
	start := time.Now()
	defer func() { f.observe(op, stmt, len(r.args), start, err) }()

	db := f.db.WithContext(ctx)
	rows, err := db.Raw(stmt, r.args...).Rows()
	if err != nil {
		return NewStorageError(op, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err = scan(db, rows); err != nil {
			return NewStorageError(op, err)
		}
	}
	return NewStorageError(op, rows.Err())
}

func (f *Factory) count(ctx context.Context, r *renderer) (n int64, err error) {
	stmt := r.sql()
	start := time.Now()
	defer func() { f.observe("count", stmt, len(r.args), start, err) }()

	if err = f.db.WithContext(ctx).Raw(stmt, r.args...).Row().Scan(&n); err != nil {
		return 0, NewStorageError("count", err)
	}
	return n, nil
}

func (f *Factory) exec(ctx context.Context, op string, r *renderer) (n int64, err error) {
	stmt := r.sql()
	start := time.Now()
	defer func() { f.observe(op, stmt, len(r.args), start, err) }()

	if !f.InTransaction() {
		return 0, ErrNoTransaction
	}
	res := f.db.WithContext(ctx).Exec(stmt, r.args...)
	if res.Error != nil {
		return 0, NewStorageError(op, res.Error)
	}
	return res.RowsAffected, nil
}
