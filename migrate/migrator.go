// Package migrate applies table-creating migrations and records them in a
// bookkeeping table.
//
// A run checks for the bookkeeping table (creating it when absent), discovers
// definitions from its sources, drops the ones already recorded and creates
// the rest inside one transaction. The tables of a batch are created
// concurrently, so foreign keys between tables of the same batch are not
// ordered.
package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/james-darko/sqlmig"
	"github.com/james-darko/sqlmig/query"
	"github.com/james-darko/sqlmig/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const timestampLayout = "2006-01-02 15:04:05"

// Conn is the connection a Migrator runs on.
type Conn interface {
	sqlmig.Handle
	Txc(ctx context.Context, fn func(tx sqlmig.Tx) error) error
}

type Migrator struct {
	db      Conn
	sources []Source
	table   string
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*Migrator)

func WithSource(sources ...Source) Option {
	return func(m *Migrator) {
		m.sources = append(m.sources, sources...)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Migrator) {
		m.logger = logger
	}
}

// WithTable overrides the bookkeeping table name.
func WithTable(name string) Option {
	return func(m *Migrator) {
		m.table = name
	}
}

// WithClock sets the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(m *Migrator) {
		m.now = now
	}
}

func New(db Conn, opts ...Option) *Migrator {
	m := &Migrator{
		db:     db,
		table:  DefaultTable,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Report describes a Migrate run.
type Report struct {
	// Bootstrapped is true when the bookkeeping table was created by this run.
	Bootstrapped bool
	// Batch is the batch number recorded for Applied.
	Batch int64
	// Applied are the names of the tables created, in definition order.
	Applied []string
}

// NoOp reports whether no migration was applied.
func (r *Report) NoOp() bool {
	return len(r.Applied) == 0
}

// Migrate applies every outstanding migration as one batch. If any table
// fails, the batch is rolled back and a *sqlmig.MigrationBatchError is
// returned.
func (m *Migrator) Migrate(ctx context.Context) (*Report, error) {
	if m.db == nil {
		return nil, sqlmig.ErrConnectionNotReady
	}
	report := &Report{}
	exists, err := query.TableExists(ctx, m.db, m.table, m.queryOpts()...)
	if err != nil {
		return nil, fmt.Errorf("could not check for %s table: %w", m.table, err)
	}
	if !exists {
		m.logger.Info("no migrations table found, creating one", zap.String("table", m.table))
		if err := m.apply(ctx, []*schema.Table{bookkeeping(m.table)}, 0); err != nil {
			return nil, err
		}
		report.Bootstrapped = true
	}

	tables, err := m.discover()
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		m.logger.Info("nothing to migrate")
		return report, nil
	}
	records, err := m.Records(ctx)
	if err != nil {
		return nil, err
	}
	pending := outstanding(tables, records)
	if len(pending) == 0 {
		m.logger.Info("nothing to migrate")
		return report, nil
	}

	report.Batch = lastBatch(records) + 1
	if err := m.apply(ctx, pending, report.Batch); err != nil {
		return nil, err
	}
	for _, t := range pending {
		report.Applied = append(report.Applied, t.Name())
	}
	return report, nil
}

// Pending returns the tables Migrate would create, without creating them.
func (m *Migrator) Pending(ctx context.Context) ([]*schema.Table, error) {
	tables, _, err := m.pending(ctx)
	return tables, err
}

// pending also reports whether the bookkeeping table exists, from the same
// check the outstanding tables were computed against.
func (m *Migrator) pending(ctx context.Context) ([]*schema.Table, bool, error) {
	if m.db == nil {
		return nil, false, sqlmig.ErrConnectionNotReady
	}
	tables, err := m.discover()
	if err != nil {
		return nil, false, err
	}
	exists, err := query.TableExists(ctx, m.db, m.table, m.queryOpts()...)
	if err != nil {
		return nil, false, fmt.Errorf("could not check for %s table: %w", m.table, err)
	}
	if !exists {
		return tables, false, nil
	}
	records, err := m.Records(ctx)
	if err != nil {
		return nil, false, err
	}
	return outstanding(tables, records), true, nil
}

// Pretend returns the DDL Migrate would execute, including the bookkeeping
// table when it does not exist yet.
func (m *Migrator) Pretend(ctx context.Context) ([]string, error) {
	pending, exists, err := m.pending(ctx)
	if err != nil {
		return nil, err
	}
	var stmts []string
	if !exists {
		stmts = append(stmts, bookkeeping(m.table).SQL())
	}
	for _, t := range pending {
		stmts = append(stmts, t.SQL())
	}
	return stmts, nil
}

func (m *Migrator) discover() ([]*schema.Table, error) {
	var tables []*schema.Table
	for _, src := range m.sources {
		defs, err := src.Definitions()
		if err != nil {
			return nil, fmt.Errorf("could not load migrations: %w", err)
		}
		for _, def := range defs {
			t := def.Build()
			if t == nil {
				return nil, fmt.Errorf("migration %s returned no table", def.Name)
			}
			t.Filename = def.Name
			tables = append(tables, t)
		}
	}
	return tables, nil
}

// apply creates tables in one transaction. Each table's DDL and its
// bookkeeping row run in the same task, so a committed table always has its
// record. A batch of 0 records NULL.
func (m *Migrator) apply(ctx context.Context, tables []*schema.Table, batch int64) error {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name()
	}
	err := m.db.Txc(ctx, func(tx sqlmig.Tx) error {
		g, gctx := errgroup.WithContext(ctx)
		for _, t := range tables {
			g.Go(func() error {
				return m.create(gctx, tx, t, batch)
			})
		}
		return g.Wait()
	})
	if err != nil {
		m.logger.Error("migrations failed, rolled back the batch",
			zap.Strings("tables", names), zap.Error(err))
		return &sqlmig.MigrationBatchError{Tables: names, Err: err}
	}
	m.logger.Info("done migrating tables", zap.Strings("tables", names))
	return nil
}

func (m *Migrator) create(ctx context.Context, tx sqlmig.Tx, t *schema.Table, batch int64) error {
	start := time.Now()
	m.logger.Info("migrating table", zap.String("table", t.Name()))
	ddl := t.SQL()
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		m.logger.Error("failed to migrate table", zap.String("table", t.Name()), zap.Error(err))
		return &sqlmig.QueryExecutionError{Query: ddl, Err: err}
	}
	var batchValue any
	if batch > 0 {
		batchValue = batch
	}
	now := m.now().Format(timestampLayout)
	_, err := query.New(tx, m.queryOpts()...).Insert(m.table, map[string]any{
		"name":       RecordName(t),
		"batch":      batchValue,
		"created_at": now,
	}).Exec(ctx)
	if err != nil {
		m.logger.Error("failed to insert migration record", zap.String("table", t.Name()), zap.Error(err))
		return fmt.Errorf("record migration of %s: %w", t.Name(), err)
	}
	m.logger.Info("migrated table",
		zap.String("table", t.Name()),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (m *Migrator) queryOpts() []query.Option {
	return []query.Option{query.WithLogger(m.logger)}
}
