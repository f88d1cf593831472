package query

import (
	"context"
	"time"

	"github.com/james-darko/sqlmig"
	"go.uber.org/zap"
)

// Get forces a SELECT and returns every row. When columns are given they
// replace the output fields.
func (b *Builder) Get(ctx context.Context, columns ...string) (sqlmig.Rows, error) {
	b.kind = KindSelect
	if len(columns) > 0 {
		b.fields = columns
	}
	return b.Execute(ctx)
}

// First runs the SELECT with LIMIT 1. The rows are returned as the driver
// reported them; use Rows.First for the single row.
func (b *Builder) First(ctx context.Context) (sqlmig.Rows, error) {
	b.kind = KindFirst
	return b.Execute(ctx)
}

// Execute renders the statement and submits it. SELECT and FIRST statements
// return their rows; other kinds return nil rows.
func (b *Builder) Execute(ctx context.Context) (sqlmig.Rows, error) {
	stmt, err := b.prepare()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	if b.kind == KindSelect || b.kind == KindFirst {
		rows, err := b.handle.QueryContext(ctx, stmt.SQL, stmt.Bindings...)
		b.log(stmt, start, err)
		if err != nil {
			return nil, &sqlmig.QueryExecutionError{Query: stmt.SQL, Args: stmt.Bindings, Err: err}
		}
		return rows, nil
	}
	_, err = b.handle.ExecContext(ctx, stmt.SQL, stmt.Bindings...)
	b.log(stmt, start, err)
	if err != nil {
		return nil, &sqlmig.QueryExecutionError{Query: stmt.SQL, Args: stmt.Bindings, Err: err}
	}
	return nil, nil
}

// Exec submits a write statement and returns the driver result.
func (b *Builder) Exec(ctx context.Context) (sqlmig.Result, error) {
	stmt, err := b.prepare()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := b.handle.ExecContext(ctx, stmt.SQL, stmt.Bindings...)
	b.log(stmt, start, err)
	if err != nil {
		return nil, &sqlmig.QueryExecutionError{Query: stmt.SQL, Args: stmt.Bindings, Err: err}
	}
	return res, nil
}

func (b *Builder) prepare() (Statement, error) {
	if b.handle == nil {
		return Statement{}, sqlmig.ErrConnectionNotReady
	}
	stmt, err := b.build()
	if err != nil {
		return Statement{}, err
	}
	if b.strict {
		if err := Validate(stmt.SQL); err != nil {
			return Statement{}, err
		}
	}
	return stmt, nil
}

func (b *Builder) log(stmt Statement, start time.Time, err error) {
	if err != nil {
		b.logger.Error("query failed",
			zap.String("sql", stmt.SQL),
			zap.Int("bindings", len(stmt.Bindings)),
			zap.Error(err))
		return
	}
	b.logger.Debug("query executed",
		zap.String("sql", stmt.SQL),
		zap.Int("bindings", len(stmt.Bindings)),
		zap.Duration("duration", time.Since(start)))
}

// TableExists reports whether table exists in the schema the builder's
// handle is connected to. It runs on a fresh builder and leaves b untouched.
func (b *Builder) TableExists(ctx context.Context, table string) (bool, error) {
	var database string
	if b.handle != nil {
		database = b.handle.Database()
	}
	rows, err := New(b.handle, b.opts...).
		Table("information_schema.tables").
		Where("table_schema", "=", database).
		Where("table_name", "=", table).
		Select("COUNT(*) AS aggregate").
		Execute(ctx)
	if err != nil {
		return false, err
	}
	row, ok := rows.First()
	if !ok {
		return false, nil
	}
	n, _ := row.Int64("aggregate")
	return n > 0, nil
}

// TableExists is Builder.TableExists on a new builder for h.
func TableExists(ctx context.Context, h sqlmig.Handle, table string, opts ...Option) (bool, error) {
	return New(h, opts...).TableExists(ctx, table)
}
