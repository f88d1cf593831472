package sqlmig

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Tx interface {
	Handle
	DriverName() string
}

type txWrapper struct {
	tx   *sqlx.Tx
	name string
}

func (tx *txWrapper) Database() string {
	return tx.name
}

func (tx *txWrapper) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	r, err := tx.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlResult{r}, nil
}

func (tx *txWrapper) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := tx.tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (tx *txWrapper) DriverName() string {
	return tx.tx.DriverName()
}
