package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/james-darko/sqlmig"
	"github.com/james-darko/sqlmig/query"
)

// ErrNotFound is returned by First when no row matches.
var ErrNotFound = errors.New("model: no matching row")

// ErrNoAttributes is returned by Save when there is nothing to write.
var ErrNoAttributes = errors.New("model: no attributes to save")

type Model struct {
	Table string
	Attributes
}

func New(table string) *Model {
	return &Model{Table: table}
}

// Query returns a builder pointed at the model's table.
func (m *Model) Query(h sqlmig.Handle, opts ...query.Option) *query.Builder {
	return query.New(h, opts...).Table(m.Table)
}

// Save inserts the current attributes as a new row. When the driver reports
// an insert id and the model has no "id" attribute, it is set.
func (m *Model) Save(ctx context.Context, h sqlmig.Handle, opts ...query.Option) error {
	if m.Len() == 0 {
		return ErrNoAttributes
	}
	res, err := query.New(h, opts...).Insert(m.Table, m.All()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("save %s: %w", m.Table, err)
	}
	if !m.Has("id") {
		if id, err := res.LastInsertId(); err == nil && id > 0 {
			m.Set("id", id)
		}
	}
	return nil
}

// First loads the first row whose field equals value into the attributes.
func (m *Model) First(ctx context.Context, h sqlmig.Handle, field string, value any, opts ...query.Option) error {
	rows, err := m.Query(h, opts...).Where(field, "=", value).First(ctx)
	if err != nil {
		return fmt.Errorf("find %s: %w", m.Table, err)
	}
	row, ok := rows.First()
	if !ok {
		return ErrNotFound
	}
	m.Replace(row)
	return nil
}
