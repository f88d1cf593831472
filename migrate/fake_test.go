package migrate_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/james-darko/sqlmig"
)

// fakeConn stands in for a MySQL connection. It keeps the set of created
// tables and the bookkeeping rows, and applies a transaction's changes only
// when it commits.
type fakeConn struct {
	mu      sync.Mutex
	tables  map[string]bool
	records sqlmig.Rows
	// fail makes CREATE TABLE of the named table return an error.
	fail map[string]error
	// executed holds every committed statement in execution order.
	executed []string
	commits  int
	rollback int
	// lookups counts information_schema existence checks.
	lookups int
}

func newFakeConn() *fakeConn {
	return &fakeConn{tables: map[string]bool{}, fail: map[string]error{}}
}

func (f *fakeConn) Database() string { return "app" }

func (f *fakeConn) ExecContext(ctx context.Context, sql string, args ...any) (sqlmig.Result, error) {
	tx := &fakeTx{conn: f}
	res, err := tx.ExecContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	f.commit(tx)
	return res, nil
}

func (f *fakeConn) QueryContext(_ context.Context, sql string, args ...any) (sqlmig.Rows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case strings.Contains(sql, "information_schema.tables"):
		f.lookups++
		var n int64
		if f.tables[args[1].(string)] {
			n = 1
		}
		return sqlmig.Rows{{"aggregate": n}}, nil
	case strings.HasPrefix(sql, "SELECT * FROM "):
		table := strings.TrimPrefix(sql, "SELECT * FROM ")
		if !f.tables[table] {
			return nil, fmt.Errorf("table %s doesn't exist", table)
		}
		return append(sqlmig.Rows(nil), f.records...), nil
	}
	return nil, fmt.Errorf("unexpected query %q", sql)
}

func (f *fakeConn) Txc(ctx context.Context, fn func(tx sqlmig.Tx) error) error {
	tx := &fakeTx{conn: f}
	if err := fn(tx); err != nil {
		f.mu.Lock()
		f.rollback++
		f.mu.Unlock()
		return err
	}
	f.commit(tx)
	return nil
}

func (f *fakeConn) commit(tx *fakeTx) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range tx.tables {
		f.tables[t] = true
	}
	for _, r := range tx.records {
		r["id"] = int64(len(f.records) + 1)
		f.records = append(f.records, r)
	}
	f.executed = append(f.executed, tx.executed...)
	f.commits++
}

func (f *fakeConn) statements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.executed...)
}

func (f *fakeConn) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records.Pluck("name")
}

type fakeTx struct {
	conn     *fakeConn
	mu       sync.Mutex
	tables   []string
	records  []sqlmig.Row
	executed []string
}

func (tx *fakeTx) Database() string   { return tx.conn.Database() }
func (tx *fakeTx) DriverName() string { return "fake" }

func (tx *fakeTx) ExecContext(_ context.Context, sql string, args ...any) (sqlmig.Result, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	switch {
	case strings.HasPrefix(sql, "CREATE TABLE "):
		name := strings.Fields(sql)[2]
		tx.conn.mu.Lock()
		err, exists := tx.conn.fail[name], tx.conn.tables[name]
		tx.conn.mu.Unlock()
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("table %s already exists", name)
		}
		tx.tables = append(tx.tables, name)
	case strings.HasPrefix(sql, "INSERT INTO "):
		cols := sql[strings.Index(sql, "(")+1 : strings.Index(sql, ")")]
		row := sqlmig.Row{}
		for i, col := range strings.Split(cols, ", ") {
			row[col] = args[i]
		}
		tx.records = append(tx.records, row)
	default:
		return nil, fmt.Errorf("unexpected statement %q", sql)
	}
	tx.executed = append(tx.executed, sql)
	return fakeResult{}, nil
}

func (tx *fakeTx) QueryContext(ctx context.Context, sql string, args ...any) (sqlmig.Rows, error) {
	return tx.conn.QueryContext(ctx, sql, args...)
}

type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) MustLastInsertId() int64      { return 0 }
func (fakeResult) RowsAffected() (int64, error) { return 1, nil }
func (fakeResult) MustRowsAffected() int64      { return 1 }
