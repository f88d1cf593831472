package sqlmig

import (
	"context"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Open opens a database with sqlx and wraps it. For the mysql driver the
// schema name is taken from the DSN so that Database reports it.
func Open(driver, dsn string) (DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	var name string
	if driver == "mysql" {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("could not parse mysql dsn: %w", err)
		}
		name = cfg.DBName
	}
	return &sqlxDB{db: db, name: name}, nil
}

// Wrap wraps an already opened sqlx handle. database is the schema name
// reported by Database and used for information_schema lookups.
func Wrap(db *sqlx.DB, database string) DB {
	return &sqlxDB{db: db, name: database}
}

type DB interface {
	Handle
	SQLX() *sqlx.DB
	DriverName() string
	Ping(ctx context.Context) error
	Close() error

	// Txc runs fn inside a transaction. The transaction is committed when fn
	// returns nil and rolled back otherwise.
	Txc(ctx context.Context, fn func(tx Tx) error) error
}

type sqlxDB struct {
	db   *sqlx.DB
	name string
}

func (s *sqlxDB) SQLX() *sqlx.DB {
	return s.db
}

func (s *sqlxDB) Database() string {
	return s.name
}

func (s *sqlxDB) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	r, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlResult{r}, nil
}

func (s *sqlxDB) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (s *sqlxDB) DriverName() string {
	return s.db.DriverName()
}

func (s *sqlxDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxDB) Close() error {
	return s.db.Close()
}

func (s *sqlxDB) Txc(ctx context.Context, fn func(tx Tx) error) error {
	return transaction(ctx, s.db, s.name, fn)
}
