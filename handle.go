package sqlmig

import "context"

// Handle interface that both DB and Tx implement. It is the connection
// contract the query builder and the migrator submit statements through.
type Handle interface {
	ExecContext(ctx context.Context, query string, args ...any) (Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
	// Database returns the name of the schema the handle is connected to.
	Database() string
}

// Error is the panic value used by Must and Mustv.
type Error struct {
	err error
}

func (e Error) Error() string {
	if e.err == nil {
		return "sqlmig: unknown error"
	}
	return e.err.Error()
}

func (e Error) Unwrap() error {
	return e.err
}

// If err is not nil, it panics with the error wrapped in the sqlmig.Error type.
// Otherwise, it returns the value param
func Mustv[T any](value T, err error) T {
	if err != nil {
		panic(Error{err})
	}
	return value
}

// If err is not nil, it panics with the error wrapped in the sqlmig.Error type.
func Must(err error) {
	if err != nil {
		panic(Error{err})
	}
}
