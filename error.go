package sqlmig

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingCredentials is returned when a connection is requested before
	// any credentials were supplied.
	ErrMissingCredentials = errors.New("sqlmig: database credentials are not provided")

	// ErrConnectionNotReady is returned when a migration is attempted without
	// an established connection.
	ErrConnectionNotReady = errors.New("sqlmig: database connection is not set up")

	// ErrInvalidMigrationDirectory is matched by InvalidMigrationDirectoryError.
	ErrInvalidMigrationDirectory = errors.New("sqlmig: invalid migration directory")

	// ErrInvalidQueryKind is returned when a builder is rendered before a
	// statement kind was chosen.
	ErrInvalidQueryKind = errors.New("sqlmig: invalid query kind")
)

// InvalidMigrationDirectoryError reports a configured migration path that does
// not exist or is not a directory.
type InvalidMigrationDirectoryError struct {
	// Dir is the configured path.
	Dir string
	// Err is the underlying stat error, if any.
	Err error
}

func (e *InvalidMigrationDirectoryError) Error() string {
	return fmt.Sprintf("sqlmig: the directory %q does not exist or is not a directory", e.Dir)
}

func (e *InvalidMigrationDirectoryError) Is(target error) bool {
	return target == ErrInvalidMigrationDirectory
}

func (e *InvalidMigrationDirectoryError) Unwrap() error {
	return e.Err
}

// QueryExecutionError wraps a driver failure together with the statement that
// caused it.
type QueryExecutionError struct {
	// Query is the rendered SQL that was submitted.
	Query string
	// Args are the positional bindings that were submitted with Query.
	Args []any
	// Err is the error returned by the driver.
	Err error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("sqlmig: query execution failed: %v (SQL: %s)", e.Err, e.Query)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// MigrationBatchError is returned by Migrate when a table creation inside a
// batch failed and the whole batch was rolled back.
type MigrationBatchError struct {
	// Tables are the tables the batch attempted to create.
	Tables []string
	// Err is the first failure observed in the batch.
	Err error
}

func (e *MigrationBatchError) Error() string {
	return fmt.Sprintf("sqlmig: migration batch [%s] rolled back: %v", strings.Join(e.Tables, ", "), e.Err)
}

func (e *MigrationBatchError) Unwrap() error {
	return e.Err
}
