package query

import (
	"errors"
	"fmt"
	"io"
	"strings"

	rsql "github.com/rqlite/sql"
)

// Validate parses a rendered statement and reports whether it is a single
// well formed SELECT, INSERT, UPDATE or DELETE.
func Validate(sql string) error {
	parser := rsql.NewParser(strings.NewReader(sql))
	stmt, err := parser.ParseStatement()
	if err != nil {
		return fmt.Errorf("invalid statement %q: %w", sql, err)
	}
	switch stmt.(type) {
	case *rsql.SelectStatement, *rsql.InsertStatement, *rsql.UpdateStatement, *rsql.DeleteStatement:
	default:
		return fmt.Errorf("unexpected %T in %q", stmt, sql)
	}
	if _, err := parser.ParseStatement(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("trailing input after statement in %q", sql)
	}
	return nil
}
