package sqlmig

import (
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
)

// Row is one result row keyed by column name. Text columns that the driver
// returns as []byte are converted to string.
type Row map[string]any

// Rows is a full result set in the order the driver returned it.
type Rows []Row

// First returns the first row of the set.
func (r Rows) First() (Row, bool) {
	if len(r) == 0 {
		return nil, false
	}
	return r[0], true
}

// Pluck returns the string value of column for every row that has one.
func (r Rows) Pluck(column string) []string {
	out := make([]string, 0, len(r))
	for _, row := range r {
		if v, ok := row.String(column); ok {
			out = append(out, v)
		}
	}
	return out
}

func (r Row) String(column string) (string, bool) {
	v, ok := r[column]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	default:
		return fmt.Sprint(t), true
	}
}

// Int64 returns column as an integer. Drivers report COUNT(*) and friends
// as int64 on the binary protocol and as text on the plain one.
func (r Row) Int64(column string) (int64, bool) {
	v, ok := r[column]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case int:
		return int64(t), true
	case uint64:
		return int64(t), true
	case uint32:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(string(t), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func collect(rows *sqlx.Rows) (Rows, error) {
	defer rows.Close()
	out := Rows{}
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out = append(out, Row(row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
