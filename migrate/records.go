package migrate

import (
	"context"
	"fmt"

	"github.com/james-darko/sqlmig"
	"github.com/james-darko/sqlmig/query"
	"github.com/james-darko/sqlmig/schema"
)

// DefaultTable is the bookkeeping table that records applied migrations.
const DefaultTable = "migrations"

// Record is one row of the bookkeeping table.
type Record struct {
	ID    int64
	Name  string
	Batch int64
}

// RecordName is the bookkeeping name written for a created table.
func RecordName(t *schema.Table) string {
	return "create_" + t.Name() + "_table"
}

// bookkeeping returns the schema of the bookkeeping table.
func bookkeeping(name string) *schema.Table {
	t := schema.New(name)
	t.BigInteger("id", true, true).SetPrimaryKey(true)
	t.SetPrimaryKey("id")
	t.String("name", 0)
	t.Integer("batch", false, false).SetNullable(true)
	t.Timestamps()
	return t
}

// Records returns every row of the bookkeeping table.
func (m *Migrator) Records(ctx context.Context) ([]Record, error) {
	rows, err := query.New(m.db, m.queryOpts()...).Table(m.table).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not read migration records: %w", err)
	}
	return toRecords(rows), nil
}

func toRecords(rows sqlmig.Rows) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		var r Record
		r.ID, _ = row.Int64("id")
		r.Name, _ = row.String("name")
		r.Batch, _ = row.Int64("batch")
		out = append(out, r)
	}
	return out
}

func lastBatch(records []Record) int64 {
	var last int64
	for _, r := range records {
		last = max(last, r.Batch)
	}
	return last
}

// outstanding drops the tables whose definition name or table record name is
// already recorded.
func outstanding(tables []*schema.Table, records []Record) []*schema.Table {
	if len(records) == 0 {
		return tables
	}
	applied := make(map[string]bool, len(records))
	for _, r := range records {
		applied[r.Name] = true
	}
	var out []*schema.Table
	for _, t := range tables {
		if applied[t.Filename] || applied[RecordName(t)] {
			continue
		}
		out = append(out, t)
	}
	return out
}
