package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Column is a single column of a Table. Columns are created through the
// factory methods on Table and changed only through their setters, each of
// which returns the column so calls can be chained.
type Column struct {
	table *Table

	name          string
	typ           ColumnType
	nullable      *bool
	def           any
	hasDefault    bool
	primaryKey    bool
	unique        bool
	autoIncrement bool
	comment       string
	length        int
	unsigned      bool
}

func newColumn(table *Table, name string, typ ColumnType) *Column {
	return &Column{table: table, name: name, typ: typ}
}

func (c *Column) Name() string       { return c.name }
func (c *Column) Type() ColumnType   { return c.typ }
func (c *Column) Length() int        { return c.length }
func (c *Column) Comment() string    { return c.comment }
func (c *Column) IsUnique() bool     { return c.unique }
func (c *Column) IsPrimaryKey() bool { return c.primaryKey }
func (c *Column) IsUnsigned() bool   { return c.unsigned }
func (c *Column) IsAutoIncrement() bool {
	return c.autoIncrement
}

// Nullable returns the nullable flag and whether it was set explicitly.
func (c *Column) Nullable() (nullable bool, set bool) {
	if c.nullable == nil {
		return false, false
	}
	return *c.nullable, true
}

// Default returns the default value and whether one was set.
func (c *Column) Default() (any, bool) {
	return c.def, c.hasDefault
}

func (c *Column) SetLength(length int) *Column {
	c.length = length
	return c
}

func (c *Column) SetNullable(nullable bool) *Column {
	c.nullable = &nullable
	return c
}

func (c *Column) SetType(typ ColumnType) *Column {
	c.typ = typ
	return c
}

// SetDefault sets the DEFAULT clause. A nil value renders DEFAULT NULL.
func (c *Column) SetDefault(value any) *Column {
	c.def = value
	c.hasDefault = true
	return c
}

// SetPrimaryKey flags the column as a primary key column. The flag is not
// reconciled with the table level primary key; use Table.SetPrimaryKey for
// the PRIMARY KEY clause.
func (c *Column) SetPrimaryKey(primary bool) *Column {
	c.primaryKey = primary
	return c
}

// SetUnique flags the column unique and registers the unique key
// "{table}_{column}_unique" on the owning table.
func (c *Column) SetUnique(unique bool) *Column {
	c.unique = unique
	if unique && c.table != nil {
		c.table.addUniqueKeyOnce(UniqueKey{
			Name:    fmt.Sprintf("%s_%s_unique", c.table.name, c.name),
			Columns: []string{c.name},
		})
	}
	return c
}

func (c *Column) SetAutoIncrement(autoIncrement bool) *Column {
	c.autoIncrement = autoIncrement
	return c
}

func (c *Column) SetComment(comment string) *Column {
	c.comment = comment
	return c
}

func (c *Column) SetUnsigned(unsigned bool) *Column {
	c.unsigned = unsigned
	return c
}

// SQL renders the column definition used inside CREATE TABLE.
func (c *Column) SQL() string {
	var b strings.Builder
	b.WriteString(c.name)
	b.WriteByte(' ')
	b.WriteString(string(c.typ))
	if c.length > 0 {
		b.WriteString("(" + strconv.Itoa(c.length) + ")")
	}
	if c.unsigned {
		b.WriteString(" UNSIGNED")
	}
	if c.nullable != nil && !*c.nullable {
		b.WriteString(" NOT NULL")
	}
	if c.autoIncrement {
		b.WriteString(" AUTO_INCREMENT")
	}
	if c.hasDefault {
		if c.def == nil {
			b.WriteString(" DEFAULT NULL")
		} else {
			b.WriteString(" DEFAULT " + quote(fmt.Sprint(c.def)))
		}
	}
	if c.comment != "" {
		b.WriteString(" COMMENT " + quote(c.comment))
	}
	return b.String()
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
