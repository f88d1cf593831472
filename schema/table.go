package schema

import (
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultEngine  = "InnoDB"
	DefaultCharset = "utf8mb4"
	DefaultCollate = "utf8mb4_unicode_ci"

	// DefaultStringLength keeps VARCHAR keys under the utf8mb4 index limit.
	DefaultStringLength = 191
)

// Table describes one table: its columns in DDL order, keys, indexes and
// storage options. A Table is built up through its methods and then rendered
// with SQL, which does not modify it.
type Table struct {
	name        string
	columns     []*Column
	primaryKey  []string
	foreignKeys []ForeignKey
	uniqueKeys  []UniqueKey
	indexes     []Index

	engine        string
	charset       string
	collate       string
	autoIncrement int64
	comment       string

	// Filename is set by migration discovery to the name of the definition
	// the table came from.
	Filename string
}

// New returns an empty table using the InnoDB engine and utf8mb4 charset.
func New(name string) *Table {
	return &Table{
		name:    name,
		engine:  DefaultEngine,
		charset: DefaultCharset,
		collate: DefaultCollate,
	}
}

func (t *Table) Name() string { return t.name }

// Columns returns the columns in insertion order.
func (t *Table) Columns() []*Column { return slices.Clone(t.columns) }

func (t *Table) PrimaryKey() []string      { return slices.Clone(t.primaryKey) }
func (t *Table) ForeignKeys() []ForeignKey { return slices.Clone(t.foreignKeys) }
func (t *Table) UniqueKeys() []UniqueKey   { return slices.Clone(t.uniqueKeys) }
func (t *Table) Indexes() []Index          { return slices.Clone(t.indexes) }
func (t *Table) Engine() string            { return t.engine }
func (t *Table) Charset() string           { return t.charset }
func (t *Table) Collate() string           { return t.collate }
func (t *Table) TableComment() string      { return t.comment }
func (t *Table) AutoIncrementStart() int64 { return t.autoIncrement }

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.columns {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// SetEngine sets the storage engine. An empty engine omits the clause.
func (t *Table) SetEngine(engine string) *Table {
	t.engine = engine
	return t
}

func (t *Table) SetCharset(charset string) *Table {
	t.charset = charset
	return t
}

func (t *Table) SetCollate(collate string) *Table {
	t.collate = collate
	return t
}

// SetAutoIncrement sets the AUTO_INCREMENT seed table option.
func (t *Table) SetAutoIncrement(start int64) *Table {
	t.autoIncrement = start
	return t
}

func (t *Table) SetComment(comment string) *Table {
	t.comment = comment
	return t
}

// SetPrimaryKey sets the PRIMARY KEY clause. Passing several columns makes a
// composite key.
func (t *Table) SetPrimaryKey(columns ...string) *Table {
	t.primaryKey = slices.Clone(columns)
	return t
}

func (t *Table) AddForeignKey(fk ForeignKey) *Table {
	t.foreignKeys = append(t.foreignKeys, fk)
	return t
}

func (t *Table) AddUniqueKey(uk UniqueKey) *Table {
	t.uniqueKeys = append(t.uniqueKeys, uk)
	return t
}

func (t *Table) addUniqueKeyOnce(uk UniqueKey) {
	for _, existing := range t.uniqueKeys {
		if existing.Name == uk.Name {
			return
		}
	}
	t.uniqueKeys = append(t.uniqueKeys, uk)
}

func (t *Table) AddIndex(name string, columns ...string) *Table {
	t.indexes = append(t.indexes, Index{Name: name, Columns: slices.Clone(columns)})
	return t
}

// AddColumn appends an already built column.
func (t *Table) AddColumn(c *Column) *Column {
	c.table = t
	t.columns = append(t.columns, c)
	return c
}

func (t *Table) add(name string, typ ColumnType) *Column {
	return t.AddColumn(newColumn(t, name, typ))
}

func (t *Table) addInteger(name string, typ ColumnType, autoIncrement, unsigned bool) *Column {
	c := t.add(name, typ)
	if autoIncrement {
		c.SetAutoIncrement(true)
	}
	if unsigned {
		c.SetUnsigned(true)
	}
	return c
}

// String adds a VARCHAR column. A length of 0 uses DefaultStringLength.
func (t *Table) String(name string, length int) *Column {
	if length <= 0 {
		length = DefaultStringLength
	}
	return t.add(name, VarChar).SetLength(length)
}

// UUID adds a VARCHAR(36) column. An empty name defaults to "uuid".
func (t *Table) UUID(name string) *Column {
	if name == "" {
		name = "uuid"
	}
	return t.add(name, VarChar).SetLength(36)
}

func (t *Table) Integer(name string, autoIncrement, unsigned bool) *Column {
	return t.addInteger(name, Int, autoIncrement, unsigned)
}

func (t *Table) TinyInteger(name string, unsigned bool) *Column {
	return t.addInteger(name, TinyInt, false, unsigned)
}

func (t *Table) SmallInteger(name string, unsigned bool) *Column {
	return t.addInteger(name, SmallInt, false, unsigned)
}

func (t *Table) MediumInteger(name string, unsigned bool) *Column {
	return t.addInteger(name, MediumInt, false, unsigned)
}

func (t *Table) BigInteger(name string, autoIncrement, unsigned bool) *Column {
	return t.addInteger(name, BigInt, autoIncrement, unsigned)
}

// Float adds a FLOAT column. The length is set to precision only when both
// precision and scale are given.
func (t *Table) Float(name string, precision, scale int) *Column {
	c := t.add(name, Float)
	if precision > 0 && scale > 0 {
		c.SetLength(precision)
	}
	return c
}

func (t *Table) Double(name string, precision, scale int) *Column {
	c := t.add(name, Double)
	if precision > 0 && scale > 0 {
		c.SetLength(precision)
	}
	return c
}

func (t *Table) Decimal(name string, precision int) *Column {
	return t.add(name, Decimal).SetLength(precision)
}

// Boolean adds a TINYINT(1) column.
func (t *Table) Boolean(name string) *Column {
	return t.add(name, TinyInt).SetLength(1)
}

// Char adds a CHAR column. A length of 0 uses 255.
func (t *Table) Char(name string, length int) *Column {
	if length <= 0 {
		length = 255
	}
	return t.add(name, Char).SetLength(length)
}

func (t *Table) Text(name string) *Column       { return t.add(name, Text) }
func (t *Table) MediumText(name string) *Column { return t.add(name, MediumText) }
func (t *Table) LongText(name string) *Column   { return t.add(name, LongText) }
func (t *Table) Date(name string) *Column       { return t.add(name, Date) }
func (t *Table) DateTime(name string) *Column   { return t.add(name, DateTime) }
func (t *Table) Timestamp(name string) *Column  { return t.add(name, Timestamp) }
func (t *Table) Time(name string) *Column       { return t.add(name, Time) }
func (t *Table) Year(name string) *Column       { return t.add(name, Year) }

// Timestamps adds nullable created_at and updated_at TIMESTAMP columns.
func (t *Table) Timestamps() {
	t.Timestamp("created_at").SetNullable(true)
	t.Timestamp("updated_at").SetNullable(true)
}

// Binary adds a BINARY column. A length of 0 uses 255.
func (t *Table) Binary(name string, length int) *Column {
	if length <= 0 {
		length = 255
	}
	return t.add(name, Binary).SetLength(length)
}

// VarBinary adds a VARBINARY column. A length of 0 uses 255.
func (t *Table) VarBinary(name string, length int) *Column {
	if length <= 0 {
		length = 255
	}
	return t.add(name, VarBinary).SetLength(length)
}

func (t *Table) Blob(name string) *Column               { return t.add(name, Blob) }
func (t *Table) MediumBlob(name string) *Column         { return t.add(name, MediumBlob) }
func (t *Table) LongBlob(name string) *Column           { return t.add(name, LongBlob) }
func (t *Table) JSON(name string) *Column               { return t.add(name, JSON) }
func (t *Table) Geometry(name string) *Column           { return t.add(name, Geometry) }
func (t *Table) Point(name string) *Column              { return t.add(name, Point) }
func (t *Table) LineString(name string) *Column         { return t.add(name, LineString) }
func (t *Table) Polygon(name string) *Column            { return t.add(name, Polygon) }
func (t *Table) MultiPoint(name string) *Column         { return t.add(name, MultiPoint) }
func (t *Table) MultiLineString(name string) *Column    { return t.add(name, MultiLineString) }
func (t *Table) MultiPolygon(name string) *Column       { return t.add(name, MultiPolygon) }
func (t *Table) GeometryCollection(name string) *Column { return t.add(name, GeometryCollection) }

// SQL renders the CREATE TABLE statement, terminated by a semicolon.
func (t *Table) SQL() string {
	defs := make([]string, 0, len(t.columns)+len(t.foreignKeys)+len(t.uniqueKeys)+len(t.indexes)+1)
	for _, c := range t.columns {
		defs = append(defs, c.SQL())
	}
	if len(t.primaryKey) > 0 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(t.primaryKey, ", ")+")")
	}
	for _, fk := range t.foreignKeys {
		def := "FOREIGN KEY (" + fk.Column + ") REFERENCES " + fk.RefTable + "(" + fk.RefColumn + ")"
		if fk.OnDelete != "" {
			def += " ON DELETE " + fk.OnDelete
		}
		if fk.OnUpdate != "" {
			def += " ON UPDATE " + fk.OnUpdate
		}
		defs = append(defs, def)
	}
	for _, uk := range t.uniqueKeys {
		defs = append(defs, "UNIQUE KEY "+uk.Name+" ("+strings.Join(uk.Columns, ", ")+")")
	}
	for _, idx := range t.indexes {
		defs = append(defs, "INDEX "+idx.Name+" ("+strings.Join(idx.Columns, ", ")+")")
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE " + t.name + " (\n  ")
	b.WriteString(strings.Join(defs, ",\n  "))
	b.WriteString("\n)")
	if t.engine != "" {
		b.WriteString(" ENGINE=" + t.engine)
	}
	if t.autoIncrement > 0 {
		b.WriteString(" AUTO_INCREMENT=" + strconv.FormatInt(t.autoIncrement, 10))
	}
	if t.charset != "" {
		b.WriteString(" CHARSET=" + t.charset)
	}
	if t.collate != "" {
		b.WriteString(" COLLATE=" + t.collate)
	}
	if t.comment != "" {
		b.WriteString(" COMMENT=" + quote(t.comment))
	}
	b.WriteString(";")
	return b.String()
}
