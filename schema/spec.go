package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// TableSpec is the declarative form of a Table, used for migration files.
//
//	table: users
//	primary_key: [id]
//	timestamps: true
//	columns:
//	  - {name: id, type: bigInteger, auto_increment: true, unsigned: true}
//	  - {name: email, type: string, unique: true}
type TableSpec struct {
	Table         string       `yaml:"table"`
	Engine        string       `yaml:"engine,omitempty"`
	Charset       string       `yaml:"charset,omitempty"`
	Collate       string       `yaml:"collate,omitempty"`
	Comment       string       `yaml:"comment,omitempty"`
	AutoIncrement int64        `yaml:"auto_increment,omitempty"`
	PrimaryKey    []string     `yaml:"primary_key,omitempty"`
	Columns       []ColumnSpec `yaml:"columns"`
	Timestamps    bool         `yaml:"timestamps,omitempty"`
	ForeignKeys   []ForeignKey `yaml:"foreign_keys,omitempty"`
	UniqueKeys    []UniqueKey  `yaml:"unique_keys,omitempty"`
	Indexes       []Index      `yaml:"indexes,omitempty"`
}

// ColumnSpec is the declarative form of a Column. Type is either a SQL type
// keyword (VARCHAR, BIGINT, ...) or a factory name (string, bigInteger,
// boolean, uuid, ...), matched case-insensitively.
type ColumnSpec struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	Length        int    `yaml:"length,omitempty"`
	Unsigned      bool   `yaml:"unsigned,omitempty"`
	AutoIncrement bool   `yaml:"auto_increment,omitempty"`
	Nullable      *bool  `yaml:"nullable,omitempty"`
	// Default is kept as a node so an explicit null, rendered DEFAULT NULL,
	// differs from an absent key.
	Default yaml.Node `yaml:"default,omitempty"`
	Unique  bool      `yaml:"unique,omitempty"`
	Primary bool      `yaml:"primary,omitempty"`
	Comment string    `yaml:"comment,omitempty"`
}

func (cs *ColumnSpec) defaultValue() (any, bool, error) {
	if cs.Default.IsZero() {
		return nil, false, nil
	}
	var v any
	if err := cs.Default.Decode(&v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

var factories = map[string]func(t *Table, name string) *Column{
	"string":             func(t *Table, n string) *Column { return t.String(n, 0) },
	"uuid":               func(t *Table, n string) *Column { return t.UUID(n) },
	"boolean":            func(t *Table, n string) *Column { return t.Boolean(n) },
	"bool":               func(t *Table, n string) *Column { return t.Boolean(n) },
	"integer":            func(t *Table, n string) *Column { return t.Integer(n, false, false) },
	"tinyinteger":        func(t *Table, n string) *Column { return t.TinyInteger(n, false) },
	"smallinteger":       func(t *Table, n string) *Column { return t.SmallInteger(n, false) },
	"mediuminteger":      func(t *Table, n string) *Column { return t.MediumInteger(n, false) },
	"biginteger":         func(t *Table, n string) *Column { return t.BigInteger(n, false, false) },
	"char":               func(t *Table, n string) *Column { return t.Char(n, 0) },
	"binary":             func(t *Table, n string) *Column { return t.Binary(n, 0) },
	"varbinary":          func(t *Table, n string) *Column { return t.VarBinary(n, 0) },
	"mediumtext":         func(t *Table, n string) *Column { return t.MediumText(n) },
	"longtext":           func(t *Table, n string) *Column { return t.LongText(n) },
	"datetime":           func(t *Table, n string) *Column { return t.DateTime(n) },
	"mediumblob":         func(t *Table, n string) *Column { return t.MediumBlob(n) },
	"longblob":           func(t *Table, n string) *Column { return t.LongBlob(n) },
	"linestring":         func(t *Table, n string) *Column { return t.LineString(n) },
	"multipoint":         func(t *Table, n string) *Column { return t.MultiPoint(n) },
	"multilinestring":    func(t *Table, n string) *Column { return t.MultiLineString(n) },
	"multipolygon":       func(t *Table, n string) *Column { return t.MultiPolygon(n) },
	"geometrycollection": func(t *Table, n string) *Column { return t.GeometryCollection(n) },
}

var sqlTypes = map[string]ColumnType{}

func init() {
	for _, typ := range []ColumnType{
		TinyInt, SmallInt, MediumInt, Int, BigInt, Float, Double, Decimal,
		Char, VarChar, Text, MediumText, LongText, Date, DateTime, Timestamp,
		Time, Year, Binary, VarBinary, Blob, MediumBlob, LongBlob, Geometry,
		Point, LineString, Polygon, MultiPoint, MultiLineString, MultiPolygon,
		GeometryCollection, JSON,
	} {
		sqlTypes[strings.ToLower(string(typ))] = typ
	}
}

// ParseSpec decodes a YAML table definition. Unknown keys are an error.
func ParseSpec(data []byte) (*TableSpec, error) {
	var spec TableSpec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("could not decode table spec: %w", err)
	}
	return &spec, nil
}

// Build creates the Table the TableSpec describes.
func (s *TableSpec) Build() (*Table, error) {
	if s.Table == "" {
		return nil, fmt.Errorf("table spec has no table name")
	}
	t := New(s.Table)
	if s.Engine != "" {
		t.SetEngine(s.Engine)
	}
	if s.Charset != "" {
		t.SetCharset(s.Charset)
	}
	if s.Collate != "" {
		t.SetCollate(s.Collate)
	}
	if s.Comment != "" {
		t.SetComment(s.Comment)
	}
	if s.AutoIncrement > 0 {
		t.SetAutoIncrement(s.AutoIncrement)
	}
	for i, cs := range s.Columns {
		if cs.Name == "" {
			return nil, fmt.Errorf("table %s: column %d has no name", s.Table, i)
		}
		key := strings.ToLower(cs.Type)
		var c *Column
		if factory, ok := factories[key]; ok {
			c = factory(t, cs.Name)
		} else if typ, ok := sqlTypes[key]; ok {
			c = t.add(cs.Name, typ)
		} else {
			return nil, fmt.Errorf("table %s: column %s has unknown type %q", s.Table, cs.Name, cs.Type)
		}
		if cs.Length > 0 {
			c.SetLength(cs.Length)
		}
		if cs.Unsigned {
			c.SetUnsigned(true)
		}
		if cs.AutoIncrement {
			c.SetAutoIncrement(true)
		}
		if cs.Nullable != nil {
			c.SetNullable(*cs.Nullable)
		}
		if v, ok, err := cs.defaultValue(); err != nil {
			return nil, fmt.Errorf("table %s: column %s has invalid default: %w", s.Table, cs.Name, err)
		} else if ok {
			c.SetDefault(v)
		}
		if cs.Primary {
			c.SetPrimaryKey(true)
		}
		if cs.Comment != "" {
			c.SetComment(cs.Comment)
		}
		if cs.Unique {
			c.SetUnique(true)
		}
	}
	if s.Timestamps {
		t.Timestamps()
	}
	if len(s.PrimaryKey) > 0 {
		t.SetPrimaryKey(s.PrimaryKey...)
	}
	for _, fk := range s.ForeignKeys {
		t.AddForeignKey(fk)
	}
	for _, uk := range s.UniqueKeys {
		t.AddUniqueKey(uk)
	}
	for _, idx := range s.Indexes {
		t.AddIndex(idx.Name, idx.Columns...)
	}
	return t, nil
}

// Stub returns the TableSpec written by make-migration: an auto-increment id
// primary key and the timestamp pair.
func Stub(table string) *TableSpec {
	return &TableSpec{
		Table:      table,
		PrimaryKey: []string{"id"},
		Columns: []ColumnSpec{
			{Name: "id", Type: "bigInteger", AutoIncrement: true, Unsigned: true},
		},
		Timestamps: true,
	}
}

// Marshal encodes the TableSpec as YAML.
func (s *TableSpec) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
