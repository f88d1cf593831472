// Package schema describes MySQL tables in memory and renders them to
// CREATE TABLE statements.
package schema

// ColumnType is the SQL type keyword a column is rendered with.
type ColumnType string

const (
	TinyInt            ColumnType = "TINYINT"
	SmallInt           ColumnType = "SMALLINT"
	MediumInt          ColumnType = "MEDIUMINT"
	Int                ColumnType = "INT"
	BigInt             ColumnType = "BIGINT"
	Float              ColumnType = "FLOAT"
	Double             ColumnType = "DOUBLE"
	Decimal            ColumnType = "DECIMAL"
	Char               ColumnType = "CHAR"
	VarChar            ColumnType = "VARCHAR"
	Text               ColumnType = "TEXT"
	MediumText         ColumnType = "MEDIUMTEXT"
	LongText           ColumnType = "LONGTEXT"
	Date               ColumnType = "DATE"
	DateTime           ColumnType = "DATETIME"
	Timestamp          ColumnType = "TIMESTAMP"
	Time               ColumnType = "TIME"
	Year               ColumnType = "YEAR"
	Binary             ColumnType = "BINARY"
	VarBinary          ColumnType = "VARBINARY"
	Blob               ColumnType = "BLOB"
	MediumBlob         ColumnType = "MEDIUMBLOB"
	LongBlob           ColumnType = "LONGBLOB"
	Geometry           ColumnType = "GEOMETRY"
	Point              ColumnType = "POINT"
	LineString         ColumnType = "LINESTRING"
	Polygon            ColumnType = "POLYGON"
	MultiPoint         ColumnType = "MULTIPOINT"
	MultiLineString    ColumnType = "MULTILINESTRING"
	MultiPolygon       ColumnType = "MULTIPOLYGON"
	GeometryCollection ColumnType = "GEOMETRYCOLLECTION"
	JSON               ColumnType = "JSON"
)

// ForeignKey represents a FOREIGN KEY constraint on a single column.
type ForeignKey struct {
	// Column is the referencing column in the owning table.
	Column string `yaml:"column"`
	// RefTable is the referenced table.
	RefTable string `yaml:"ref_table"`
	// RefColumn is the referenced column in RefTable.
	RefColumn string `yaml:"ref_column"`
	// OnDelete is the referential action for deletes (e.g., "CASCADE").
	// Empty means the clause is omitted.
	OnDelete string `yaml:"on_delete,omitempty"`
	// OnUpdate is the referential action for updates. Empty means the clause
	// is omitted.
	OnUpdate string `yaml:"on_update,omitempty"`
}

// UniqueKey is a named UNIQUE KEY over one or more columns.
type UniqueKey struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
}

// Index is a named non-unique INDEX over one or more columns.
type Index struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
}
