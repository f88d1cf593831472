// Package query builds parameterized MySQL statements through a fluent
// Builder and submits them through a sqlmig.Handle.
//
//	rows, err := query.New(db).
//		Table("users").
//		Where("status", "=", "active").
//		OrWhereFunc(func(q *query.Builder) {
//			q.Table("admins").Select("user_id").Where("level", ">", 2)
//		}).
//		Get(ctx, "id", "name")
//
// A Builder composes exactly one statement and is not safe for concurrent use.
package query

import (
	"maps"
	"slices"
	"strings"

	"github.com/james-darko/sqlmig"
	"go.uber.org/zap"
)

// Kind is the statement a Builder renders.
type Kind string

const (
	KindNone   Kind = ""
	KindSelect Kind = "SELECT"
	// KindFirst renders as KindSelect followed by LIMIT 1.
	KindFirst  Kind = "FIRST"
	KindInsert Kind = "INSERT"
	KindUpdate Kind = "UPDATE"
	KindDelete Kind = "DELETE"
)

const (
	And = "AND"
	Or  = "OR"
)

// Condition is one WHERE predicate. Sub is set for subquery conditions, in
// which case Field, Operator and Value are unused.
type Condition struct {
	Field    string
	Operator string
	Value    any
	Logical  string
	Sub      *Statement
}

// Statement is a rendered query and its positional bindings.
type Statement struct {
	SQL      string
	Bindings []any
}

type Builder struct {
	handle sqlmig.Handle
	opts   []Option
	logger *zap.Logger
	strict bool

	kind       Kind
	table      string
	fields     []string
	conditions []Condition
	data       map[string]any
}

type Option func(*Builder)

// WithLogger logs every executed statement at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// Strict makes the builder run Validate on every statement before it is
// submitted.
func Strict() Option {
	return func(b *Builder) {
		b.strict = true
	}
}

// New returns an empty builder. h may be nil when the builder is only used
// to render SQL.
func New(h sqlmig.Handle, opts ...Option) *Builder {
	b := &Builder{handle: h, opts: opts, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Select sets the kind to SELECT and replaces the output fields.
func (b *Builder) Select(fields ...string) *Builder {
	b.kind = KindSelect
	b.fields = slices.Clone(fields)
	return b
}

// Table sets the table the statement targets.
func (b *Builder) Table(table string) *Builder {
	b.table = table
	return b
}

// Where appends an AND condition. The operator is emitted verbatim.
func (b *Builder) Where(field, operator string, value any) *Builder {
	return b.where(And, field, operator, value)
}

// OrWhere appends an OR condition.
func (b *Builder) OrWhere(field, operator string, value any) *Builder {
	return b.where(Or, field, operator, value)
}

// WhereFunc populates a fresh builder with fn and appends its SELECT as an
// AND subquery condition. The nested bindings follow the bindings of the
// conditions before it.
func (b *Builder) WhereFunc(fn func(q *Builder)) *Builder {
	return b.whereSub(And, fn)
}

// OrWhereFunc is WhereFunc joined with OR.
func (b *Builder) OrWhereFunc(fn func(q *Builder)) *Builder {
	return b.whereSub(Or, fn)
}

func (b *Builder) where(logical, field, operator string, value any) *Builder {
	b.conditions = append(b.conditions, Condition{
		Field:    field,
		Operator: operator,
		Value:    value,
		Logical:  logical,
	})
	return b
}

func (b *Builder) whereSub(logical string, fn func(q *Builder)) *Builder {
	nested := New(b.handle, b.opts...)
	fn(nested)
	sub := nested.buildSelect()
	b.conditions = append(b.conditions, Condition{Logical: logical, Sub: &sub})
	return b
}

// Insert sets the kind to INSERT with data as the row to write.
func (b *Builder) Insert(table string, data map[string]any) *Builder {
	b.kind = KindInsert
	b.table = table
	b.data = data
	return b
}

// Update sets the kind to UPDATE with data as the SET assignments.
func (b *Builder) Update(table string, data map[string]any) *Builder {
	b.kind = KindUpdate
	b.table = table
	b.data = data
	return b
}

func (b *Builder) DeleteFrom(table string) *Builder {
	b.kind = KindDelete
	b.table = table
	b.data = nil
	return b
}

func (b *Builder) Kind() Kind { return b.kind }

// Conditions returns a copy of the WHERE conditions in clause order.
func (b *Builder) Conditions() []Condition { return slices.Clone(b.conditions) }

// ToSQL renders the statement without executing it.
func (b *Builder) ToSQL() (Statement, error) {
	return b.build()
}

func (b *Builder) build() (Statement, error) {
	switch b.kind {
	case KindSelect:
		return b.buildSelect(), nil
	case KindFirst:
		stmt := b.buildSelect()
		stmt.SQL += " LIMIT 1"
		return stmt, nil
	case KindInsert:
		return b.buildInsert(), nil
	case KindUpdate:
		return b.buildUpdate(), nil
	case KindDelete:
		return b.buildDelete(), nil
	default:
		return Statement{}, sqlmig.ErrInvalidQueryKind
	}
}

func (b *Builder) buildSelect() Statement {
	fields := "*"
	if len(b.fields) > 0 {
		fields = strings.Join(b.fields, ", ")
	}
	stmt := Statement{SQL: "SELECT " + fields + " FROM " + b.table, Bindings: []any{}}
	b.appendWhere(&stmt)
	return stmt
}

func (b *Builder) buildInsert() Statement {
	keys := b.keys()
	values := make([]any, len(keys))
	placeholders := make([]string, len(keys))
	for i, k := range keys {
		values[i] = b.data[k]
		placeholders[i] = "?"
	}
	return Statement{
		SQL: "INSERT INTO " + b.table + " (" + strings.Join(keys, ", ") +
			") VALUES (" + strings.Join(placeholders, ", ") + ")",
		Bindings: values,
	}
}

func (b *Builder) buildUpdate() Statement {
	keys := b.keys()
	sets := make([]string, len(keys))
	bindings := make([]any, 0, len(keys)+len(b.conditions))
	for i, k := range keys {
		sets[i] = k + " = ?"
		bindings = append(bindings, b.data[k])
	}
	stmt := Statement{SQL: "UPDATE " + b.table + " SET " + strings.Join(sets, ", "), Bindings: bindings}
	b.appendWhere(&stmt)
	return stmt
}

func (b *Builder) buildDelete() Statement {
	stmt := Statement{SQL: "DELETE FROM " + b.table, Bindings: []any{}}
	b.appendWhere(&stmt)
	return stmt
}

// keys returns the payload keys in ascending order, which is the order
// columns and bindings are emitted in.
func (b *Builder) keys() []string {
	return slices.Sorted(maps.Keys(b.data))
}

func (b *Builder) appendWhere(stmt *Statement) {
	if len(b.conditions) == 0 {
		return
	}
	parts := make([]string, len(b.conditions))
	for i, cond := range b.conditions {
		if cond.Sub != nil {
			parts[i] = cond.Logical + " (" + cond.Sub.SQL + ")"
			stmt.Bindings = append(stmt.Bindings, cond.Sub.Bindings...)
			continue
		}
		parts[i] = cond.Logical + " " + cond.Field + " " + cond.Operator + " ?"
		stmt.Bindings = append(stmt.Bindings, cond.Value)
	}
	clause := strings.Join(parts, " ")
	if rest, ok := strings.CutPrefix(clause, And+" "); ok {
		clause = rest
	} else if rest, ok := strings.CutPrefix(clause, Or+" "); ok {
		clause = rest
	}
	stmt.SQL += " WHERE " + clause
}
