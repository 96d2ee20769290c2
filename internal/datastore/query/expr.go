// Package query composes image search predicates into SQL.
//
// Predicates are a small expression tree (And, Or, Not, Exists, Compare,
// Like, Raw) rendered into one WHERE clause with positional "?" arguments.
// Every per-image condition is an EXISTS or scalar subquery correlated on
// images.id, so the outer query never joins and never yields duplicate ids.
// The package performs no I/O.
package query

import (
	"strings"
)

// Expr is a boolean SQL predicate
type Expr interface {
	build(b *builder)
}

type builder struct {
	sb   strings.Builder
	args []any
}

func (b *builder) write(s string) {
	b.sb.WriteString(s)
}

func (b *builder) arg(v any) {
	b.sb.WriteByte('?')
	b.args = append(b.args, v)
}

// Render returns the SQL text and arguments for e
func Render(e Expr) (sql string, args []any) {
	b := &builder{}
	e.build(b)
	return b.sb.String(), b.args
}

type junction struct {
	op    string
	empty string
	parts []Expr
}

func (j junction) build(b *builder) {
	switch len(j.parts) {
	case 0:
		b.write(j.empty)
	case 1:
		j.parts[0].build(b)
	default:
		b.write("(")
		for i, p := range j.parts {
			if i > 0 {
				b.write(j.op)
			}
			p.build(b)
		}
		b.write(")")
	}
}

// And matches when every part matches. An empty And is always true.
func And(parts ...Expr) Expr {
	return junction{op: " AND ", empty: "1=1", parts: compact(parts)}
}

// Or matches when any part matches. An empty Or is always false.
func Or(parts ...Expr) Expr {
	return junction{op: " OR ", empty: "1=0", parts: compact(parts)}
}

func compact(parts []Expr) []Expr {
	out := make([]Expr, 0, len(parts))
	for _, p := range parts {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

type notExpr struct {
	inner Expr
}

func (n notExpr) build(b *builder) {
	b.write("NOT (")
	n.inner.build(b)
	b.write(")")
}

// Not negates e
func Not(e Expr) Expr {
	return notExpr{inner: e}
}

type existsExpr struct {
	table  string
	alias  string
	where  Expr
	negate bool
}

func (e existsExpr) build(b *builder) {
	if e.negate {
		b.write("NOT ")
	}
	b.write("EXISTS (SELECT 1 FROM ")
	b.write(e.table)
	b.write(" ")
	b.write(e.alias)
	b.write(" WHERE ")
	e.where.build(b)
	b.write(")")
}

// Exists matches when table (aliased as alias) has a row satisfying where.
// The where clause is expected to correlate on the outer images row.
func Exists(table, alias string, where Expr) Expr {
	return existsExpr{table: table, alias: alias, where: where}
}

// NotExists is the negation of Exists
func NotExists(table, alias string, where Expr) Expr {
	return existsExpr{table: table, alias: alias, where: where, negate: true}
}

type rawExpr struct {
	sql  string
	args []any
}

func (r rawExpr) build(b *builder) {
	if len(r.args) == 0 {
		b.write(r.sql)
		return
	}
	rest := r.sql
	for _, a := range r.args {
		idx := strings.IndexByte(rest, '?')
		if idx < 0 {
			break
		}
		b.write(rest[:idx])
		b.arg(a)
		rest = rest[idx+1:]
	}
	b.write(rest)
}

// Raw embeds a SQL fragment. Each "?" in sql consumes one argument.
func Raw(sql string, args ...any) Expr {
	return rawExpr{sql: sql, args: args}
}

// Operator is a comparison operator
type Operator string

const (
	Eq  Operator = "="
	Ne  Operator = "<>"
	Lt  Operator = "<"
	Lte Operator = "<="
	Gt  Operator = ">"
	Gte Operator = ">="
)

type compareExpr struct {
	left  string
	op    Operator
	value any
}

func (c compareExpr) build(b *builder) {
	b.write(c.left)
	b.write(" ")
	b.write(string(c.op))
	b.write(" ")
	b.arg(c.value)
}

// Compare renders "left op ?" with value as the argument. left is a column
// or scalar subquery and is written verbatim.
func Compare(left string, op Operator, value any) Expr {
	return compareExpr{left: left, op: op, value: value}
}

type matchExpr struct {
	column  string
	pattern Pattern
}

func (m matchExpr) build(b *builder) {
	switch {
	case m.pattern.Any:
		b.write("1=1")
	case m.pattern.Exact:
		b.write(m.column)
		b.write(" = ")
		b.arg(m.pattern.Value)
	default:
		b.write(m.column)
		b.write(" LIKE ")
		b.arg(m.pattern.Value)
		b.write(" ESCAPE '" + string(likeEscape) + "'")
	}
}

// Like matches column against a parsed wildcard pattern. column must hold
// text folded with entities.FoldText, which makes the match case-insensitive
// on every backend.
func Like(column string, p Pattern) Expr {
	return matchExpr{column: column, pattern: p}
}
