// Package views compiles declarative view specs into single-statement SQL
// queries that join an entity with its owner, attach correlated counts and
// viewer-relative flags, then filter, sort and paginate the result.
//
// Fragments use '?' placeholders; the builder renumbers them into positional
// parameters in emission order so callers never track $n by hand.
package views

import (
	"fmt"
	"strings"
)

// OwnerAlias is the table alias of the joined owner record. Count and flag
// specs may reference it, e.g. LocalKey "owner.id".
const OwnerAlias = "owner"

// Column projects one expression of the base (or joined) tables.
type Column struct {
	Expr string
	As   string
	Args []any
}

// Join adds an inner join. Clause is the full "JOIN ... ON ..." fragment.
type Join struct {
	Clause string
	Args   []any
}

// Owner left-joins the users table on ForeignKey and projects owner_id,
// owner_username, owner_full_name and owner_avatar. A dangling or null
// foreign key yields null owner columns rather than dropping the row.
type Owner struct {
	ForeignKey string
}

// Count attaches the number of Table rows whose ForeignKey equals LocalKey.
// Where may narrow the set; it references the counted table as "x".
type Count struct {
	As         string
	Table      string
	ForeignKey string
	LocalKey   string
	Where      string
	Args       []any
}

// Flag attaches whether a Table row links LocalKey to Subject. An empty
// Subject (anonymous viewer) compiles to a constant false.
type Flag struct {
	As            string
	Table         string
	ForeignKey    string
	LocalKey      string
	SubjectColumn string
	Subject       string
	Where         string
	Args          []any
}

// Filter is one conjunct of the WHERE clause.
type Filter struct {
	Expr string
	Args []any
}

// Spec declares a derived view.
type Spec struct {
	Table   string
	Alias   string
	Columns []Column
	Joins   []Join
	Owner   *Owner
	Counts  []Count
	Flags   []Flag
	Filters []Filter

	// SortKeys maps public sort names onto SQL expressions.
	SortKeys    map[string]string
	DefaultSort Sort
}

// Query is a spec bound to an ordering and a window.
type Query struct {
	Spec   Spec
	Sort   Sort
	Limit  int
	Offset int
}

// Sorted binds s to the client's ordering, validated against SortKeys.
func (s Spec) Sorted(sortBy, sortType string) (Query, error) {
	sort, err := ParseSort(sortBy, sortType, s.SortKeys, s.defaultSort())
	if err != nil {
		return Query{}, err
	}
	return Query{Spec: s, Sort: sort}, nil
}

// Build returns the page query and its arguments. A zero Limit selects
// every matching row.
func (q Query) Build() (string, []any) {
	b := &sqlBuilder{}
	q.writeSelect(b)
	q.writeFrom(b)
	q.writeWhere(b)

	sort := q.Sort
	if sort.Expr == "" {
		sort = q.Spec.defaultSort()
	}
	b.write(" ORDER BY " + sort.clause() + ", " + q.Spec.Alias + ".id " + sort.direction())

	if q.Limit > 0 {
		b.write(" LIMIT ?", q.Limit)
	}
	if q.Offset > 0 {
		b.write(" OFFSET ?", q.Offset)
	}
	return b.String(), b.args
}

// BuildOne returns a query for at most one row of the view.
func (q Query) BuildOne() (string, []any) {
	b := &sqlBuilder{}
	q.writeSelect(b)
	q.writeFrom(b)
	q.writeWhere(b)
	b.write(" LIMIT 1")
	return b.String(), b.args
}

// BuildCount counts the rows the view matches before windowing.
func (q Query) BuildCount() (string, []any) {
	b := &sqlBuilder{}
	b.write("SELECT COUNT(*)")
	q.writeFrom(b)
	q.writeWhere(b)
	return b.String(), b.args
}

func (q Query) writeSelect(b *sqlBuilder) {
	s := q.Spec
	parts := make([]string, 0, len(s.Columns)+len(s.Counts)+len(s.Flags)+4)
	var args []any

	for _, c := range s.Columns {
		parts = append(parts, projection(c.Expr, c.As))
		args = append(args, c.Args...)
	}
	for _, c := range s.Counts {
		expr := fmt.Sprintf("(SELECT COUNT(*) FROM %s x WHERE x.%s = %s", c.Table, c.ForeignKey, c.LocalKey)
		if c.Where != "" {
			expr += " AND " + c.Where
		}
		parts = append(parts, expr+") AS "+c.As)
		args = append(args, c.Args...)
	}
	for _, f := range s.Flags {
		if f.Subject == "" {
			parts = append(parts, "false AS "+f.As)
			continue
		}
		expr := fmt.Sprintf("EXISTS (SELECT 1 FROM %s x WHERE x.%s = %s AND x.%s = ?", f.Table, f.ForeignKey, f.LocalKey, f.SubjectColumn)
		args = append(args, f.Subject)
		if f.Where != "" {
			expr += " AND " + f.Where
			args = append(args, f.Args...)
		}
		parts = append(parts, expr+") AS "+f.As)
	}
	if s.Owner != nil {
		parts = append(parts,
			OwnerAlias+".id AS owner_id",
			OwnerAlias+".username AS owner_username",
			OwnerAlias+".full_name AS owner_full_name",
			OwnerAlias+".avatar_url AS owner_avatar",
		)
	}

	b.write("SELECT "+strings.Join(parts, ", "), args...)
}

func (q Query) writeFrom(b *sqlBuilder) {
	s := q.Spec
	b.write(" FROM " + s.Table + " " + s.Alias)
	if s.Owner != nil {
		b.write(" LEFT JOIN users " + OwnerAlias + " ON " + OwnerAlias + ".id = " + s.Owner.ForeignKey)
	}
	for _, j := range s.Joins {
		b.write(" "+j.Clause, j.Args...)
	}
}

func (q Query) writeWhere(b *sqlBuilder) {
	for i, f := range q.Spec.Filters {
		if i == 0 {
			b.write(" WHERE ")
		} else {
			b.write(" AND ")
		}
		b.write("("+f.Expr+")", f.Args...)
	}
}

func (s Spec) defaultSort() Sort {
	if s.DefaultSort.Expr != "" {
		return s.DefaultSort
	}
	return Sort{Key: "createdAt", Expr: s.Alias + ".created_at", Desc: true}
}

func projection(expr, as string) string {
	if as == "" {
		return expr
	}
	return expr + " AS " + as
}

type sqlBuilder struct {
	sb   strings.Builder
	args []any
}

// write appends fragment, replacing each '?' with the next positional
// parameter bound to the matching element of args.
func (b *sqlBuilder) write(fragment string, args ...any) {
	used := 0
	for _, r := range fragment {
		if r != '?' {
			b.sb.WriteRune(r)
			continue
		}
		if used >= len(args) {
			panic(fmt.Sprintf("views: fragment %q has more placeholders than arguments", fragment))
		}
		b.args = append(b.args, args[used])
		used++
		fmt.Fprintf(&b.sb, "$%d", len(b.args))
	}
	if used != len(args) {
		panic(fmt.Sprintf("views: fragment %q binds %d of %d arguments", fragment, used, len(args)))
	}
}

func (b *sqlBuilder) String() string {
	return b.sb.String()
}
