package cqlgen

import (
	"strings"
)

// Query is a compiled statement: CQL text plus arguments in placeholder
// order. Every clause builder below returns its text fragment and the
// arguments it contributes; the generator concatenates fragments with
// single spaces and argument lists in the same order, so positional
// correspondence holds by construction.
type Query struct {
	CQL  string
	Args []any
}

// Source locates the statement's table: keyspace and table name are
// used verbatim, quoted.
type Source struct {
	Keyspace string
	Table    string
}

func (s Source) String() string {
	return quoteIdentifier(s.Keyspace) + "." + quoteIdentifier(s.Table)
}

// AssignOp is the kind of an update assignment fragment.
type AssignOp int

const (
	AssignReplace AssignOp = iota
	AssignAppend
	AssignPrepend
	AssignRemove
	AssignCounter
	AssignElement
)

// Assignment is one SET fragment. Value carries the bound value (the
// collection delta for append/prepend/remove, the whole value for
// replace, the element value for element writes); Key is the element
// key for AssignElement; Delta is the signed counter adjustment.
type Assignment struct {
	Column string
	Op     AssignOp
	Value  any
	Key    any
	Delta  int64
}

// Timing carries USING directives. When both are present TTL is
// emitted first.
type Timing struct {
	TTL       *int
	Timestamp *int64
}

// GenerateSelect compiles a SELECT statement. A nil or empty columns
// slice selects the wildcard; count wraps the projection in COUNT(*).
func GenerateSelect(src Source, columns []string, count bool, where *WhereClause, orderBy []OrderBy, limit *int, allowFiltering bool) *Query {
	var parts []string
	var args []any

	projection := "*"
	if len(columns) > 0 {
		projection = joinQuoted(columns)
	}
	if count {
		projection = "COUNT(" + projection + ")"
	}
	parts = append(parts, "SELECT "+projection, "FROM "+src.String())

	if !where.IsEmpty() {
		text, whereArgs := buildWhere(where)
		parts = append(parts, "WHERE "+text)
		args = append(args, whereArgs...)
	}

	if len(orderBy) > 0 {
		clauses := make([]string, len(orderBy))
		for i, ob := range orderBy {
			dir := "ASC"
			if strings.EqualFold(ob.Direction, "DESC") {
				dir = "DESC"
			}
			clauses[i] = quoteIdentifier(ob.Column) + " " + dir
		}
		parts = append(parts, "ORDER BY "+strings.Join(clauses, ", "))
	}

	if limit != nil && *limit > 0 {
		parts = append(parts, "LIMIT ?")
		args = append(args, *limit)
	}

	if allowFiltering {
		parts = append(parts, "ALLOW FILTERING")
	}

	return &Query{CQL: strings.Join(parts, " "), Args: args}
}

// OrderBy is one ORDER BY entry.
type OrderBy struct {
	Column    string
	Direction string
}

// GenerateInsert compiles an INSERT statement. Columns and values are
// parallel slices in placeholder order.
func GenerateInsert(src Source, columns []string, values []any, ifNotExists bool, timing *Timing) *Query {
	var parts []string
	var args []any

	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = "?"
		args = append(args, values[i])
	}
	parts = append(parts,
		"INSERT INTO "+src.String(),
		"( "+joinQuoted(columns)+" )",
		"VALUES ( "+strings.Join(placeholders, ", ")+" )",
	)

	if ifNotExists {
		parts = append(parts, "IF NOT EXISTS")
	}

	if text, timingArgs := buildTiming(timing); text != "" {
		parts = append(parts, text)
		args = append(args, timingArgs...)
	}

	return &Query{CQL: strings.Join(parts, " "), Args: args}
}

// GenerateUpdate compiles an UPDATE statement.
func GenerateUpdate(src Source, timing *Timing, assignments []Assignment, where, conditions *WhereClause, ifExists bool) *Query {
	parts := []string{"UPDATE " + src.String()}
	var args []any

	if text, timingArgs := buildTiming(timing); text != "" {
		parts = append(parts, text)
		args = append(args, timingArgs...)
	}

	if len(assignments) > 0 {
		text, setArgs := buildAssignments(assignments)
		parts = append(parts, "SET "+text)
		args = append(args, setArgs...)
	}

	if !where.IsEmpty() {
		text, whereArgs := buildWhere(where)
		parts = append(parts, "WHERE "+text)
		args = append(args, whereArgs...)
	}

	if !conditions.IsEmpty() {
		text, condArgs := buildWhere(conditions)
		parts = append(parts, "IF "+text)
		args = append(args, condArgs...)
	}

	if ifExists {
		parts = append(parts, "IF EXISTS")
	}

	return &Query{CQL: strings.Join(parts, " "), Args: args}
}

// GenerateDelete compiles a DELETE statement; a non-empty columns
// slice deletes only those columns.
func GenerateDelete(src Source, columns []string, timing *Timing, where, conditions *WhereClause, ifExists bool) *Query {
	var parts []string
	var args []any

	if len(columns) > 0 {
		parts = append(parts, "DELETE "+joinQuoted(columns), "FROM "+src.String())
	} else {
		parts = append(parts, "DELETE", "FROM "+src.String())
	}

	if text, timingArgs := buildTiming(timing); text != "" {
		parts = append(parts, text)
		args = append(args, timingArgs...)
	}

	if !where.IsEmpty() {
		text, whereArgs := buildWhere(where)
		parts = append(parts, "WHERE "+text)
		args = append(args, whereArgs...)
	}

	if !conditions.IsEmpty() {
		text, condArgs := buildWhere(conditions)
		parts = append(parts, "IF "+text)
		args = append(args, condArgs...)
	}

	if ifExists {
		parts = append(parts, "IF EXISTS")
	}

	return &Query{CQL: strings.Join(parts, " "), Args: args}
}

// GenerateTruncate compiles a TRUNCATE statement.
func GenerateTruncate(src Source) *Query {
	return &Query{CQL: "TRUNCATE " + src.String()}
}

func buildWhere(w *WhereClause) (string, []any) {
	clauses := make([]string, len(w.Conditions))
	args := make([]any, 0, len(w.Conditions))
	for i, c := range w.Conditions {
		clauses[i] = quoteIdentifier(c.Column) + " " + c.Operator + " ?"
		args = append(args, c.Value)
	}
	return strings.Join(clauses, " AND "), args
}

func buildAssignments(assignments []Assignment) (string, []any) {
	clauses := make([]string, 0, len(assignments))
	args := make([]any, 0, len(assignments))
	for _, a := range assignments {
		col := quoteIdentifier(a.Column)
		switch a.Op {
		case AssignReplace:
			clauses = append(clauses, col+" = ?")
			args = append(args, a.Value)
		case AssignAppend:
			clauses = append(clauses, col+" = "+col+" + ?")
			args = append(args, a.Value)
		case AssignPrepend:
			clauses = append(clauses, col+" = ? + "+col)
			args = append(args, a.Value)
		case AssignRemove:
			clauses = append(clauses, col+" = "+col+" - ?")
			args = append(args, a.Value)
		case AssignCounter:
			if a.Delta < 0 {
				clauses = append(clauses, col+" = "+col+" - ?")
				args = append(args, -a.Delta)
			} else {
				clauses = append(clauses, col+" = "+col+" + ?")
				args = append(args, a.Delta)
			}
		case AssignElement:
			clauses = append(clauses, col+"[?] = ?")
			args = append(args, a.Key, a.Value)
		}
	}
	return strings.Join(clauses, ", "), args
}

func buildTiming(t *Timing) (string, []any) {
	if t == nil {
		return "", nil
	}
	var clauses []string
	var args []any
	if t.TTL != nil {
		clauses = append(clauses, "TTL ?")
		args = append(args, *t.TTL)
	}
	if t.Timestamp != nil {
		clauses = append(clauses, "TIMESTAMP ?")
		args = append(args, *t.Timestamp)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "USING " + strings.Join(clauses, " AND "), args
}

func joinQuoted(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

// quoteIdentifier double-quotes an identifier, doubling any embedded
// quote the way the wire dialect escapes them.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
