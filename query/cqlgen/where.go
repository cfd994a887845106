// Package cqlgen generates CQL statement text with positional
// placeholders and an ordered argument list.
package cqlgen

// Condition is a single comparison in a WHERE or IF clause.
type Condition struct {
	Column   string
	Operator string // "=", ">", ">=", "<", "<=", "IN"
	Value    any
}

// WhereClause is an ordered conjunction of conditions. Order matters:
// arguments are emitted in the same order the conditions appear.
type WhereClause struct {
	Conditions []Condition
}

// NewWhereClause creates an empty WHERE clause.
func NewWhereClause() *WhereClause {
	return &WhereClause{}
}

// Add appends a condition.
func (w *WhereClause) Add(c Condition) {
	w.Conditions = append(w.Conditions, c)
}

// IsEmpty reports whether the clause has no conditions.
func (w *WhereClause) IsEmpty() bool {
	return w == nil || len(w.Conditions) == 0
}
