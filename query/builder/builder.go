// Package builder provides the fluent statement builder: it
// accumulates one logical statement across chained calls and compiles
// it, exactly once, into CQL text plus an ordered argument list.
package builder

import (
	"context"
	"fmt"
	"sort"

	"github.com/casmap/casmap/changeset"
	"github.com/casmap/casmap/cqltypes"
	"github.com/casmap/casmap/internal/debug"
	"github.com/casmap/casmap/query/cqlgen"
)

// Action identifies the statement kind. It is fixed by the first
// action-implying call; a later call implying a different action is an
// ErrActionConflict.
type Action int

const (
	ActionNone Action = iota
	ActionSelect
	ActionInsert
	ActionUpdate
	ActionDelete
	ActionTruncate
)

func (a Action) String() string {
	switch a {
	case ActionSelect:
		return "select"
	case ActionInsert:
		return "insert"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	case ActionTruncate:
		return "truncate"
	}
	return "none"
}

// Schema is the column metadata the builder validates against.
type Schema interface {
	IsColumn(name string) bool
	ColumnType(name string) string
	BaseColumnType(name string) string
	IsKeyColumn(name string) bool
}

// Executor runs a compiled statement against the store. Implemented by
// runtime/client.
type Executor interface {
	Execute(ctx context.Context, q *cqlgen.Query) ([]map[string]any, error)
}

// predOp is one comparison on a column, in call order.
type predOp struct {
	token string
	value any
}

// predicate accumulates the comparisons for one column; multiple
// operators on one column accumulate (a half-open range, for example).
type predicate struct {
	column string
	ops    []predOp
}

var comparisonOps = map[string]string{
	"$eq":  "=",
	"$gt":  ">",
	"$gte": ">=",
	"$lt":  "<",
	"$lte": "<=",
	"$in":  "IN",
}

// Builder accumulates a single statement. It is owned by one logical
// operation and must not be shared across concurrent operations. The
// first error is retained and surfaced by Build/Execute; later calls
// on a failed builder are no-ops.
type Builder struct {
	src    cqlgen.Source
	schema Schema
	reg    cqltypes.Registry
	err    error

	action         Action
	columns        []string
	count          bool
	preds          []*predicate
	conds          []*predicate
	orderBy        []cqlgen.OrderBy
	limit          *int
	allowFiltering bool
	ttl            *int
	timestamp      *int64
	ifExists       bool
	ifNotExists    bool
	insertValues   map[string]any
	assignments    map[string]*changeset.Operation
}

// New creates a builder for one statement against src.
func New(src cqlgen.Source, schema Schema, reg cqltypes.Registry) *Builder {
	return &Builder{src: src, schema: schema, reg: reg}
}

// Err returns the first error recorded by a chained call, if any.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) setAction(a Action) bool {
	if b.err != nil {
		return false
	}
	if b.action != ActionNone && b.action != a {
		b.fail(fmt.Errorf("%w: %s, then %s", ErrActionConflict, b.action, a))
		return false
	}
	b.action = a
	return true
}

// Select fixes the action to select with an explicit projection; no
// columns means the wildcard.
func (b *Builder) Select(columns ...string) *Builder {
	if !b.setAction(ActionSelect) {
		return b
	}
	for _, c := range columns {
		if !b.schema.IsColumn(c) {
			return b.fail(fmt.Errorf("%w: %q", ErrInvalidColumn, c))
		}
	}
	b.columns = columns
	return b
}

// Count fixes the action to select and wraps the projection in a
// count aggregate.
func (b *Builder) Count() *Builder {
	if !b.setAction(ActionSelect) {
		return b
	}
	b.count = true
	return b
}

// Insert fixes the action to insert with the given column values.
func (b *Builder) Insert(values map[string]any) *Builder {
	if !b.setAction(ActionInsert) {
		return b
	}
	if len(values) == 0 {
		return b.fail(fmt.Errorf("%w: insert requires at least one column value", ErrInvalidArgument))
	}
	for c, v := range values {
		if !b.schema.IsColumn(c) {
			return b.fail(fmt.Errorf("%w: %q", ErrInvalidColumn, c))
		}
		d, err := cqltypes.Parse(b.schema.ColumnType(c))
		if err != nil {
			return b.fail(err)
		}
		if !cqltypes.IsValidValue(d, v, b.reg) {
			return b.fail(fmt.Errorf("%w: value for %q does not match %q",
				ErrInvalidArgument, c, b.schema.ColumnType(c)))
		}
	}
	b.insertValues = values
	return b
}

// Update fixes the action to update with the ledger's pending
// operations as assignments. Operation legality is checked against
// each column's base type.
func (b *Builder) Update(assignments map[string]*changeset.Operation) *Builder {
	if !b.setAction(ActionUpdate) {
		return b
	}
	if b.assignments == nil {
		b.assignments = map[string]*changeset.Operation{}
	}
	for c, op := range assignments {
		if !b.schema.IsColumn(c) {
			return b.fail(fmt.Errorf("%w: %q", ErrInvalidColumn, c))
		}
		base := b.schema.BaseColumnType(c)
		if !legalUpdateOp(base, op.Kind) {
			return b.fail(fmt.Errorf("%w: %s on %s column %q",
				ErrInvalidUpdateOperation, op.Kind, base, c))
		}
		b.assignments[c] = op
	}
	return b
}

// Set is the plain-assignment convenience form of Update.
func (b *Builder) Set(column string, value any) *Builder {
	return b.Update(map[string]*changeset.Operation{
		column: {Kind: changeset.OpReplace, Value: value},
	})
}

// Delete fixes the action to delete; columns, when given, restrict the
// deletion to those columns.
func (b *Builder) Delete(columns ...string) *Builder {
	if !b.setAction(ActionDelete) {
		return b
	}
	for _, c := range columns {
		if !b.schema.IsColumn(c) {
			return b.fail(fmt.Errorf("%w: %q", ErrInvalidColumn, c))
		}
	}
	b.columns = columns
	return b
}

// Truncate fixes the action to truncate.
func (b *Builder) Truncate() *Builder {
	b.setAction(ActionTruncate)
	return b
}

// Where adds a predicate. A bare value normalizes to an equality
// comparison; a map value of the form {"$gte": v} merges its operators
// into any existing predicate for the column.
func (b *Builder) Where(column string, value any) *Builder {
	return b.addPredicate(&b.preds, column, value)
}

// If adds a lightweight-transaction condition, with the same
// normalization as Where.
func (b *Builder) If(column string, value any) *Builder {
	return b.addPredicate(&b.conds, column, value)
}

func (b *Builder) addPredicate(dst *[]*predicate, column string, value any) *Builder {
	if b.err != nil {
		return b
	}
	if !b.schema.IsColumn(column) {
		return b.fail(fmt.Errorf("%w: %q", ErrInvalidColumn, column))
	}

	p := findPredicate(*dst, column)
	if p == nil {
		p = &predicate{column: column}
		*dst = append(*dst, p)
	}

	ops, ok := value.(map[string]any)
	if !ok {
		p.ops = append(p.ops, predOp{token: "$eq", value: value})
		return b
	}

	// Sort the operator tokens of a single call so compilation stays
	// deterministic; separate calls keep call order.
	tokens := make([]string, 0, len(ops))
	for token := range ops {
		if _, known := comparisonOps[token]; !known {
			return b.fail(fmt.Errorf("%w: unknown operator %q", ErrInvalidArgument, token))
		}
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	for _, token := range tokens {
		p.ops = append(p.ops, predOp{token: token, value: ops[token]})
	}
	return b
}

func findPredicate(preds []*predicate, column string) *predicate {
	for _, p := range preds {
		if p.column == column {
			return p
		}
	}
	return nil
}

// OrderBy adds an ordering clause.
func (b *Builder) OrderBy(column, direction string) *Builder {
	if b.err != nil {
		return b
	}
	if !b.schema.IsColumn(column) {
		return b.fail(fmt.Errorf("%w: %q", ErrInvalidColumn, column))
	}
	b.orderBy = append(b.orderBy, cqlgen.OrderBy{Column: column, Direction: direction})
	return b
}

// Limit caps the number of rows returned.
func (b *Builder) Limit(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n <= 0 {
		return b.fail(fmt.Errorf("%w: limit must be positive", ErrInvalidArgument))
	}
	b.limit = &n
	return b
}

// AllowFiltering opts in to server-side filtering; unset means
// filtering disallowed.
func (b *Builder) AllowFiltering() *Builder {
	if b.err != nil {
		return b
	}
	b.allowFiltering = true
	return b
}

// TTL adds a USING TTL directive, in seconds.
func (b *Builder) TTL(seconds int) *Builder {
	if b.err != nil {
		return b
	}
	if seconds < 0 {
		return b.fail(fmt.Errorf("%w: ttl must not be negative", ErrInvalidArgument))
	}
	b.ttl = &seconds
	return b
}

// Timestamp adds a USING TIMESTAMP directive, in microseconds.
func (b *Builder) Timestamp(micros int64) *Builder {
	if b.err != nil {
		return b
	}
	b.timestamp = &micros
	return b
}

// IfExists adds the IF EXISTS directive.
func (b *Builder) IfExists() *Builder {
	if b.err != nil {
		return b
	}
	b.ifExists = true
	return b
}

// IfNotExists adds the IF NOT EXISTS directive.
func (b *Builder) IfNotExists() *Builder {
	if b.err != nil {
		return b
	}
	b.ifNotExists = true
	return b
}

// Build compiles the accumulated statement. It is pure: no I/O, and
// the builder is not consumed, but a builder is meant for exactly one
// statement.
func (b *Builder) Build() (*cqlgen.Query, error) {
	if b.err != nil {
		return nil, b.err
	}

	var q *cqlgen.Query
	switch b.action {
	case ActionSelect:
		q = cqlgen.GenerateSelect(b.src, b.columns, b.count, b.whereClause(b.preds),
			b.orderBy, b.limit, b.allowFiltering)
	case ActionInsert:
		columns, values := b.orderedInsertValues()
		q = cqlgen.GenerateInsert(b.src, columns, values, b.ifNotExists, b.timing())
	case ActionUpdate:
		q = cqlgen.GenerateUpdate(b.src, b.timing(), b.orderedAssignments(),
			b.whereClause(b.preds), b.whereClause(b.conds), b.ifExists)
	case ActionDelete:
		q = cqlgen.GenerateDelete(b.src, b.columns, b.timing(),
			b.whereClause(b.preds), b.whereClause(b.conds), b.ifExists)
	case ActionTruncate:
		q = cqlgen.GenerateTruncate(b.src)
	default:
		return nil, ErrInvalidAction
	}

	debug.Debug("compiled statement", "cql", q.CQL, "args", len(q.Args))
	return q, nil
}

// Execute compiles the statement and hands it to the executor. Store
// failures come back wrapped by the executor, otherwise untouched.
func (b *Builder) Execute(ctx context.Context, exec Executor) ([]map[string]any, error) {
	q, err := b.Build()
	if err != nil {
		return nil, err
	}
	return exec.Execute(ctx, q)
}

func (b *Builder) timing() *cqlgen.Timing {
	if b.ttl == nil && b.timestamp == nil {
		return nil
	}
	return &cqlgen.Timing{TTL: b.ttl, Timestamp: b.timestamp}
}

func (b *Builder) whereClause(preds []*predicate) *cqlgen.WhereClause {
	if len(preds) == 0 {
		return nil
	}
	w := cqlgen.NewWhereClause()
	for _, p := range preds {
		for _, op := range p.ops {
			w.Add(cqlgen.Condition{
				Column:   p.column,
				Operator: comparisonOps[op.token],
				Value:    b.formatValue(p.column, op.value),
			})
		}
	}
	return w
}

func (b *Builder) orderedInsertValues() ([]string, []any) {
	columns := make([]string, 0, len(b.insertValues))
	for c := range b.insertValues {
		columns = append(columns, c)
	}
	sort.Strings(columns)
	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = b.formatValue(c, b.insertValues[c])
	}
	return columns, values
}

// orderedAssignments lowers the ledger's operations to SET fragments.
// Element injections are rewritten to element-indexed targets here and
// never reach the per-column replace path, so they cannot double-emit.
func (b *Builder) orderedAssignments() []cqlgen.Assignment {
	columns := make([]string, 0, len(b.assignments))
	for c := range b.assignments {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	var out []cqlgen.Assignment
	for _, c := range columns {
		op := b.assignments[c]
		switch op.Kind {
		case changeset.OpReplace:
			out = append(out, cqlgen.Assignment{Column: c, Op: cqlgen.AssignReplace,
				Value: b.formatValue(c, op.Value)})
		case changeset.OpAppend:
			out = append(out, cqlgen.Assignment{Column: c, Op: cqlgen.AssignAppend,
				Value: b.formatElements(c, op.Values)})
		case changeset.OpPrepend:
			out = append(out, cqlgen.Assignment{Column: c, Op: cqlgen.AssignPrepend,
				Value: b.formatElements(c, op.Values)})
		case changeset.OpRemove:
			out = append(out, cqlgen.Assignment{Column: c, Op: cqlgen.AssignRemove,
				Value: b.formatElements(c, op.Values)})
		case changeset.OpIncrement:
			out = append(out, cqlgen.Assignment{Column: c, Op: cqlgen.AssignCounter, Delta: op.Delta})
		case changeset.OpDecrement:
			out = append(out, cqlgen.Assignment{Column: c, Op: cqlgen.AssignCounter, Delta: -op.Delta})
		case changeset.OpInject:
			keys := make([]any, 0, len(op.Entries))
			for k := range op.Entries {
				keys = append(keys, k)
			}
			sort.Slice(keys, func(i, j int) bool {
				return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
			})
			for _, k := range keys {
				out = append(out, cqlgen.Assignment{Column: c, Op: cqlgen.AssignElement,
					Key: k, Value: b.formatElementValue(c, op.Entries[k])})
			}
		}
	}
	return out
}

func (b *Builder) formatValue(column string, value any) any {
	d, err := cqltypes.Parse(b.schema.ColumnType(column))
	if err != nil {
		return value
	}
	return cqltypes.Format(d, value, b.reg)
}

// formatElements formats a collection delta (the values of an append,
// prepend or remove) against the column's element type.
func (b *Builder) formatElements(column string, values []any) []any {
	out := make([]any, len(values))
	d, err := cqltypes.Parse(b.schema.ColumnType(column))
	if err != nil {
		copy(out, values)
		return out
	}
	for d.Keyword == cqltypes.KeywordFrozen && len(d.Params) == 1 {
		d = d.Params[0]
	}
	elem := d
	if len(d.Params) > 0 {
		elem = d.Params[0]
	}
	for i, v := range values {
		out[i] = cqltypes.Format(elem, v, b.reg)
	}
	return out
}

// formatElementValue formats one injected element against the column's
// value type: a map's second parameter, a list's element type. A nil
// value stays nil (element tombstone).
func (b *Builder) formatElementValue(column string, value any) any {
	d, err := cqltypes.Parse(b.schema.ColumnType(column))
	if err != nil {
		return value
	}
	for d.Keyword == cqltypes.KeywordFrozen && len(d.Params) == 1 {
		d = d.Params[0]
	}
	switch {
	case d.Keyword == cqltypes.KeywordMap && len(d.Params) == 2:
		return cqltypes.Format(d.Params[1], value, b.reg)
	case len(d.Params) > 0:
		return cqltypes.Format(d.Params[0], value, b.reg)
	}
	return value
}

// legalUpdateOp is the operation legality table by base column type.
func legalUpdateOp(base string, kind changeset.OpKind) bool {
	switch kind {
	case changeset.OpReplace:
		return base != cqltypes.KeywordCounter
	case changeset.OpAppend:
		return base == cqltypes.KeywordList || base == cqltypes.KeywordSet
	case changeset.OpPrepend:
		return base == cqltypes.KeywordList
	case changeset.OpRemove:
		return base == cqltypes.KeywordList || base == cqltypes.KeywordSet || base == cqltypes.KeywordMap
	case changeset.OpInject:
		return base == cqltypes.KeywordList || base == cqltypes.KeywordMap
	case changeset.OpIncrement, changeset.OpDecrement:
		return base == cqltypes.KeywordCounter
	}
	return false
}
