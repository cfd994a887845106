// Package record implements the row-backed record: field access and
// elementary mutations dispatch through a lookup table, pending
// changes accumulate in a change-set, and saves compile to a single
// statement.
package record

import (
	"context"
	"fmt"
	"reflect"

	"github.com/casmap/casmap/changeset"
	"github.com/casmap/casmap/cqltypes"
	"github.com/casmap/casmap/query/builder"
	"github.com/casmap/casmap/query/cqlgen"
	"github.com/casmap/casmap/schema"
)

// Record is one logical row. It is not safe for concurrent mutation;
// callers serialize access.
type Record struct {
	table  *schema.Table
	reg    cqltypes.Registry
	exec   builder.Executor
	values map[string]any
	cs     *changeset.ChangeSet
	exists bool
	blind  bool
}

// Options configure a new record. Blind marks a conditional/upsert
// write recorded without reading current values.
type Options struct {
	Blind bool
}

// New creates an empty record for a table.
func New(table *schema.Table, reg cqltypes.Registry, exec builder.Executor, opts Options) *Record {
	return &Record{
		table:  table,
		reg:    reg,
		exec:   exec,
		values: map[string]any{},
		cs:     changeset.New(table, changeset.Options{Blind: opts.Blind}),
		blind:  opts.Blind,
	}
}

// Hydrate creates a record from a row read back from the store; the
// record is known to exist, so key columns are frozen.
func Hydrate(table *schema.Table, reg cqltypes.Registry, exec builder.Executor, row map[string]any) *Record {
	values := make(map[string]any, len(row))
	for k, v := range row {
		values[k] = cqltypes.CoerceNative(v)
	}
	return &Record{
		table:  table,
		reg:    reg,
		exec:   exec,
		values: values,
		cs:     changeset.New(table, changeset.Options{Exists: true}),
		exists: true,
	}
}

// Get returns the live value of a column.
func (r *Record) Get(column string) any {
	return r.values[column]
}

// ChangeSet exposes the record's ledger, mainly for save plumbing and
// tests.
func (r *Record) ChangeSet() *changeset.ChangeSet { return r.cs }

// Set assigns a full value to a column. Strings assigned to numeric
// columns are coerced (non-numeric characters stripped, unparseable
// remainders become nil).
func (r *Record) Set(column string, value any) error {
	if !r.table.IsColumn(column) {
		return fmt.Errorf("%w: %q", changeset.ErrInvalidColumn, column)
	}

	base := r.table.BaseColumnType(column)
	if s, ok := value.(string); ok && cqltypes.IsNumeric(base) {
		value = cqltypes.CoerceNumericString(base, s)
	}
	d, err := cqltypes.Parse(r.table.ColumnType(column))
	if err != nil {
		return err
	}
	if !cqltypes.IsValidValue(d, value, r.reg) {
		return fmt.Errorf("%w: value for %q does not match %q",
			builder.ErrInvalidArgument, column, r.table.ColumnType(column))
	}

	prior := r.values[column]
	if err := r.cs.Set(column, prior, value); err != nil {
		return err
	}
	r.values[column] = value
	return nil
}

// Append appends values to a list column.
func (r *Record) Append(column string, values ...any) error {
	prior := r.values[column]
	live := appendSlice(prior, values)
	if err := r.cs.Append(column, prior, live, values...); err != nil {
		return err
	}
	r.values[column] = live
	return nil
}

// Add adds values to a set column; recorded as an append-kind
// operation, compiled as set addition.
func (r *Record) Add(column string, values ...any) error {
	return r.Append(column, values...)
}

// Prepend prepends values to a list column.
func (r *Record) Prepend(column string, values ...any) error {
	prior := r.values[column]
	live := appendSlice(toAnySlice(values), sliceOf(prior))
	if err := r.cs.Prepend(column, prior, live, values...); err != nil {
		return err
	}
	r.values[column] = live
	return nil
}

// RemoveValue removes elements from a list or set column, or keys from
// a map column.
func (r *Record) RemoveValue(column string, values ...any) error {
	prior := r.values[column]
	live := removeFromCollection(prior, values)
	if err := r.cs.Remove(column, prior, live, values...); err != nil {
		return err
	}
	r.values[column] = live
	return nil
}

// InjectAt writes one element of a map column by key, or of a list
// column by index. A nil value deletes the element.
func (r *Record) InjectAt(column string, key, value any) error {
	prior := r.values[column]
	live := injectIntoCollection(prior, key, value)
	if err := r.cs.Inject(column, prior, live, key, value); err != nil {
		return err
	}
	r.values[column] = live
	return nil
}

// IncrementBy adjusts a counter column; negative deltas decrement.
func (r *Record) IncrementBy(column string, delta int64) error {
	return r.cs.IncrementBy(column, delta)
}

// elementaryOps dispatches Apply calls; a lookup table instead of
// methods attached per schema.
var elementaryOps = map[string]func(r *Record, column string, args []any) error{
	"set": func(r *Record, column string, args []any) error {
		if len(args) != 1 {
			return fmt.Errorf("%w: set takes one value", builder.ErrInvalidArgument)
		}
		return r.Set(column, args[0])
	},
	"append": func(r *Record, column string, args []any) error {
		return r.Append(column, args...)
	},
	"prepend": func(r *Record, column string, args []any) error {
		return r.Prepend(column, args...)
	},
	"add": func(r *Record, column string, args []any) error {
		return r.Add(column, args...)
	},
	"removeValue": func(r *Record, column string, args []any) error {
		return r.RemoveValue(column, args...)
	},
	"injectAt": func(r *Record, column string, args []any) error {
		if len(args) != 2 {
			return fmt.Errorf("%w: injectAt takes a key and a value", builder.ErrInvalidArgument)
		}
		return r.InjectAt(column, args[0], args[1])
	},
	"incrementBy": func(r *Record, column string, args []any) error {
		if len(args) != 1 {
			return fmt.Errorf("%w: incrementBy takes one delta", builder.ErrInvalidArgument)
		}
		delta, ok := args[0].(int64)
		if !ok {
			n, isInt := args[0].(int)
			if !isInt {
				return fmt.Errorf("%w: incrementBy takes an integer delta", builder.ErrInvalidArgument)
			}
			delta = int64(n)
		}
		return r.IncrementBy(column, delta)
	},
}

// Apply performs a named elementary operation on a column.
func (r *Record) Apply(column, op string, args ...any) error {
	fn, ok := elementaryOps[op]
	if !ok {
		return fmt.Errorf("%w: unknown operation %q", builder.ErrInvalidArgument, op)
	}
	return fn(r, column, args)
}

// SaveOptions tune a save.
type SaveOptions struct {
	TTL         int
	IfNotExists bool
}

// Save writes the record: an insert for a record not yet known to
// exist, otherwise an update carrying only the pending operations.
// Blind records always save as updates (the store upserts). A
// successful save archives the change-set.
func (r *Record) Save(ctx context.Context, opts SaveOptions) error {
	if (r.exists || r.blind) && !r.cs.Changed() {
		return nil
	}

	b := builder.New(r.source(), r.table, r.reg)
	if r.exists || r.blind {
		b.Update(r.cs.Assignments())
		if err := r.whereKeys(b); err != nil {
			return err
		}
	} else {
		values := map[string]any{}
		for k, v := range r.values {
			if cqltypes.NormalizeEmpty(v) != nil {
				values[k] = v
			}
		}
		b.Insert(values)
		if opts.IfNotExists {
			b.IfNotExists()
		}
	}
	if opts.TTL > 0 {
		b.TTL(opts.TTL)
	}

	if _, err := b.Execute(ctx, r.exec); err != nil {
		return err
	}
	r.cs.Archive()
	r.exists = true
	return nil
}

// Delete removes the row by key.
func (r *Record) Delete(ctx context.Context) error {
	b := builder.New(r.source(), r.table, r.reg)
	b.Delete()
	if err := r.whereKeys(b); err != nil {
		return err
	}
	_, err := b.Execute(ctx, r.exec)
	return err
}

func (r *Record) source() cqlgen.Source {
	return cqlgen.Source{Keyspace: r.table.Keyspace, Table: r.table.Name}
}

func (r *Record) whereKeys(b *builder.Builder) error {
	for _, k := range r.table.KeyColumns() {
		v, ok := r.values[k]
		if !ok {
			return fmt.Errorf("%w: key column %q has no value", builder.ErrInvalidArgument, k)
		}
		b.Where(k, v)
	}
	return nil
}

// sliceOf splices any slice kind into element form; typed slices like
// []string are valid list values, so they must not be wrapped whole.
func sliceOf(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []byte:
		return []any{v}
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{value}
}

func toAnySlice(values []any) any {
	out := make([]any, len(values))
	copy(out, values)
	return out
}

func appendSlice(current any, values []any) []any {
	base := sliceOf(current)
	out := make([]any, 0, len(base)+len(values))
	out = append(out, base...)
	out = append(out, values...)
	return out
}

func removeFromCollection(current any, values []any) any {
	if cur, ok := current.(map[string]any); ok {
		out := make(map[string]any, len(cur))
		for k, v := range cur {
			if !containsValue(values, k) {
				out[k] = v
			}
		}
		return out
	}
	if current == nil {
		return nil
	}
	if rv := reflect.ValueOf(current); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		cur := sliceOf(current)
		out := make([]any, 0, len(cur))
		for _, v := range cur {
			if !containsValue(values, v) {
				out = append(out, v)
			}
		}
		return out
	}
	return current
}

func injectIntoCollection(current any, key, value any) any {
	switch cur := current.(type) {
	case map[string]any:
		out := make(map[string]any, len(cur)+1)
		for k, v := range cur {
			out[k] = v
		}
		if s, ok := key.(string); ok {
			if value == nil {
				delete(out, s)
			} else {
				out[s] = value
			}
		}
		return out
	}
	if current == nil {
		if s, ok := key.(string); ok && value != nil {
			return map[string]any{s: value}
		}
		return nil
	}
	if rv := reflect.ValueOf(current); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		cur := sliceOf(current)
		idx, ok := key.(int)
		if !ok || idx < 0 || idx >= len(cur) {
			return current
		}
		out := make([]any, len(cur))
		copy(out, cur)
		out[idx] = value
		return out
	}
	return current
}

func containsValue(values []any, v any) bool {
	for _, candidate := range values {
		if cqltypes.Equal(candidate, v) {
			return true
		}
	}
	return false
}
