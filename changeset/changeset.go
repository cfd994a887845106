// Package changeset tracks pending column mutations for one record
// between saves, compacting repeated operations and deciding whether a
// change can be expressed as a targeted incremental update or must
// collapse to a full-value replacement.
package changeset

import (
	"fmt"

	"github.com/casmap/casmap/cqltypes"
	"github.com/casmap/casmap/schema"
)

type change struct {
	prior   any
	op      *Operation
	keyCol  bool // tracked but excluded from assignments (blind mode)
}

// ChangeSet is the per-record mutation ledger. It is exclusively owned
// by its record; callers must serialize concurrent mutation.
type ChangeSet struct {
	table    *schema.Table
	blind    bool
	exists   bool
	changes  map[string]*change
	previous map[string]*Operation
}

// Options configure a ledger. Blind marks a conditional/upsert write
// recorded without having read current values; Exists marks a record
// known to already be present in the store.
type Options struct {
	Blind  bool
	Exists bool
}

// New creates an empty ledger for a table.
func New(table *schema.Table, opts Options) *ChangeSet {
	return &ChangeSet{
		table:    table,
		blind:    opts.Blind,
		exists:   opts.Exists,
		changes:  map[string]*change{},
		previous: map[string]*Operation{},
	}
}

// MarkExists records that the row is now known to be present in the
// store (after a successful save or load).
func (cs *ChangeSet) MarkExists() { cs.exists = true }

// Blind reports whether the ledger is in blind-update mode.
func (cs *ChangeSet) Blind() bool { return cs.blind }

// Set records a full-value replacement. prior is the value before this
// round of edits, live the value after; both are ignored in blind mode.
func (cs *ChangeSet) Set(column string, prior, live any) error {
	return cs.apply(column, prior, live, &Operation{Kind: OpReplace, Value: live})
}

// Append records list appends (and set adds). live is the resulting
// collection value after the edit.
func (cs *ChangeSet) Append(column string, prior, live any, values ...any) error {
	return cs.apply(column, prior, live, &Operation{Kind: OpAppend, Values: values})
}

// Prepend records list prepends.
func (cs *ChangeSet) Prepend(column string, prior, live any, values ...any) error {
	return cs.apply(column, prior, live, &Operation{Kind: OpPrepend, Values: values})
}

// Remove records element removals from a list, set or map.
func (cs *ChangeSet) Remove(column string, prior, live any, values ...any) error {
	return cs.apply(column, prior, live, &Operation{Kind: OpRemove, Values: values})
}

// Inject records an element write by key or index. A nil value is an
// element tombstone.
func (cs *ChangeSet) Inject(column string, prior, live any, key, value any) error {
	return cs.apply(column, prior, live, &Operation{Kind: OpInject, Entries: map[any]any{key: value}})
}

// IncrementBy records a counter adjustment; negative deltas decrement.
// Only legal on counter columns.
func (cs *ChangeSet) IncrementBy(column string, delta int64) error {
	op := &Operation{Kind: OpIncrement, Delta: delta}
	if delta < 0 {
		op = &Operation{Kind: OpDecrement, Delta: -delta}
	}
	return cs.apply(column, nil, nil, op)
}

func (cs *ChangeSet) apply(column string, prior, live any, op *Operation) error {
	if !cs.table.IsColumn(column) {
		return fmt.Errorf("%w: %q", ErrInvalidColumn, column)
	}

	base := cs.table.BaseColumnType(column)
	counterOp := op.Kind == OpIncrement || op.Kind == OpDecrement
	if (base == cqltypes.KeywordCounter) != counterOp {
		return fmt.Errorf("%w: %s on %s column %q", ErrInvalidColumnType, op.Kind, base, column)
	}

	keyCol := false
	if cs.table.IsKeyColumn(column) {
		if cs.blind {
			// Key columns belong in the predicate, not the SET list;
			// track the value but exclude it from assignments.
			keyCol = true
		} else if cs.exists {
			return fmt.Errorf("%w: %q", ErrCannotSetKeyColumns, column)
		}
	}

	ch, ok := cs.changes[column]
	if !ok {
		ch = &change{prior: prior, op: op, keyCol: keyCol}
		if counterOp && op.Delta == 0 {
			return nil
		}
		cs.changes[column] = ch
		cs.checkBaseline(column, ch, live)
		return nil
	}

	switch {
	case mergeable(ch.op.Kind, op.Kind):
		if removed := mergeInto(ch.op, op); removed {
			delete(cs.changes, column)
			return nil
		}
	case cs.blind:
		// No live value to reconcile against.
		return fmt.Errorf("%w: %q already has pending %s, got %s",
			ErrOperationConflict, column, ch.op.Kind, op.Kind)
	default:
		// Incompatible partial operations do not compose; the entire
		// resulting value is sent with a plain assignment instead.
		ch.op = &Operation{Kind: OpReplace, Value: live}
	}

	cs.checkBaseline(column, ch, live)
	return nil
}

// mergeInto folds a same-kind operation into the existing record. It
// reports true when the merged record nets out to nothing and the
// entry must be dropped.
func mergeInto(existing, incoming *Operation) bool {
	switch existing.Kind {
	case OpIncrement, OpDecrement:
		net := existing.signedDelta() + incoming.signedDelta()
		if net == 0 {
			return true
		}
		if net > 0 {
			existing.Kind, existing.Delta = OpIncrement, net
		} else {
			existing.Kind, existing.Delta = OpDecrement, -net
		}
	case OpAppend, OpRemove:
		existing.Values = append(existing.Values, incoming.Values...)
	case OpPrepend:
		// The later prepend lands closer to the head.
		existing.Values = append(append([]any{}, incoming.Values...), existing.Values...)
	case OpInject:
		for k, v := range incoming.Entries {
			existing.Entries[k] = v
		}
	case OpReplace:
		existing.Value = incoming.Value
	}
	return false
}

// checkBaseline drops the entry when the live value has returned to
// the value recorded at entry creation. Only meaningful in tracked
// mode; a blind ledger has no baseline.
func (cs *ChangeSet) checkBaseline(column string, ch *change, live any) {
	if cs.blind {
		return
	}
	if ch.op.Kind == OpIncrement || ch.op.Kind == OpDecrement {
		return
	}
	if cqltypes.Equal(ch.prior, live) {
		delete(cs.changes, column)
	}
}

// Changed reports whether any column has a pending operation.
func (cs *ChangeSet) Changed() bool { return len(cs.changes) > 0 }

// Columns returns the columns with pending operations.
func (cs *ChangeSet) Columns() []string {
	out := make([]string, 0, len(cs.changes))
	for name := range cs.changes {
		out = append(out, name)
	}
	return out
}

// Assignments returns the column→operation mapping the query builder
// consumes. Prior values never leave the ledger, and key columns
// tracked in blind mode are excluded (they belong in the predicate).
func (cs *ChangeSet) Assignments() map[string]*Operation {
	out := make(map[string]*Operation, len(cs.changes))
	for name, ch := range cs.changes {
		if ch.keyCol {
			continue
		}
		out[name] = ch.op
	}
	return out
}

// Archive moves the live change-set into the previous-changes record
// and clears it, after a successful save.
func (cs *ChangeSet) Archive() {
	cs.previous = make(map[string]*Operation, len(cs.changes))
	for name, ch := range cs.changes {
		cs.previous[name] = ch.op
	}
	cs.changes = map[string]*change{}
	cs.exists = true
}

// Previous returns the operations archived by the last save.
func (cs *ChangeSet) Previous() map[string]*Operation { return cs.previous }
