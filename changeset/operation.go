package changeset

// OpKind classifies a pending column operation.
type OpKind int

const (
	// OpReplace sends the whole value with a plain assignment.
	OpReplace OpKind = iota
	// OpIncrement / OpDecrement adjust a counter column by Delta.
	OpIncrement
	OpDecrement
	// OpAppend / OpPrepend extend a list (append also covers set adds).
	OpAppend
	OpPrepend
	// OpRemove discards elements from a list or set, or keys from a map.
	OpRemove
	// OpInject writes individual elements by key or index; a nil entry
	// value deletes the element.
	OpInject
)

func (k OpKind) String() string {
	switch k {
	case OpReplace:
		return "replace"
	case OpIncrement:
		return "increment"
	case OpDecrement:
		return "decrement"
	case OpAppend:
		return "append"
	case OpPrepend:
		return "prepend"
	case OpRemove:
		return "remove"
	case OpInject:
		return "inject"
	}
	return "unknown"
}

// Operation is the compacted representation of all pending mutations
// on one column since the last save.
type Operation struct {
	Kind    OpKind
	Value   any         // replace
	Delta   int64       // increment / decrement, always >= 0
	Values  []any       // append / prepend / remove
	Entries map[any]any // inject; nil value is an element tombstone
}

// mergeable reports whether two elementary kinds compact into one
// record. Increment and decrement are the same elementary kind; they
// sum algebraically.
func mergeable(a, b OpKind) bool {
	if a == b {
		return true
	}
	counter := func(k OpKind) bool { return k == OpIncrement || k == OpDecrement }
	return counter(a) && counter(b)
}

func (op *Operation) signedDelta() int64 {
	if op.Kind == OpDecrement {
		return -op.Delta
	}
	return op.Delta
}
