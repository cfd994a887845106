package changeset

import (
	"errors"
	"reflect"
	"testing"

	"github.com/casmap/casmap/schema"
)

func usersTable() *schema.Table {
	return &schema.Table{
		Keyspace: "app",
		Name:     "users",
		Columns: map[string]string{
			"id":     "uuid",
			"name":   "text",
			"age":    "int",
			"tags":   "list<text>",
			"emails": "set<text>",
			"attrs":  "map<text,text>",
		},
		PartitionKeys: []string{"id"},
	}
}

func visitsTable() *schema.Table {
	return &schema.Table{
		Keyspace: "app",
		Name:     "visits",
		Columns: map[string]string{
			"id":    "uuid",
			"count": "counter",
		},
		PartitionKeys: []string{"id"},
	}
}

func TestAppendMerges(t *testing.T) {
	cs := New(usersTable(), Options{})

	if err := cs.Append("tags", nil, []any{"a"}, "a"); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := cs.Append("tags", nil, []any{"a", "b"}, "b"); err != nil {
		t.Fatalf("second append failed: %v", err)
	}

	ops := cs.Assignments()
	op, ok := ops["tags"]
	if !ok {
		t.Fatal("no pending operation for tags")
	}
	if op.Kind != OpAppend {
		t.Fatalf("kind = %s, want append", op.Kind)
	}
	if !reflect.DeepEqual(op.Values, []any{"a", "b"}) {
		t.Errorf("values = %v, want [a b]", op.Values)
	}
}

func TestAppendThenPrependDegrades(t *testing.T) {
	cs := New(usersTable(), Options{})

	if err := cs.Append("tags", nil, []any{"a"}, "a"); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	live := []any{"b", "a"}
	if err := cs.Prepend("tags", nil, live, "b"); err != nil {
		t.Fatalf("prepend failed: %v", err)
	}

	op := cs.Assignments()["tags"]
	if op.Kind != OpReplace {
		t.Fatalf("kind = %s, want replace", op.Kind)
	}
	if !reflect.DeepEqual(op.Value, live) {
		t.Errorf("replacement value = %v, want %v", op.Value, live)
	}
}

func TestInjectAfterAppendDegradesWholeColumn(t *testing.T) {
	cs := New(usersTable(), Options{})

	if err := cs.Append("tags", nil, []any{"a"}, "a"); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	live := []any{"x"}
	if err := cs.Inject("tags", nil, live, 0, "x"); err != nil {
		t.Fatalf("inject failed: %v", err)
	}

	if op := cs.Assignments()["tags"]; op.Kind != OpReplace {
		t.Errorf("kind = %s, want replace for the whole column", op.Kind)
	}
}

func TestValueReturnsToBaseline(t *testing.T) {
	cs := New(usersTable(), Options{})

	if err := cs.Set("name", "old", "new"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !cs.Changed() {
		t.Fatal("expected a pending change")
	}
	if err := cs.Set("name", "new", "old"); err != nil {
		t.Fatalf("second set failed: %v", err)
	}
	if cs.Changed() {
		t.Error("column back at baseline still reported changed")
	}
}

func TestEmptyCollectionEqualsBaseline(t *testing.T) {
	cs := New(usersTable(), Options{})

	if err := cs.Set("tags", nil, []any{"a"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cs.Set("tags", nil, []any{}); err != nil {
		t.Fatalf("second set failed: %v", err)
	}
	if cs.Changed() {
		t.Error("empty collection should equal the nil baseline")
	}
}

func TestCounterNetZero(t *testing.T) {
	cs := New(visitsTable(), Options{})

	if err := cs.IncrementBy("count", 3); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := cs.IncrementBy("count", -3); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if cs.Changed() {
		t.Error("net-zero counter adjustment still pending")
	}
}

func TestCounterSignFlip(t *testing.T) {
	cs := New(visitsTable(), Options{})

	if err := cs.IncrementBy("count", 3); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := cs.IncrementBy("count", -5); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}

	op := cs.Assignments()["count"]
	if op.Kind != OpDecrement || op.Delta != 2 {
		t.Errorf("got %s delta %d, want decrement delta 2", op.Kind, op.Delta)
	}
}

func TestCounterColumnLegality(t *testing.T) {
	cs := New(visitsTable(), Options{})
	if err := cs.Set("count", nil, 1); !errors.Is(err, ErrInvalidColumnType) {
		t.Errorf("set on counter column = %v, want ErrInvalidColumnType", err)
	}

	cs = New(usersTable(), Options{})
	if err := cs.IncrementBy("name", 1); !errors.Is(err, ErrInvalidColumnType) {
		t.Errorf("increment on text column = %v, want ErrInvalidColumnType", err)
	}
}

func TestBlindModeMergesAndConflicts(t *testing.T) {
	cs := New(usersTable(), Options{Blind: true})

	if err := cs.Append("emails", nil, nil, "x"); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := cs.Append("emails", nil, nil, "y"); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	op := cs.Assignments()["emails"]
	if op.Kind != OpAppend || !reflect.DeepEqual(op.Values, []any{"x", "y"}) {
		t.Fatalf("got %s %v, want append [x y]", op.Kind, op.Values)
	}

	if err := cs.Remove("emails", nil, nil, "x"); !errors.Is(err, ErrOperationConflict) {
		t.Errorf("different kind in blind mode = %v, want ErrOperationConflict", err)
	}
}

func TestKeyColumns(t *testing.T) {
	cs := New(usersTable(), Options{Exists: true})
	if err := cs.Set("id", nil, "1"); !errors.Is(err, ErrCannotSetKeyColumns) {
		t.Errorf("set key on existing record = %v, want ErrCannotSetKeyColumns", err)
	}

	// Blind mode accepts key columns but keeps them out of the
	// assignment list; they belong in the predicate.
	blind := New(usersTable(), Options{Blind: true})
	if err := blind.Set("id", nil, "1"); err != nil {
		t.Fatalf("set key in blind mode failed: %v", err)
	}
	if err := blind.Set("name", nil, "n"); err != nil {
		t.Fatalf("set name failed: %v", err)
	}
	ops := blind.Assignments()
	if _, ok := ops["id"]; ok {
		t.Error("key column leaked into assignments")
	}
	if _, ok := ops["name"]; !ok {
		t.Error("regular column missing from assignments")
	}
}

func TestUnknownColumn(t *testing.T) {
	cs := New(usersTable(), Options{})
	if err := cs.Set("nope", nil, 1); !errors.Is(err, ErrInvalidColumn) {
		t.Errorf("unknown column = %v, want ErrInvalidColumn", err)
	}
}

func TestPrependMergeOrder(t *testing.T) {
	cs := New(usersTable(), Options{Blind: true})
	if err := cs.Prepend("tags", nil, nil, "a"); err != nil {
		t.Fatalf("first prepend failed: %v", err)
	}
	if err := cs.Prepend("tags", nil, nil, "b"); err != nil {
		t.Fatalf("second prepend failed: %v", err)
	}
	op := cs.Assignments()["tags"]
	if !reflect.DeepEqual(op.Values, []any{"b", "a"}) {
		t.Errorf("prepend order = %v, want [b a]", op.Values)
	}
}

func TestArchive(t *testing.T) {
	cs := New(usersTable(), Options{})
	if err := cs.Set("name", nil, "n"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	cs.Archive()
	if cs.Changed() {
		t.Error("archive did not clear the live change-set")
	}
	if _, ok := cs.Previous()["name"]; !ok {
		t.Error("archived change missing from previous record")
	}
	// The record now exists; key columns are frozen.
	if err := cs.Set("id", nil, "1"); !errors.Is(err, ErrCannotSetKeyColumns) {
		t.Errorf("set key after archive = %v, want ErrCannotSetKeyColumns", err)
	}
}
