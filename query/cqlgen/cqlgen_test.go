package cqlgen

import (
	"reflect"
	"strings"
	"testing"
)

var src = Source{Keyspace: "app", Table: "users"}

func checkPlaceholders(t *testing.T, q *Query) {
	t.Helper()
	if got := strings.Count(q.CQL, "?"); got != len(q.Args) {
		t.Errorf("placeholder/arg mismatch: %d placeholders, %d args in %q", got, len(q.Args), q.CQL)
	}
}

func TestGenerateSelect(t *testing.T) {
	where := NewWhereClause()
	where.Add(Condition{Column: "age", Operator: ">=", Value: 21})
	where.Add(Condition{Column: "age", Operator: "<", Value: 65})
	limit := 10

	q := GenerateSelect(src, []string{"name", "age"}, false, where,
		[]OrderBy{{Column: "age", Direction: "desc"}}, &limit, true)

	want := `SELECT "name", "age" FROM "app"."users" WHERE "age" >= ? AND "age" < ? ORDER BY "age" DESC LIMIT ? ALLOW FILTERING`
	if q.CQL != want {
		t.Errorf("CQL = %q, want %q", q.CQL, want)
	}
	if !reflect.DeepEqual(q.Args, []any{21, 65, 10}) {
		t.Errorf("args = %v", q.Args)
	}
	checkPlaceholders(t, q)
}

func TestGenerateSelectDefaults(t *testing.T) {
	q := GenerateSelect(src, nil, false, nil, nil, nil, false)
	if q.CQL != `SELECT * FROM "app"."users"` {
		t.Errorf("CQL = %q", q.CQL)
	}
	if len(q.Args) != 0 {
		t.Errorf("args = %v, want none", q.Args)
	}
}

func TestGenerateSelectCount(t *testing.T) {
	q := GenerateSelect(src, nil, true, nil, nil, nil, false)
	if q.CQL != `SELECT COUNT(*) FROM "app"."users"` {
		t.Errorf("CQL = %q", q.CQL)
	}
}

func TestGenerateInsert(t *testing.T) {
	ttl := 60
	q := GenerateInsert(src, []string{"id", "name"}, []any{"1", "n"}, true, &Timing{TTL: &ttl})

	want := `INSERT INTO "app"."users" ( "id", "name" ) VALUES ( ?, ? ) IF NOT EXISTS USING TTL ?`
	if q.CQL != want {
		t.Errorf("CQL = %q, want %q", q.CQL, want)
	}
	if !reflect.DeepEqual(q.Args, []any{"1", "n", 60}) {
		t.Errorf("args = %v", q.Args)
	}
	checkPlaceholders(t, q)
}

func TestGenerateUpdate(t *testing.T) {
	ttl := 30
	ts := int64(1000)
	where := NewWhereClause()
	where.Add(Condition{Column: "id", Operator: "=", Value: "1"})
	conds := NewWhereClause()
	conds.Add(Condition{Column: "name", Operator: "=", Value: "old"})

	assignments := []Assignment{
		{Column: "name", Op: AssignReplace, Value: "new"},
		{Column: "tags", Op: AssignAppend, Value: []any{"c"}},
	}

	q := GenerateUpdate(src, &Timing{TTL: &ttl, Timestamp: &ts}, assignments, where, conds, true)

	want := `UPDATE "app"."users" USING TTL ? AND TIMESTAMP ? SET "name" = ?, "tags" = "tags" + ? WHERE "id" = ? IF "name" = ? IF EXISTS`
	if q.CQL != want {
		t.Errorf("CQL = %q, want %q", q.CQL, want)
	}
	wantArgs := []any{30, int64(1000), "new", []any{"c"}, "1", "old"}
	if !reflect.DeepEqual(q.Args, wantArgs) {
		t.Errorf("args = %v, want %v", q.Args, wantArgs)
	}
	checkPlaceholders(t, q)
}

func TestAssignmentFragments(t *testing.T) {
	cases := []struct {
		assignment Assignment
		wantText   string
		wantArgs   []any
	}{
		{Assignment{Column: "tags", Op: AssignPrepend, Value: []any{"a"}},
			`"tags" = ? + "tags"`, []any{[]any{"a"}}},
		{Assignment{Column: "tags", Op: AssignRemove, Value: []any{"a"}},
			`"tags" = "tags" - ?`, []any{[]any{"a"}}},
		{Assignment{Column: "count", Op: AssignCounter, Delta: 3},
			`"count" = "count" + ?`, []any{int64(3)}},
		{Assignment{Column: "count", Op: AssignCounter, Delta: -3},
			`"count" = "count" - ?`, []any{int64(3)}},
		{Assignment{Column: "attrs", Op: AssignElement, Key: "k", Value: "v"},
			`"attrs"[?] = ?`, []any{"k", "v"}},
	}
	for _, tc := range cases {
		text, args := buildAssignments([]Assignment{tc.assignment})
		if text != tc.wantText {
			t.Errorf("fragment = %q, want %q", text, tc.wantText)
		}
		if !reflect.DeepEqual(args, tc.wantArgs) {
			t.Errorf("args = %v, want %v", args, tc.wantArgs)
		}
	}
}

func TestGenerateDelete(t *testing.T) {
	where := NewWhereClause()
	where.Add(Condition{Column: "id", Operator: "=", Value: "1"})

	q := GenerateDelete(src, []string{"name"}, nil, where, nil, true)
	want := `DELETE "name" FROM "app"."users" WHERE "id" = ? IF EXISTS`
	if q.CQL != want {
		t.Errorf("CQL = %q, want %q", q.CQL, want)
	}
	checkPlaceholders(t, q)

	q = GenerateDelete(src, nil, nil, where, nil, false)
	if q.CQL != `DELETE FROM "app"."users" WHERE "id" = ?` {
		t.Errorf("CQL = %q", q.CQL)
	}
}

func TestGenerateTruncate(t *testing.T) {
	q := GenerateTruncate(src)
	if q.CQL != `TRUNCATE "app"."users"` {
		t.Errorf("CQL = %q", q.CQL)
	}
	if len(q.Args) != 0 {
		t.Errorf("args = %v", q.Args)
	}
}

func TestQuoteIdentifierDoublesQuotes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"users", `"users"`},
		{`we"ird`, `"we""ird"`},
		{`""`, `""""""`},
	}
	for _, tc := range cases {
		if got := quoteIdentifier(tc.in); got != tc.want {
			t.Errorf("quoteIdentifier(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestInClauseSingleArg(t *testing.T) {
	where := NewWhereClause()
	where.Add(Condition{Column: "id", Operator: "IN", Value: []any{"1", "2"}})
	q := GenerateSelect(src, nil, false, where, nil, nil, false)
	if q.CQL != `SELECT * FROM "app"."users" WHERE "id" IN ?` {
		t.Errorf("CQL = %q", q.CQL)
	}
	if len(q.Args) != 1 {
		t.Errorf("IN binds the whole list as one arg, got %v", q.Args)
	}
}
