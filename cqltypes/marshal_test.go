package cqltypes

import (
	"errors"
	"testing"
)

func TestMarshalID(t *testing.T) {
	cases := []struct {
		typeString    string
		excludeFrozen bool
		want          string
	}{
		{"text", false, "org.apache.cassandra.db.marshal.UTF8Type"},
		{"varchar", false, "org.apache.cassandra.db.marshal.UTF8Type"},
		{"int", false, "org.apache.cassandra.db.marshal.Int32Type"},
		{"bigint", false, "org.apache.cassandra.db.marshal.LongType"},
		{"list<int>", false,
			"org.apache.cassandra.db.marshal.ListType(org.apache.cassandra.db.marshal.Int32Type)"},
		{"map<text,uuid>", false,
			"org.apache.cassandra.db.marshal.MapType(org.apache.cassandra.db.marshal.UTF8Type,org.apache.cassandra.db.marshal.UUIDType)"},
		{"tuple<int,text>", false,
			"org.apache.cassandra.db.marshal.TupleType(org.apache.cassandra.db.marshal.Int32Type,org.apache.cassandra.db.marshal.UTF8Type)"},
		{"frozen<list<int>>", true,
			"org.apache.cassandra.db.marshal.ListType(org.apache.cassandra.db.marshal.Int32Type)"},
		{"frozen<list<int>>", false,
			"org.apache.cassandra.db.marshal.FrozenType(org.apache.cassandra.db.marshal.ListType(org.apache.cassandra.db.marshal.Int32Type))"},
	}
	for _, tc := range cases {
		d := MustParse(tc.typeString)
		got, err := MarshalID(d, tc.excludeFrozen, nil)
		if err != nil {
			t.Fatalf("MarshalID(%q) failed: %v", tc.typeString, err)
		}
		if got != tc.want {
			t.Errorf("MarshalID(%q, exclude=%v) = %q, want %q", tc.typeString, tc.excludeFrozen, got, tc.want)
		}
	}
}

func TestMarshalIDUnknown(t *testing.T) {
	if _, err := MarshalID(MustParse("mystery"), false, nil); !errors.Is(err, ErrUnknownType) {
		t.Errorf("MarshalID on unknown type = %v, want ErrUnknownType", err)
	}

	reg := fakeRegistry{"mystery": {"f": "text"}}
	got, err := MarshalID(MustParse("mystery"), false, reg)
	if err != nil {
		t.Fatalf("MarshalID with registry failed: %v", err)
	}
	if got != "org.apache.cassandra.db.marshal.UserType(mystery)" {
		t.Errorf("MarshalID for UDT = %q", got)
	}
}
