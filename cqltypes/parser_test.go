package cqltypes

import (
	"errors"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"text", "text"},
		{"TEXT", "text"},
		{"list<text>", "list<text>"},
		{"set<uuid>", "set<uuid>"},
		{"map<text, int>", "map<text,int>"},
		{"tuple<int, text, uuid>", "tuple<int,text,uuid>"},
		{"frozen<list<int>>", "frozen<list<int>>"},
		{"map<text, frozen<map<text, frozen<list<int>>>>>", "map<text,frozen<map<text,frozen<list<int>>>>>"},
		{"address", "address"},
	}
	for _, tc := range cases {
		d, err := Parse(tc.input)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tc.input, err)
		}
		if got := d.String(); got != tc.want {
			t.Errorf("Parse(%q).String() = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []string{
		"",
		"list<text",
		"list<>",
		"map<text,>",
		"<text>",
		"map<text,int>>",
		"list<text>,int",
	}
	for _, input := range cases {
		if _, err := Parse(input); !errors.Is(err, ErrMalformedType) {
			t.Errorf("Parse(%q) = %v, want ErrMalformedType", input, err)
		}
	}
}

func TestParseStructure(t *testing.T) {
	d, err := Parse("map<text, frozen<list<int>>>")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if d.Keyword != "map" || len(d.Params) != 2 {
		t.Fatalf("unexpected root: %+v", d)
	}
	if d.Params[0].Keyword != "text" {
		t.Errorf("key type = %q, want text", d.Params[0].Keyword)
	}
	val := d.Params[1]
	if val.Keyword != "frozen" || len(val.Params) != 1 {
		t.Fatalf("unexpected value type: %+v", val)
	}
	if val.Params[0].Keyword != "list" || val.Params[0].Params[0].Keyword != "int" {
		t.Errorf("unexpected inner list: %+v", val.Params[0])
	}
}

func TestBaseType(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"int", "int"},
		{"list<text>", "list"},
		{"frozen<list<text>>", "list"},
		{"frozen<frozen<set<int>>>", "set"},
		{"frozen<address>", "address"},
	}
	for _, tc := range cases {
		got, err := BaseType(tc.input)
		if err != nil {
			t.Fatalf("BaseType(%q) failed: %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("BaseType(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}

	if _, err := BaseType("frozen<"); !errors.Is(err, ErrMalformedType) {
		t.Errorf("BaseType on malformed input = %v, want ErrMalformedType", err)
	}
}
