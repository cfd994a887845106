// Package cqltypes parses and validates CQL column types and converts
// values between native Go representations and store-native ones.
package cqltypes

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// TypeDescriptor is the parse tree of a CQL type string. Parameters are
// ordered: list/set/frozen carry one, map carries two (key, value) and
// tuple carries one per position.
type TypeDescriptor struct {
	Keyword string
	Params  []*TypeDescriptor
}

// rawType is the raw parse tree structure that matches the grammar.
// This is converted to TypeDescriptor after parsing.
type rawType struct {
	Keyword string     `@Ident`
	Params  []*rawType `( "<" @@ ( "," @@ )* ">" )?`
}

var typeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "LAngle", Pattern: `<`},
	{Name: "RAngle", Pattern: `>`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// typeParser is the Participle parser instance.
var typeParser = participle.MustBuild[rawType](
	participle.Lexer(typeLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a CQL type string such as "map<text, frozen<list<int>>>"
// into a TypeDescriptor. Unbalanced nesting, stray separators and empty
// input all report ErrMalformedType.
func Parse(typeString string) (*TypeDescriptor, error) {
	raw, err := typeParser.ParseString("", typeString)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedType, typeString, err)
	}
	return convertRawType(raw), nil
}

// MustParse parses a type string, panicking on error. Intended for
// statically known type literals in tests and table definitions.
func MustParse(typeString string) *TypeDescriptor {
	d, err := Parse(typeString)
	if err != nil {
		panic(err)
	}
	return d
}

func convertRawType(raw *rawType) *TypeDescriptor {
	d := &TypeDescriptor{Keyword: strings.ToLower(raw.Keyword)}
	for _, p := range raw.Params {
		d.Params = append(d.Params, convertRawType(p))
	}
	return d
}

// String re-serializes the descriptor to its canonical type string:
// lowercase keywords, no whitespace.
func (t *TypeDescriptor) String() string {
	if len(t.Params) == 0 {
		return t.Keyword
	}
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return t.Keyword + "<" + strings.Join(parts, ",") + ">"
}

// BaseType unwraps any number of leading frozen<...> layers and returns
// the innermost keyword. The result decides which elementary update
// operations are legal for a column of this type.
func BaseType(typeString string) (string, error) {
	d, err := Parse(typeString)
	if err != nil {
		return "", err
	}
	for d.Keyword == KeywordFrozen && len(d.Params) == 1 {
		d = d.Params[0]
	}
	return d.Keyword, nil
}
