package cqltypes

// Composite type keywords.
const (
	KeywordList   = "list"
	KeywordSet    = "set"
	KeywordMap    = "map"
	KeywordTuple  = "tuple"
	KeywordFrozen = "frozen"
)

// KeywordCounter is the counter primitive; counters accept only
// increment and decrement operations.
const KeywordCounter = "counter"

var primitiveKeywords = map[string]struct{}{
	"ascii":     {},
	"bigint":    {},
	"blob":      {},
	"boolean":   {},
	"counter":   {},
	"date":      {},
	"decimal":   {},
	"double":    {},
	"float":     {},
	"inet":      {},
	"int":       {},
	"smallint":  {},
	"text":      {},
	"time":      {},
	"timestamp": {},
	"timeuuid":  {},
	"tinyint":   {},
	"uuid":      {},
	"varchar":   {},
	"varint":    {},
}

var numericKeywords = map[string]struct{}{
	"bigint":   {},
	"counter":  {},
	"decimal":  {},
	"double":   {},
	"float":    {},
	"int":      {},
	"smallint": {},
	"tinyint":  {},
	"varint":   {},
}

// IsPrimitive reports whether keyword names a CQL primitive type.
func IsPrimitive(keyword string) bool {
	_, ok := primitiveKeywords[keyword]
	return ok
}

// IsNumeric reports whether keyword names a numeric primitive.
func IsNumeric(keyword string) bool {
	_, ok := numericKeywords[keyword]
	return ok
}

// Registry resolves user-defined type names to their field name to
// type string mapping. Implemented by the schema package; consumed
// here so UDT values can be validated field by field.
type Registry interface {
	Resolve(name string) (map[string]string, bool)
}

// IsValidType reports whether the descriptor names a known type with
// the right parameter arity. Tuple arity is unconstrained, frozen and
// single-parameter collections take exactly one parameter, map takes
// two, primitives take none. Any other keyword must resolve in the
// registry and takes no parameters syntactically; its nested field
// types are carried by the registry entry.
func IsValidType(d *TypeDescriptor, reg Registry) bool {
	switch d.Keyword {
	case KeywordFrozen, KeywordList, KeywordSet:
		if len(d.Params) != 1 {
			return false
		}
	case KeywordMap:
		if len(d.Params) != 2 {
			return false
		}
	case KeywordTuple:
		if len(d.Params) == 0 {
			return false
		}
	default:
		if IsPrimitive(d.Keyword) {
			return len(d.Params) == 0
		}
		if reg == nil {
			return false
		}
		if _, ok := reg.Resolve(d.Keyword); !ok {
			return false
		}
		return len(d.Params) == 0
	}
	for _, p := range d.Params {
		if !IsValidType(p, reg) {
			return false
		}
	}
	return true
}
