package cqltypes

import (
	"math"
	"math/big"
	"net"
	"reflect"
	"strconv"
	"strings"

	"github.com/gocql/gocql"
	inf "gopkg.in/inf.v0"
)

// CoerceNative converts store-native wrapper types coming back from the
// driver (UUIDs, inet addresses, arbitrary-precision integers and
// decimals) into plain Go scalars, recursing through slices and maps.
// Values with no wrapper pass through unchanged.
func CoerceNative(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case gocql.UUID:
		return v.String()
	case *big.Int:
		if v.IsInt64() {
			return v.Int64()
		}
		return v.String()
	case *inf.Dec:
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return v.String()
		}
		return f
	case net.IP:
		return v.String()
	case []byte:
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = CoerceNative(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = CoerceNative(e)
		}
		return out
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = CoerceNative(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, ok := iter.Key().Interface().(string)
			if !ok {
				return value
			}
			out[key] = CoerceNative(iter.Value().Interface())
		}
		return out
	}
	return value
}

// Format produces the store-native encoding of value for the given
// type: unwraps frozen layers, formats collection elements, converts
// tuples to ordered positional form and formats user-defined values
// field by field. Inverse of CoerceNative.
func Format(d *TypeDescriptor, value any, reg Registry) any {
	value = NormalizeEmpty(value)
	if value == nil {
		return nil
	}

	// Arity-invalid descriptors pass the value through untouched
	// rather than panicking on a missing parameter.
	switch d.Keyword {
	case KeywordFrozen:
		if len(d.Params) != 1 {
			return value
		}
		return Format(d.Params[0], value, reg)

	case KeywordList, KeywordSet:
		if len(d.Params) != 1 {
			return value
		}
		rv := reflect.ValueOf(value)
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Format(d.Params[0], rv.Index(i).Interface(), reg)
		}
		return out

	case KeywordMap:
		if len(d.Params) != 2 {
			return value
		}
		rv := reflect.ValueOf(value)
		out := make(map[any]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := Format(d.Params[0], iter.Key().Interface(), reg)
			out[k] = Format(d.Params[1], iter.Value().Interface(), reg)
		}
		return out

	case KeywordTuple:
		if len(d.Params) == 0 {
			return value
		}
		rv := reflect.ValueOf(value)
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			p := d.Params[len(d.Params)-1]
			if i < len(d.Params) {
				p = d.Params[i]
			}
			out[i] = Format(p, rv.Index(i).Interface(), reg)
		}
		return out
	}

	if IsNumeric(d.Keyword) {
		if s, ok := value.(string); ok {
			return CoerceNumericString(d.Keyword, s)
		}
		return value
	}

	if IsPrimitive(d.Keyword) {
		return value
	}

	// User-defined type.
	if reg == nil {
		return value
	}
	fields, ok := reg.Resolve(d.Keyword)
	if !ok {
		return value
	}
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}
	out := make(map[string]any, len(m))
	for name, typeString := range fields {
		fd, err := Parse(typeString)
		if err != nil {
			out[name] = m[name]
			continue
		}
		out[name] = Format(fd, m[name], reg)
	}
	return out
}

// CoerceNumericString strips non-numeric characters from s and parses
// the remainder for a column whose base type is keyword. An
// unparseable remainder yields nil, never an error.
func CoerceNumericString(keyword, s string) any {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '-', r == '+', r == '.':
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return nil
	}
	switch keyword {
	case "float", "double", "decimal":
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		return f
	default:
		n, err := strconv.ParseInt(cleaned, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(cleaned, 64)
			if ferr != nil {
				return nil
			}
			return int64(math.Trunc(f))
		}
		return n
	}
}

// NormalizeEmpty maps empty collections to nil. An empty collection is
// equivalent to no value at the column level, which matters for
// change-detection equality.
func NormalizeEmpty(value any) any {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		if rv.Len() == 0 {
			return nil
		}
	}
	return value
}

// Equal is the deep value equality used by change tracking: empty
// collections compare equal to nil, everything else by deep equality.
func Equal(a, b any) bool {
	a = NormalizeEmpty(a)
	b = NormalizeEmpty(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}
