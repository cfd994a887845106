package cqltypes

import (
	"net"
	"reflect"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// IsValidValue reports whether value matches the descriptor's type. A
// nil value (including an empty collection, which is equivalent to nil
// at the column level) is always acceptable; absence is not a type
// error at this layer.
func IsValidValue(d *TypeDescriptor, value any, reg Registry) bool {
	value = NormalizeEmpty(value)
	if value == nil {
		return true
	}

	// Arity-invalid descriptors (a bare frozen, a one-parameter map)
	// can reach here when a schema skipped Validate; no value matches
	// them.
	switch d.Keyword {
	case KeywordFrozen:
		if len(d.Params) != 1 {
			return false
		}
		return IsValidValue(d.Params[0], value, reg)

	case KeywordList, KeywordSet:
		if len(d.Params) != 1 {
			return false
		}
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			if !IsValidValue(d.Params[0], rv.Index(i).Interface(), reg) {
				return false
			}
		}
		return true

	case KeywordMap:
		if len(d.Params) != 2 {
			return false
		}
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Map {
			return false
		}
		iter := rv.MapRange()
		for iter.Next() {
			if !IsValidValue(d.Params[0], iter.Key().Interface(), reg) {
				return false
			}
			if !IsValidValue(d.Params[1], iter.Value().Interface(), reg) {
				return false
			}
		}
		return true

	case KeywordTuple:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return false
		}
		if rv.Len() != len(d.Params) {
			return false
		}
		for i, p := range d.Params {
			if !IsValidValue(p, rv.Index(i).Interface(), reg) {
				return false
			}
		}
		return true
	}

	if IsPrimitive(d.Keyword) {
		return isValidPrimitive(d.Keyword, value)
	}

	// User-defined type: every declared field must be present and valid.
	if reg == nil {
		return false
	}
	fields, ok := reg.Resolve(d.Keyword)
	if !ok {
		return false
	}
	m, ok := value.(map[string]any)
	if !ok {
		return false
	}
	for name, typeString := range fields {
		fd, err := Parse(typeString)
		if err != nil {
			return false
		}
		fv, present := m[name]
		if !present {
			return false
		}
		if !IsValidValue(fd, fv, reg) {
			return false
		}
	}
	return true
}

// IsValidValueType parses the type string and validates value against
// it; the form schema validation consumes at definition time.
func IsValidValueType(typeString string, value any, reg Registry) bool {
	d, err := Parse(typeString)
	if err != nil {
		return false
	}
	if !IsValidType(d, reg) {
		return false
	}
	return IsValidValue(d, value, reg)
}

func isValidPrimitive(keyword string, value any) bool {
	switch keyword {
	case "ascii", "text", "varchar":
		_, ok := value.(string)
		return ok

	case "boolean":
		_, ok := value.(bool)
		return ok

	case "int", "bigint", "smallint", "tinyint", "varint", "counter":
		return isIntegerValue(value)

	case "float", "double", "decimal":
		if isIntegerValue(value) {
			return true
		}
		switch value.(type) {
		case float32, float64:
			return true
		}
		return false

	case "uuid", "timeuuid":
		switch v := value.(type) {
		case string:
			_, err := uuid.Parse(v)
			return err == nil
		case gocql.UUID, uuid.UUID, [16]byte:
			return true
		}
		return false

	case "inet":
		switch v := value.(type) {
		case string:
			return net.ParseIP(v) != nil
		case net.IP:
			return true
		}
		return false

	case "timestamp", "date", "time":
		switch v := value.(type) {
		case time.Time:
			return true
		case string:
			if _, err := time.Parse(time.RFC3339, v); err == nil {
				return true
			}
			_, err := time.Parse("2006-01-02", v)
			return err == nil
		default:
			return isIntegerValue(v)
		}

	case "blob":
		switch value.(type) {
		case []byte, string:
			return true
		}
		return false
	}
	return false
}

func isIntegerValue(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}
