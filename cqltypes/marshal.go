package cqltypes

import (
	"fmt"
	"strings"
)

const marshalPrefix = "org.apache.cassandra.db.marshal."

var primitiveMarshal = map[string]string{
	"ascii":     "AsciiType",
	"bigint":    "LongType",
	"blob":      "BytesType",
	"boolean":   "BooleanType",
	"counter":   "CounterColumnType",
	"date":      "SimpleDateType",
	"decimal":   "DecimalType",
	"double":    "DoubleType",
	"float":     "FloatType",
	"inet":      "InetAddressType",
	"int":       "Int32Type",
	"smallint":  "ShortType",
	"text":      "UTF8Type",
	"time":      "TimeType",
	"timestamp": "TimestampType",
	"timeuuid":  "TimeUUIDType",
	"tinyint":   "ByteType",
	"uuid":      "UUIDType",
	"varchar":   "UTF8Type",
	"varint":    "IntegerType",
}

// MarshalID produces the store's fully-qualified marshal class
// identifier for a type, recursively substituting nested identifiers.
// With excludeFrozen set, frozen wrappers are skipped instead of being
// rendered as a FrozenType layer; the on-disk comparator for a frozen
// collection is the collection's own type.
func MarshalID(d *TypeDescriptor, excludeFrozen bool, reg Registry) (string, error) {
	switch d.Keyword {
	case KeywordFrozen:
		inner, err := MarshalID(d.Params[0], excludeFrozen, reg)
		if err != nil {
			return "", err
		}
		if excludeFrozen {
			return inner, nil
		}
		return marshalPrefix + "FrozenType(" + inner + ")", nil

	case KeywordList:
		inner, err := MarshalID(d.Params[0], excludeFrozen, reg)
		if err != nil {
			return "", err
		}
		return marshalPrefix + "ListType(" + inner + ")", nil

	case KeywordSet:
		inner, err := MarshalID(d.Params[0], excludeFrozen, reg)
		if err != nil {
			return "", err
		}
		return marshalPrefix + "SetType(" + inner + ")", nil

	case KeywordMap:
		key, err := MarshalID(d.Params[0], excludeFrozen, reg)
		if err != nil {
			return "", err
		}
		val, err := MarshalID(d.Params[1], excludeFrozen, reg)
		if err != nil {
			return "", err
		}
		return marshalPrefix + "MapType(" + key + "," + val + ")", nil

	case KeywordTuple:
		parts := make([]string, len(d.Params))
		for i, p := range d.Params {
			inner, err := MarshalID(p, excludeFrozen, reg)
			if err != nil {
				return "", err
			}
			parts[i] = inner
		}
		return marshalPrefix + "TupleType(" + strings.Join(parts, ",") + ")", nil
	}

	if id, ok := primitiveMarshal[d.Keyword]; ok {
		return marshalPrefix + id, nil
	}
	if reg != nil {
		if _, ok := reg.Resolve(d.Keyword); ok {
			return marshalPrefix + "UserType(" + d.Keyword + ")", nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, d.Keyword)
}
