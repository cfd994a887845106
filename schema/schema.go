// Package schema holds the declared table metadata the mapping core
// reads: column names and types, key structure, and the user-defined
// type registry.
package schema

import (
	"fmt"
	"sort"

	"github.com/casmap/casmap/cqltypes"
)

// Table is a declared column-family schema. Columns map names to raw
// CQL type strings; PartitionKeys and ClusteringKeys name the key
// structure in declared order.
type Table struct {
	Keyspace       string
	Name           string
	Columns        map[string]string
	PartitionKeys  []string
	ClusteringKeys []string
}

// ColumnNames returns the declared column names, sorted.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsColumn reports whether name is a declared column.
func (t *Table) IsColumn(name string) bool {
	_, ok := t.Columns[name]
	return ok
}

// ColumnType returns the raw declared type string for a column, or ""
// when the column is unknown.
func (t *Table) ColumnType(name string) string {
	return t.Columns[name]
}

// BaseColumnType returns the column's innermost keyword with frozen
// wrappers stripped, or "" when the column is unknown or its type does
// not parse.
func (t *Table) BaseColumnType(name string) string {
	raw, ok := t.Columns[name]
	if !ok {
		return ""
	}
	base, err := cqltypes.BaseType(raw)
	if err != nil {
		return ""
	}
	return base
}

// IsKeyColumn reports whether name is part of the partition or
// clustering key.
func (t *Table) IsKeyColumn(name string) bool {
	for _, k := range t.PartitionKeys {
		if k == name {
			return true
		}
	}
	for _, k := range t.ClusteringKeys {
		if k == name {
			return true
		}
	}
	return false
}

// KeyColumns returns partition keys followed by clustering keys.
func (t *Table) KeyColumns() []string {
	out := make([]string, 0, len(t.PartitionKeys)+len(t.ClusteringKeys))
	out = append(out, t.PartitionKeys...)
	out = append(out, t.ClusteringKeys...)
	return out
}

// Validate checks every declared column type against the type system
// and the registry, and that every key column is declared.
func (t *Table) Validate(reg cqltypes.Registry) error {
	if t.Keyspace == "" || t.Name == "" {
		return fmt.Errorf("schema %q.%q: keyspace and table name are required", t.Keyspace, t.Name)
	}
	if len(t.PartitionKeys) == 0 {
		return fmt.Errorf("schema %q.%q: at least one partition key is required", t.Keyspace, t.Name)
	}
	for _, name := range t.ColumnNames() {
		d, err := cqltypes.Parse(t.Columns[name])
		if err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
		if !cqltypes.IsValidType(d, reg) {
			return fmt.Errorf("column %q: %w: %q", name, cqltypes.ErrUnknownType, t.Columns[name])
		}
	}
	for _, k := range t.KeyColumns() {
		if !t.IsColumn(k) {
			return fmt.Errorf("key column %q is not declared", k)
		}
	}
	return nil
}
