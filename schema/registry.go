package schema

// Registry is an in-memory user-defined type registry: type name to
// field-name→type-string mapping. Implements cqltypes.Registry.
type Registry struct {
	types map[string]map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: map[string]map[string]string{}}
}

// Register declares a user-defined type. A later registration under
// the same name replaces the earlier one.
func (r *Registry) Register(name string, fields map[string]string) {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.types[name] = copied
}

// Resolve returns the field mapping for name, or false when the name
// is not registered.
func (r *Registry) Resolve(name string) (map[string]string, bool) {
	fields, ok := r.types[name]
	return fields, ok
}
