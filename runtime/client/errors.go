package client

// ExecutionError wraps whatever the store reported for a statement,
// without altering it.
type ExecutionError struct {
	CQL string
	Err error
}

func (e *ExecutionError) Error() string {
	if e.CQL == "" {
		return "statement execution failed: " + e.Err.Error()
	}
	return "statement execution failed: " + e.CQL + ": " + e.Err.Error()
}

func (e *ExecutionError) Unwrap() error { return e.Err }
