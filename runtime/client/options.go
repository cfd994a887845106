package client

import "github.com/gocql/gocql"

// Options are per-execution overrides passed through to the driver.
// Paging and retry policy are deliberately not part of this layer.
type Options struct {
	Consistency *gocql.Consistency
	Idempotent  bool
}
