// Package client provides the gocql-backed executor the query builder
// hands compiled statements to.
package client

import (
	"context"

	"github.com/gocql/gocql"

	"github.com/casmap/casmap/config"
	"github.com/casmap/casmap/cqltypes"
	"github.com/casmap/casmap/internal/debug"
	"github.com/casmap/casmap/query/cqlgen"
)

// Row is one result row with values coerced to plain Go types.
type Row = map[string]any

// Client wraps a gocql session. It implements builder.Executor.
type Client struct {
	session *gocql.Session
}

// Connect creates a session from the configuration.
func Connect(cfg *config.Config) (*Client, error) {
	cluster, err := cfg.Cluster()
	if err != nil {
		return nil, err
	}
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}
	debug.Debug("session established", "keyspace", cfg.Keyspace)
	return &Client{session: session}, nil
}

// NewFromSession wraps an existing session; the caller keeps ownership
// of its lifecycle.
func NewFromSession(session *gocql.Session) *Client {
	return &Client{session: session}
}

// Execute runs a compiled statement and returns its rows. Store
// failures are wrapped in ExecutionError and otherwise unaltered; no
// retries happen at this layer.
func (c *Client) Execute(ctx context.Context, q *cqlgen.Query) ([]Row, error) {
	return c.ExecuteWithOptions(ctx, q, Options{})
}

// ExecuteWithOptions runs a compiled statement with per-execution
// options applied.
func (c *Client) ExecuteWithOptions(ctx context.Context, q *cqlgen.Query, opts Options) ([]Row, error) {
	query := c.session.Query(q.CQL, q.Args...).WithContext(ctx)
	if opts.Consistency != nil {
		query = query.Consistency(*opts.Consistency)
	}
	if opts.Idempotent {
		query = query.Idempotent(true)
	}

	iter := query.Iter()
	var rows []Row
	for {
		row := map[string]any{}
		if !iter.MapScan(row) {
			break
		}
		for k, v := range row {
			row[k] = cqltypes.CoerceNative(v)
		}
		rows = append(rows, row)
	}
	if err := iter.Close(); err != nil {
		return nil, &ExecutionError{CQL: q.CQL, Err: err}
	}
	return rows, nil
}

// Close shuts the session down.
func (c *Client) Close() {
	c.session.Close()
}
