// Package store wraps the Neo4j driver behind the run(query, parameters)
// contract the bridge components consume. The driver handle is opened and
// closed by the hosting process and injected into each component; nothing
// here keeps module-level state. Sessions are scoped to a single bind or
// write call and released on every exit path.
package store

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "github.com/kimsanghoon1/eventstorming-sub001/pkg/errors"
)

// Querier issues one declarative statement and collects the result.
type Querier interface {
	Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
}

// Session is a store session scoped to a single bridge call.
type Session interface {
	Querier
	// WriteTx runs fn inside one managed transaction: every statement fn
	// issues commits or rolls back together.
	WriteTx(ctx context.Context, fn func(q Querier) error) error
	Close(ctx context.Context) error
}

// SessionSource opens per-call sessions. The bridge components depend on
// this interface so tests can substitute a fake store.
type SessionSource interface {
	ReadSession(ctx context.Context) Session
	WriteSession(ctx context.Context) Session
}

// Client owns the Neo4j driver connection for the process.
type Client struct {
	driver neo4j.DriverWithContext
	uri    string
}

// Open creates a driver for the given bolt URI. The connection is not
// verified here; call VerifyConnectivity before relying on it.
func Open(uri, user, password string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, apperrors.NewConnectivity(uri, err)
	}
	return &Client{driver: driver, uri: uri}, nil
}

// VerifyConnectivity checks the store is reachable.
func (c *Client) VerifyConnectivity(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return apperrors.NewConnectivity(c.uri, err)
	}
	return nil
}

// Close releases the driver and its connection pool.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// ReadSession opens a read-mode session.
func (c *Client) ReadSession(ctx context.Context) Session {
	return &boltSession{
		sess: c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead}),
		uri:  c.uri,
	}
}

// WriteSession opens a write-mode session.
func (c *Client) WriteSession(ctx context.Context) Session {
	return &boltSession{
		sess: c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite}),
		uri:  c.uri,
	}
}

type boltSession struct {
	sess neo4j.SessionWithContext
	uri  string
}

func (s *boltSession) Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := s.sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, s.classify(err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, s.classify(err)
	}
	return records, nil
}

func (s *boltSession) WriteTx(ctx context.Context, fn func(q Querier) error) error {
	_, err := s.sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(&txQuerier{tx: tx, session: s})
	})
	if err != nil {
		return s.classify(err)
	}
	return nil
}

func (s *boltSession) Close(ctx context.Context) error {
	return s.sess.Close(ctx)
}

func (s *boltSession) classify(err error) error {
	if err == nil {
		return nil
	}
	if apperrors.Classified(err) {
		// Already classified inside the transaction function.
		return err
	}
	if neo4j.IsConnectivityError(err) {
		return apperrors.NewConnectivity(s.uri, err)
	}
	return apperrors.NewQuery("statement failed", err)
}

type txQuerier struct {
	tx      neo4j.ManagedTransaction
	session *boltSession
}

func (q *txQuerier) Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := q.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, q.session.classify(err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, q.session.classify(err)
	}
	return records, nil
}
