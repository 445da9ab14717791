// Package cloudstore defines the contract the sync engine consumes against
// the shared multi-tenant document database, plus its Firestore
// implementation. The engine never talks to Firestore types directly, which
// keeps the reconciliation logic testable against an in-memory fake.
package cloudstore

import (
	"context"
	"errors"
)

// ErrOffline is returned by implementations when no connectivity is
// available. Callers treat it as a silent no-op, never as a failure:
// reconciliation resumes transparently on the next attempt.
var ErrOffline = errors.New("cloudstore: sin conexion")

// Doc is one document's fields. Values are plain JSON-serializable types;
// dates travel as ISO-8601 strings, never native timestamps.
type Doc map[string]any

// Snapshot pairs a document with its key.
type Snapshot struct {
	ID   string
	Data Doc
}

// Direction orders a Query.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Store is the cloud database as consumed by the sync engine.
type Store interface {
	// Online reports current connectivity. When false, every other method
	// returns ErrOffline without touching the network.
	Online() bool

	// SetMergeAll upserts a batch of documents keyed by id, atomically:
	// either every document commits or none does. Each write is a
	// field-level merge — a partial local record can never erase
	// cloud-only fields.
	SetMergeAll(ctx context.Context, collection string, docs map[string]Doc) error

	// GetAll fetches an entire collection, keyed by document id.
	GetAll(ctx context.Context, collection string) (map[string]Doc, error)

	// Query runs a single-field range scan with optional ordering and limit.
	// op uses Firestore comparator syntax: "==", "<", "<=", ">", ">=".
	Query(ctx context.Context, collection, field, op string, value any, orderBy string, dir Direction, limit int) ([]Snapshot, error)
}
