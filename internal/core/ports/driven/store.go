package driven

import (
	"context"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
)

// FragmentStore persists fragments, documents and their mapping, and
// executes the fused lexical+vector ranking query. Backed by an embedded
// SQLite database with a full-text index and a cosine vector index.
//
// The store handle itself may be shared across goroutines for reads.
// Concurrent writers must each check out their own WriteSession; the
// underlying connection is not safe for concurrent writes.
type FragmentStore interface {
	// Setup creates all tables and indexes if absent. Idempotent. The
	// full-text index is rebuilt tolerantly first and with overwrite as a
	// fallback. Fails with domain.ErrDimensionMismatch when existing rows
	// were written with a different dimension.
	Setup(ctx context.Context, dim int) error

	// Session checks a write connection out of the pool. The caller owns
	// it until Close and must not share it across goroutines.
	Session(ctx context.Context) (WriteSession, error)

	// PutDocument appends one documents row. Re-appending the same
	// (document_id, uri) pair is a no-op.
	PutDocument(ctx context.Context, doc domain.Document) error

	// DeleteDocument runs the three-step cascade (embeddings, mapping,
	// documents — in that order), compacts the vector index, checkpoints
	// the store and triggers an asynchronous full-text overwrite-rebuild.
	// Deleting a pair that does not exist is a no-op, not an error.
	DeleteDocument(ctx context.Context, documentID, uri string) error

	// FragmentsByDocument streams every fragment belonging to documentID
	// to fn, one at a time. fn returning an error stops the iteration.
	FragmentsByDocument(ctx context.Context, documentID string, fn func(domain.Fragment) error) error

	// HybridQuery executes the fused lexical+vector ranking statement and
	// returns up to limit rows, best fused score first. An empty index
	// yields an empty slice, not an error.
	HybridQuery(ctx context.Context, text string, embedding []float32, limit int) ([]domain.RankedFragment, error)

	// RebuildTextIndex rebuilds the full-text index. With overwrite the
	// index is dropped and recreated instead of refreshed in place.
	RebuildTextIndex(ctx context.Context, overwrite bool) error

	// Checkpoint flushes the write-ahead log to reclaim space.
	Checkpoint(ctx context.Context) error

	// Close releases the handle and unregisters it from the open set.
	Close() error
}

// WriteSession is one checked-out write connection. Each embedding task
// holds exactly one for the duration of its insert pair.
type WriteSession interface {
	// InsertFragment appends one fragment row and adds its vector to the
	// vector index.
	InsertFragment(ctx context.Context, frag domain.Fragment) error

	// MapFragment appends one document-to-fragment mapping row.
	MapFragment(ctx context.Context, documentID, fragID string) error

	// Close returns the connection to the pool.
	Close() error
}
