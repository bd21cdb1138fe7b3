package driven

import "context"

// VectorIndex provides cosine similarity search over fragment embeddings.
// Backed by an in-memory HNSW graph rebuilt from the store on open.
type VectorIndex interface {
	// Add inserts a vector for the given fragment ID.
	Add(ctx context.Context, fragID string, embedding []float32) error

	// Delete removes a vector from the index. The vector stays in the
	// graph until the next Compact.
	Delete(ctx context.Context, fragID string) error

	// Search finds the k nearest neighbours to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Compact rebuilds the graph without deleted vectors.
	Compact(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// FragID is the matched fragment.
	FragID string

	// Similarity is the cosine similarity score (-1 to 1).
	Similarity float64
}
