package domain

// Chunk is a transient slice of input text produced by the segmenter.
// Chunks are consumed by the embedding pipeline and never persisted directly.
type Chunk struct {
	// Text is the chunk content, sentences joined by single spaces.
	Text string

	// OverlapVariant reports that this chunk was emitted from the overlap
	// buffer and carries one trailing sentence of context beyond its
	// non-overlapping counterpart.
	OverlapVariant bool
}

// Fragment is a persisted chunk together with its embedding vector.
// Fragments are immutable after insert and destroyed only by a cascading
// document delete.
type Fragment struct {
	// FragID is the globally unique fragment identifier (UUID).
	FragID string

	// Text is the fragment content.
	Text string

	// Embedding is the L2-normalised vector for this fragment. Its length
	// must equal the dimension the store was opened with.
	Embedding []float32
}

// Document records one ingestion call. The primary key is (DocumentID, URI).
type Document struct {
	// DocumentID is a generated unique identifier.
	DocumentID string

	// URI is the caller-supplied origin of the text, may be empty.
	URI string

	// EmbeddingSize is the embedding dimension active when the document
	// was ingested.
	EmbeddingSize int
}

// RankedFragment is a single row of a hybrid query result, best score first.
type RankedFragment struct {
	Text  string
	Score float64
}
