package domain

import "fmt"

// Pooling selects how the encoder's [batch, seq, hidden] output is reduced
// to a single [hidden] vector.
type Pooling string

const (
	// PoolingMean averages the hidden state over all sequence positions.
	PoolingMean Pooling = "mean"

	// PoolingFirst takes the first position's vector (CLS-style).
	PoolingFirst Pooling = "first"

	// PoolingMax takes the element-wise maximum over sequence positions.
	PoolingMax Pooling = "max"
)

// Default configuration values.
const (
	DefaultDimension = 768
	DefaultChunkSize = 1280
	DefaultLimit     = 5
)

// RetrievalConfig holds the process-wide retrieval settings. It is
// constructed once, validated, and passed by value into every component.
// None of it may change after a store has been opened with it: changing the
// dimension or pooling mode once fragments exist would silently corrupt
// similarity comparisons.
type RetrievalConfig struct {
	// Dimension is the embedding vector size.
	Dimension int

	// ChunkSize is the maximum chunk length in characters. Single
	// sentences longer than this are still emitted whole.
	ChunkSize int

	// Overlap enables one-sentence trailing-context overlap between chunks.
	Overlap bool

	// Pooling is the encoder output pooling strategy.
	Pooling Pooling

	// Limit is the default number of ranked results per query.
	Limit int
}

// DefaultRetrievalConfig returns the stock configuration.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		Dimension: DefaultDimension,
		ChunkSize: DefaultChunkSize,
		Overlap:   true,
		Pooling:   PoolingMean,
		Limit:     DefaultLimit,
	}
}

// Validate checks the configuration for values that would make every later
// similarity comparison meaningless.
func (c RetrievalConfig) Validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidConfig, c.Dimension)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.Limit <= 0 {
		return fmt.Errorf("%w: result limit must be positive, got %d", ErrInvalidConfig, c.Limit)
	}
	switch c.Pooling {
	case PoolingMean, PoolingFirst, PoolingMax:
	default:
		return fmt.Errorf("%w: unknown pooling mode %q", ErrInvalidConfig, c.Pooling)
	}
	return nil
}
