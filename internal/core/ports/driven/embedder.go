package driven

import "context"

// Embedder turns a chunk of text into a pooled, L2-normalised embedding
// vector of the configured dimension.
//
// Note: this is separate from Encoder, which produces raw token-level
// hidden states. The embedder adapter owns tokenisation, backpressure,
// pooling and normalisation on top of an Encoder.
type Embedder interface {
	// Embed generates the embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size the embedder produces.
	Dimensions() int
}
