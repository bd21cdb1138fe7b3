package driven

import "context"

// Tensor is the raw encoder output: a dense [Batch, SeqLen, Hidden] block
// in row-major order.
type Tensor struct {
	Data   []float32
	Batch  int
	SeqLen int
	Hidden int
}

// At returns the value at position (b, s, h). No bounds checking beyond
// what the slice itself provides.
func (t Tensor) At(b, s, h int) float32 {
	return t.Data[(b*t.SeqLen+s)*t.Hidden+h]
}

// EncodeFuture is the asynchronous handle for an in-flight encode batch.
// Ready never blocks; Result blocks until the batch completes. Callers that
// must stay cancellable poll Ready on a bounded interval instead of calling
// Result directly.
type EncodeFuture interface {
	// Ready reports whether the result is available.
	Ready() bool

	// Result returns the encoder output, blocking until available.
	Result() (Tensor, error)
}

// Encoder is the external sequence encoder capability together with its
// tokenizer. Implementations wrap an inference runtime; the core never
// sees model weights or tokenizer vocabularies.
type Encoder interface {
	// Tokenize converts text into model token ids.
	Tokenize(text string) ([]int32, error)

	// EncodeBatch submits a batch of token-id sequences and returns a
	// future of the [batch, seq_len, hidden] hidden state.
	EncodeBatch(ctx context.Context, batches [][]int32) (EncodeFuture, error)

	// QueueDepth returns the number of batches queued inside the encoder.
	// Adapters use this for backpressure before submitting.
	QueueDepth() int

	// Shutdown releases the encoder.
	Shutdown() error
}
