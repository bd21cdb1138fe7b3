// Package encoder adapts the external sequence encoder capability into the
// Embedder port: tokenise, encode, pool and L2-normalise.
package encoder

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
	"github.com/sheldonrobinson/AI4All/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.Embedder = (*Adapter)(nil)

// Default configuration values.
const (
	// DefaultMaxQueuedBatches caps in-flight batches before the adapter
	// waits instead of submitting, mirroring the encoder's own queue cap.
	DefaultMaxQueuedBatches = 512

	// pollInterval bounds every wait so the adapter stays cancellable.
	pollInterval = 50 * time.Millisecond

	// zeroNormEpsilon guards L2 normalisation against division by zero.
	zeroNormEpsilon = 1e-12
)

// Adapter turns text into pooled, normalised embedding vectors using an
// external Encoder.
type Adapter struct {
	enc       driven.Encoder
	cfg       domain.RetrievalConfig
	maxQueued int
}

// Option configures the adapter.
type Option func(*Adapter)

// WithMaxQueuedBatches overrides the in-flight batch cap used for
// backpressure.
func WithMaxQueuedBatches(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxQueued = n
		}
	}
}

// New creates an embedder over the given encoder capability.
func New(enc driven.Encoder, cfg domain.RetrievalConfig, opts ...Option) *Adapter {
	a := &Adapter{
		enc:       enc,
		cfg:       cfg,
		maxQueued: DefaultMaxQueuedBatches,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Embed generates the embedding vector for text.
//
// The encoder call is asynchronous; the adapter polls the returned future
// on a bounded interval rather than blocking, so it stays cancellable at
// the pipeline level. When the encoder's queue is saturated the adapter
// waits for a slot the same way.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	ids, err := a.enc.Tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("%w: tokenize: %v", domain.ErrEncode, err)
	}

	if err := a.waitForSlot(ctx); err != nil {
		return nil, err
	}

	fut, err := a.enc.EncodeBatch(ctx, [][]int32{ids})
	if err != nil {
		return nil, fmt.Errorf("%w: submit: %v", domain.ErrEncode, err)
	}

	if err := a.waitForFuture(ctx, fut); err != nil {
		return nil, err
	}

	tensor, err := fut.Result()
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", domain.ErrEncode, err)
	}
	if tensor.Batch < 1 || tensor.SeqLen < 1 || tensor.Hidden < 1 {
		return nil, fmt.Errorf("%w: empty tensor %dx%dx%d", domain.ErrEncode,
			tensor.Batch, tensor.SeqLen, tensor.Hidden)
	}
	if tensor.Hidden != a.cfg.Dimension {
		return nil, fmt.Errorf("%w: encoder produced %d, configured %d",
			domain.ErrDimensionMismatch, tensor.Hidden, a.cfg.Dimension)
	}

	vec := pool(tensor, a.cfg.Pooling)
	normalise(vec)
	return vec, nil
}

// Dimensions returns the embedding vector size.
func (a *Adapter) Dimensions() int {
	return a.cfg.Dimension
}

// waitForSlot blocks while the encoder's internal queue is saturated.
func (a *Adapter) waitForSlot(ctx context.Context) error {
	for a.enc.QueueDepth() >= a.maxQueued {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return nil
}

// waitForFuture polls the future until it is ready.
func (a *Adapter) waitForFuture(ctx context.Context, fut driven.EncodeFuture) error {
	for !fut.Ready() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return nil
}

// pool reduces the first batch item of a [batch, seq, hidden] tensor to a
// [hidden] vector.
func pool(t driven.Tensor, mode domain.Pooling) []float32 {
	out := make([]float32, t.Hidden)

	switch mode {
	case domain.PoolingFirst:
		for h := 0; h < t.Hidden; h++ {
			out[h] = t.At(0, 0, h)
		}

	case domain.PoolingMax:
		for h := 0; h < t.Hidden; h++ {
			best := t.At(0, 0, h)
			for s := 1; s < t.SeqLen; s++ {
				if v := t.At(0, s, h); v > best {
					best = v
				}
			}
			out[h] = best
		}

	default: // domain.PoolingMean
		for h := 0; h < t.Hidden; h++ {
			var sum float64
			for s := 0; s < t.SeqLen; s++ {
				sum += float64(t.At(0, s, h))
			}
			out[h] = float32(sum / float64(t.SeqLen))
		}
	}

	return out
}

// normalise scales vec to unit L2 norm in place. A near-zero vector is
// left unnormalised rather than divided by zero.
func normalise(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm < zeroNormEpsilon {
		return
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}
