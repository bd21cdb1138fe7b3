package encoder

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
	"github.com/sheldonrobinson/AI4All/internal/core/ports/driven"
)

// fakeFuture resolves immediately unless delayPolls > 0.
type fakeFuture struct {
	tensor     driven.Tensor
	err        error
	delayPolls int
	polls      int
}

func (f *fakeFuture) Ready() bool {
	f.polls++
	return f.polls > f.delayPolls
}

func (f *fakeFuture) Result() (driven.Tensor, error) {
	return f.tensor, f.err
}

// fakeEncoder produces a fixed tensor for every batch.
type fakeEncoder struct {
	tensor    driven.Tensor
	encodeErr error
	tokErr    error
	depth     int
	future    *fakeFuture
}

func (f *fakeEncoder) Tokenize(text string) ([]int32, error) {
	if f.tokErr != nil {
		return nil, f.tokErr
	}
	ids := make([]int32, 0, 8)
	for i := range strings.Fields(text) {
		ids = append(ids, int32(i))
	}
	return ids, nil
}

func (f *fakeEncoder) EncodeBatch(_ context.Context, _ [][]int32) (driven.EncodeFuture, error) {
	if f.encodeErr != nil {
		return nil, f.encodeErr
	}
	if f.future != nil {
		return f.future, nil
	}
	return &fakeFuture{tensor: f.tensor}, nil
}

func (f *fakeEncoder) QueueDepth() int { return f.depth }

func (f *fakeEncoder) Shutdown() error { return nil }

// tensor3 builds a [1, seq, hidden] tensor from row-major values.
func tensor3(seq, hidden int, vals ...float32) driven.Tensor {
	return driven.Tensor{Data: vals, Batch: 1, SeqLen: seq, Hidden: hidden}
}

func testConfig(dim int, pooling domain.Pooling) domain.RetrievalConfig {
	cfg := domain.DefaultRetrievalConfig()
	cfg.Dimension = dim
	cfg.Pooling = pooling
	return cfg
}

func TestEmbedMeanPooling(t *testing.T) {
	// Two sequence positions: (1,0) and (0,1). Mean is (0.5,0.5),
	// which normalises to (1/sqrt2, 1/sqrt2).
	enc := &fakeEncoder{tensor: tensor3(2, 2, 1, 0, 0, 1)}
	a := New(enc, testConfig(2, domain.PoolingMean))

	vec, err := a.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.Len(t, vec, 2)

	inv := float32(1 / math.Sqrt2)
	assert.InDelta(t, inv, vec[0], 1e-6)
	assert.InDelta(t, inv, vec[1], 1e-6)
}

func TestEmbedFirstPooling(t *testing.T) {
	enc := &fakeEncoder{tensor: tensor3(2, 2, 3, 4, 100, 100)}
	a := New(enc, testConfig(2, domain.PoolingFirst))

	vec, err := a.Embed(context.Background(), "hello")
	require.NoError(t, err)

	// First token is (3,4), unit form (0.6,0.8).
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)
}

func TestEmbedMaxPooling(t *testing.T) {
	enc := &fakeEncoder{tensor: tensor3(2, 2, 3, 1, 1, 4)}
	a := New(enc, testConfig(2, domain.PoolingMax))

	vec, err := a.Embed(context.Background(), "hello")
	require.NoError(t, err)

	// Element-wise max is (3,4), unit form (0.6,0.8).
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)
}

func TestEmbedUnitNorm(t *testing.T) {
	enc := &fakeEncoder{tensor: tensor3(1, 3, 2, 3, 6)}
	a := New(enc, testConfig(3, domain.PoolingMean))

	vec, err := a.Embed(context.Background(), "hello")
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestEmbedZeroVector(t *testing.T) {
	enc := &fakeEncoder{tensor: tensor3(1, 2, 0, 0)}
	a := New(enc, testConfig(2, domain.PoolingMean))

	vec, err := a.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, vec)
}

func TestEmbedDimensionMismatch(t *testing.T) {
	enc := &fakeEncoder{tensor: tensor3(1, 3, 1, 2, 3)}
	a := New(enc, testConfig(2, domain.PoolingMean))

	_, err := a.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbedTokenizeError(t *testing.T) {
	enc := &fakeEncoder{tokErr: errors.New("bad token")}
	a := New(enc, testConfig(2, domain.PoolingMean))

	_, err := a.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrEncode)
}

func TestEmbedEncodeError(t *testing.T) {
	enc := &fakeEncoder{encodeErr: errors.New("encoder down")}
	a := New(enc, testConfig(2, domain.PoolingMean))

	_, err := a.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrEncode)
}

func TestEmbedPollsUntilReady(t *testing.T) {
	fut := &fakeFuture{tensor: tensor3(1, 2, 1, 0), delayPolls: 2}
	enc := &fakeEncoder{future: fut}
	a := New(enc, testConfig(2, domain.PoolingMean))

	vec, err := a.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vec[0], 1e-6)
	assert.GreaterOrEqual(t, fut.polls, 3)
}

func TestEmbedBackpressureCancellation(t *testing.T) {
	enc := &fakeEncoder{tensor: tensor3(1, 2, 1, 0), depth: 10}
	a := New(enc, testConfig(2, domain.PoolingMean), WithMaxQueuedBatches(5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Embed(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDimensions(t *testing.T) {
	a := New(&fakeEncoder{}, testConfig(768, domain.PoolingMean))
	assert.Equal(t, 768, a.Dimensions())
}
