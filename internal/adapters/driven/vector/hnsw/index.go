// Package hnsw provides an in-memory cosine similarity index over an
// HNSW graph. The graph only grows; deletions are tombstoned and swept
// by Compact, which rebuilds the graph from the live vectors.
package hnsw

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/fogfish/hnsw"
	"github.com/fogfish/hnsw/vector"
	surface "github.com/kshard/vector"

	"github.com/sheldonrobinson/AI4All/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default graph parameters.
const (
	DefaultM              = 16
	DefaultEfConstruction = 200
	DefaultEfSearch       = 100
)

// Config holds the HNSW graph parameters.
type Config struct {
	// M is the maximum number of connections per node.
	M int

	// EfConstruction is the candidate list size while building.
	EfConstruction int

	// EfSearch is the candidate list size while searching.
	EfSearch int
}

// Index maps string fragment IDs onto the uint32 keys the graph wants
// and keeps every live vector around so Compact can rebuild.
type Index struct {
	cfg Config

	mu         sync.RWMutex
	graph      *hnsw.HNSW[vector.VF32]
	idToKey    map[string]uint32
	keyToID    map[uint32]string
	vecs       map[string][]float32
	nextKey    uint32
	tombstones int
}

// New creates an empty index.
func New(cfg Config) *Index {
	if cfg.M == 0 {
		cfg.M = DefaultM
	}
	if cfg.EfConstruction == 0 {
		cfg.EfConstruction = DefaultEfConstruction
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = DefaultEfSearch
	}

	idx := &Index{cfg: cfg}
	idx.reset()
	return idx
}

// reset replaces the graph and key maps with empty ones. Caller holds
// the write lock (or owns the index exclusively).
func (idx *Index) reset() {
	idx.graph = hnsw.New(
		vector.SurfaceVF32(surface.Cosine()),
		hnsw.WithM(idx.cfg.M),
		hnsw.WithEfConstruction(idx.cfg.EfConstruction),
	)
	idx.idToKey = make(map[string]uint32)
	idx.keyToID = make(map[uint32]string)
	idx.vecs = make(map[string][]float32)
	idx.nextKey = 1
	idx.tombstones = 0
}

// Add inserts a vector for the given fragment ID. Re-adding an ID
// replaces its vector; the stale graph node lingers until Compact.
func (idx *Index) Add(_ context.Context, fragID string, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("empty vector for %s", fragID)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	key, exists := idx.idToKey[fragID]
	if !exists {
		key = idx.nextKey
		idx.nextKey++
		idx.idToKey[fragID] = key
		idx.keyToID[key] = fragID
	}
	idx.vecs[fragID] = vec
	idx.graph.Insert(vector.VF32{Key: key, Vec: vec})
	return nil
}

// Delete tombstones a fragment's vector. Unknown IDs are a no-op.
func (idx *Index) Delete(_ context.Context, fragID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	key, exists := idx.idToKey[fragID]
	if !exists {
		return nil
	}
	delete(idx.idToKey, fragID)
	delete(idx.keyToID, key)
	delete(idx.vecs, fragID)
	idx.tombstones++
	return nil
}

// Search finds the k nearest live neighbours to the query vector,
// most similar first.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.vecs) == 0 {
		return nil, nil
	}

	// Overshoot by the tombstone count so stale nodes cannot crowd out
	// live ones.
	neighbors := idx.graph.Search(
		vector.VF32{Key: 0, Vec: query},
		k+idx.tombstones,
		idx.cfg.EfSearch,
	)

	hits := make([]driven.VectorHit, 0, k)
	for _, neighbor := range neighbors {
		id, live := idx.keyToID[neighbor.Key]
		if !live {
			continue
		}
		vec, ok := idx.vecs[id]
		if !ok {
			continue
		}
		hits = append(hits, driven.VectorHit{
			FragID:     id,
			Similarity: cosine(query, vec),
		})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

// Compact rebuilds the graph from the live vectors, dropping every
// tombstoned node.
func (idx *Index) Compact(_ context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	live := idx.vecs
	idx.reset()
	for fragID, vec := range live {
		key := idx.nextKey
		idx.nextKey++
		idx.idToKey[fragID] = key
		idx.keyToID[key] = fragID
		idx.vecs[fragID] = vec
		idx.graph.Insert(vector.VF32{Key: key, Vec: vec})
	}
	return nil
}

// Size reports the number of live vectors.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vecs)
}

// Close drops the graph and all vectors.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.reset()
	return nil
}

// cosine computes the cosine similarity of two equal-length vectors.
// Zero-magnitude vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2))
}
