package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
	"github.com/sheldonrobinson/AI4All/internal/core/ports/driven"
)

func TestMatchExpression(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain words", "cat sleep", `"cat" OR "sleep"`},
		{"punctuation stripped", "Did the cat sleep?", `"Did" OR "the" OR "cat" OR "sleep"`},
		{"quotes neutralised", `"drop" (table)`, `"drop" OR "table"`},
		{"numbers kept", "error 42", `"error" OR "42"`},
		{"only punctuation", "?!...", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchExpression(tt.text))
		})
	}
}

func TestHybridQueryEmptyStore(t *testing.T) {
	s := newTestStore(t, 3)

	got, err := s.HybridQuery(context.Background(), "anything", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHybridQueryDimensionCheck(t *testing.T) {
	s := newTestStore(t, 3)

	_, err := s.HybridQuery(context.Background(), "anything", []float32{1, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestHybridQueryRanksLexicalAndVectorMatchFirst(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()

	insertFragment(t, s, "doc-1", "frag-cat", "The cat slept on the windowsill.", []float32{0.9, 0.1, 0})
	insertFragment(t, s, "doc-1", "frag-rain", "It rained heavily all night.", []float32{0, 1, 0})
	require.NoError(t, s.RebuildTextIndex(ctx, false))

	got, err := s.HybridQuery(ctx, "Did the cat sleep?", []float32{1, 0, 0}, 5)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "The cat slept on the windowsill.", got[0].Text)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestHybridQueryLexicalMatchOutranksVectorOnly(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()

	// The plain fragment is the better vector match but has no term in
	// common with the query; the keyword fragment carries the lexical
	// leg and must win.
	insertFragment(t, s, "doc-1", "frag-keyword", "compiler diagnostics explained", []float32{0, 1, 0})
	insertFragment(t, s, "doc-1", "frag-plain", "unrelated musings", []float32{1, 0, 0})
	require.NoError(t, s.RebuildTextIndex(ctx, false))

	got, err := s.HybridQuery(ctx, "compiler diagnostics", []float32{0.9, 0.4, 0}, 5)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "compiler diagnostics explained", got[0].Text)
}

func TestHybridQueryVectorOnlyWhenNoLexicalTerms(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()

	insertFragment(t, s, "doc-1", "frag-a", "alpha", []float32{1, 0, 0})
	insertFragment(t, s, "doc-1", "frag-b", "beta", []float32{0, 1, 0})
	require.NoError(t, s.RebuildTextIndex(ctx, false))

	got, err := s.HybridQuery(ctx, "?!", []float32{0, 0.9, 0.1}, 5)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "beta", got[0].Text)
}

func TestHybridQueryHonoursLimit(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()

	insertFragment(t, s, "doc-1", "frag-a", "one fish", []float32{1, 0, 0})
	insertFragment(t, s, "doc-1", "frag-b", "two fish", []float32{0, 1, 0})
	insertFragment(t, s, "doc-1", "frag-c", "red fish", []float32{0, 0, 1})
	require.NoError(t, s.RebuildTextIndex(ctx, false))

	got, err := s.HybridQuery(ctx, "fish", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestHybridQueryDeterministic(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()

	insertFragment(t, s, "doc-1", "frag-a", "the quick brown fox", []float32{0.7, 0.7, 0})
	insertFragment(t, s, "doc-1", "frag-b", "jumps over the lazy dog", []float32{0.5, 0.5, 0.7})
	insertFragment(t, s, "doc-1", "frag-c", "pack my box with jugs", []float32{0, 0.3, 0.95})
	require.NoError(t, s.RebuildTextIndex(ctx, false))

	first, err := s.HybridQuery(ctx, "quick fox jumps", []float32{1, 0, 0}, 5)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := s.HybridQuery(ctx, "quick fox jumps", []float32{1, 0, 0}, 5)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// stubIndex returns a fixed candidate set.
type stubIndex struct {
	hits []driven.VectorHit
}

func (s *stubIndex) Add(context.Context, string, []float32) error { return nil }
func (s *stubIndex) Delete(context.Context, string) error         { return nil }
func (s *stubIndex) Compact(context.Context) error                { return nil }
func (s *stubIndex) Close() error                                 { return nil }

func (s *stubIndex) Search(context.Context, []float32, int) ([]driven.VectorHit, error) {
	return s.hits, nil
}

func TestHybridQueryVectorIndexPrefilter(t *testing.T) {
	vindex := &stubIndex{hits: []driven.VectorHit{{FragID: "frag-a", Similarity: 0.9}}}

	s, err := OpenMemory("kb-prefilter", vindex)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Setup(ctx, 3))

	insertFragment(t, s, "doc-1", "frag-a", "inside the candidate set", []float32{1, 0, 0})
	insertFragment(t, s, "doc-1", "frag-b", "outside the candidate set", []float32{0, 1, 0})
	require.NoError(t, s.RebuildTextIndex(ctx, false))

	got, err := s.HybridQuery(ctx, "candidate", []float32{1, 0, 0}, 5)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "inside the candidate set", got[0].Text)
}
