package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
)

func newTestLifecycle(store *fakeStore) (*LifecycleManager, *Emitter) {
	emitter := NewEmitter(1024)
	cfg := domain.DefaultRetrievalConfig()
	cfg.Dimension = 4
	return NewLifecycleManager(store, emitter, cfg), emitter
}

func TestMapRecordsDocument(t *testing.T) {
	store := newFakeStore()
	lifecycle, _ := newTestLifecycle(store)

	require.NoError(t, lifecycle.Map(context.Background(), "file:///a.txt", "doc-1"))
	require.NoError(t, lifecycle.Map(context.Background(), "file:///a.txt", "doc-1"))

	assert.Len(t, store.docs, 1)
	doc := store.docs["doc-1|file:///a.txt"]
	assert.Equal(t, 4, doc.EmbeddingSize)
}

func TestRetrieveStreamsFragments(t *testing.T) {
	store := newFakeStore()
	store.frags["frag-1"] = domain.Fragment{FragID: "frag-1", Text: "alpha", Embedding: []float32{1, 0, 0, 0}}
	store.frags["frag-2"] = domain.Fragment{FragID: "frag-2", Text: "beta", Embedding: []float32{0, 1, 0, 0}}
	store.mapping["doc-1"] = []string{"frag-1", "frag-2"}

	lifecycle, emitter := newTestLifecycle(store)
	require.NoError(t, lifecycle.Retrieve(context.Background(), "doc-1"))

	results := drainResults(t, emitter)
	require.Len(t, results, 3)

	first := results[0].(domain.EmbeddingResult)
	assert.Equal(t, "frag-1", first.FragID)
	assert.Equal(t, "alpha", first.Text)
	assert.Equal(t, []float32{1, 0, 0, 0}, first.Embedding)

	finish := results[2].(domain.FinishResult)
	assert.Equal(t, "doc-1", finish.RefID)
}

func TestRetrieveUnknownDocumentOnlyFinish(t *testing.T) {
	store := newFakeStore()
	lifecycle, emitter := newTestLifecycle(store)

	require.NoError(t, lifecycle.Retrieve(context.Background(), "missing"))

	results := drainResults(t, emitter)
	require.Len(t, results, 1)
	assert.Equal(t, domain.KindFinish, results[0].Kind())
}

func TestDeleteRemovesDocument(t *testing.T) {
	store := newFakeStore()
	store.docs["doc-1|file:///a.txt"] = domain.Document{DocumentID: "doc-1", URI: "file:///a.txt"}
	store.frags["frag-1"] = domain.Fragment{FragID: "frag-1"}
	store.mapping["doc-1"] = []string{"frag-1"}

	lifecycle, _ := newTestLifecycle(store)
	require.NoError(t, lifecycle.Delete(context.Background(), "doc-1", "file:///a.txt"))

	assert.Empty(t, store.docs)
	assert.Empty(t, store.frags)
}
