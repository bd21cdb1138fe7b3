package services

import (
	"context"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
	"github.com/sheldonrobinson/AI4All/internal/core/ports/driven"
	"github.com/sheldonrobinson/AI4All/internal/core/ports/driving"
	"github.com/sheldonrobinson/AI4All/internal/logger"
)

// Ensure LifecycleManager implements the interface.
var _ driving.LifecycleService = (*LifecycleManager)(nil)

// LifecycleManager manages document identity and the fragment set
// behind it.
type LifecycleManager struct {
	store   driven.FragmentStore
	emitter *Emitter
	cfg     domain.RetrievalConfig
}

// NewLifecycleManager creates the document lifecycle service.
func NewLifecycleManager(
	store driven.FragmentStore,
	emitter *Emitter,
	cfg domain.RetrievalConfig,
) *LifecycleManager {
	return &LifecycleManager{
		store:   store,
		emitter: emitter,
		cfg:     cfg,
	}
}

// Map records that uri has been ingested as documentID. Mapping the
// same pair again is a no-op.
func (s *LifecycleManager) Map(ctx context.Context, uri, documentID string) error {
	return s.store.PutDocument(ctx, domain.Document{
		DocumentID:    documentID,
		URI:           uri,
		EmbeddingSize: s.cfg.Dimension,
	})
}

// Retrieve streams every fragment of documentID as Embedding results,
// terminated by a Finish result. Unknown ids yield only the Finish.
func (s *LifecycleManager) Retrieve(ctx context.Context, documentID string) error {
	defer s.emitter.Emit(domain.FinishResult{RefID: documentID})

	return s.store.FragmentsByDocument(ctx, documentID, func(frag domain.Fragment) error {
		s.emitter.Emit(domain.EmbeddingResult{
			Text:      frag.Text,
			FragID:    frag.FragID,
			Embedding: frag.Embedding,
		})
		return nil
	})
}

// Delete removes the document, its fragments and mapping rows, then
// compacts the vector index and rebuilds the full-text index. Safe to
// call when nothing matches.
func (s *LifecycleManager) Delete(ctx context.Context, documentID, uri string) error {
	logger.Debug("Deleting document %s (%s)", documentID, uri)
	return s.store.DeleteDocument(ctx, documentID, uri)
}
