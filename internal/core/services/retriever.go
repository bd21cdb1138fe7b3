package services

import (
	"context"
	"strings"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
	"github.com/sheldonrobinson/AI4All/internal/core/ports/driven"
	"github.com/sheldonrobinson/AI4All/internal/core/ports/driving"
	"github.com/sheldonrobinson/AI4All/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.QueryService = (*RetrieverService)(nil)

// RetrieverService answers natural-language queries with fused
// lexical+vector ranking.
type RetrieverService struct {
	store    driven.FragmentStore
	embedder driven.Embedder
	emitter  *Emitter
	cfg      domain.RetrievalConfig
}

// NewRetrieverService creates the query service.
func NewRetrieverService(
	store driven.FragmentStore,
	embedder driven.Embedder,
	emitter *Emitter,
	cfg domain.RetrievalConfig,
) *RetrieverService {
	return &RetrieverService{
		store:    store,
		embedder: embedder,
		emitter:  emitter,
		cfg:      cfg,
	}
}

// Query returns up to limit ranked fragments, best fused score first.
// limit <= 0 uses the configured default. An empty query or an empty
// index returns an empty list, not an error.
func (s *RetrieverService) Query(ctx context.Context, text string, limit int) ([]domain.RankedFragment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []domain.RankedFragment{}, nil
	}
	if limit <= 0 {
		limit = s.cfg.Limit
	}
	if s.embedder == nil {
		return nil, domain.ErrEncoderUnavailable
	}

	logger.Debug("Query %q (limit %d)", text, limit)

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	return s.store.HybridQuery(ctx, text, embedding, limit)
}

// QueryDetached runs Query on a background goroutine. Ranked rows are
// delivered as Query results, terminated by a Finish result.
func (s *RetrieverService) QueryDetached(text string, limit int) {
	go func() {
		defer s.emitter.Emit(domain.FinishResult{})

		ranked, err := s.Query(context.Background(), text, limit)
		if err != nil {
			s.emitter.Emit(domain.ErrorResult{Code: domain.StoreCode(err), Err: err})
			return
		}
		for _, row := range ranked {
			s.emitter.Emit(domain.QueryResult{Text: row.Text, Score: row.Score})
		}
	}()
}
