package services

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
	"github.com/sheldonrobinson/AI4All/internal/core/ports/driven"
	"github.com/sheldonrobinson/AI4All/internal/core/ports/driving"
	"github.com/sheldonrobinson/AI4All/internal/logger"
	"github.com/sheldonrobinson/AI4All/internal/segmenter"
)

// Ensure PipelineService implements the interface.
var _ driving.IngestService = (*PipelineService)(nil)

// PipelineService turns raw text into persisted fragments: segment,
// embed across a worker pool, insert, map, refresh the text index.
type PipelineService struct {
	store    driven.FragmentStore
	embedder driven.Embedder
	emitter  *Emitter
	cfg      domain.RetrievalConfig
	workers  int
}

// NewPipelineService creates the ingestion pipeline. The worker pool is
// sized to the machine's logical CPUs.
func NewPipelineService(
	store driven.FragmentStore,
	embedder driven.Embedder,
	emitter *Emitter,
	cfg domain.RetrievalConfig,
) *PipelineService {
	return &PipelineService{
		store:    store,
		embedder: embedder,
		emitter:  emitter,
		cfg:      cfg,
		workers:  runtime.NumCPU(),
	}
}

// Ingest processes text as overlapping sentence chunks and returns the
// generated document id. A Finish result carrying the id is always
// emitted, even when chunks failed to embed.
func (s *PipelineService) Ingest(ctx context.Context, uri, text string) (string, error) {
	chunks := segmenter.Chunk(text, s.cfg.ChunkSize, s.cfg.Overlap)
	return s.ingestChunks(ctx, uri, chunks)
}

// IngestParagraphs processes text one paragraph per chunk instead of
// fixed-size sentence accumulation.
func (s *PipelineService) IngestParagraphs(ctx context.Context, uri, text string) (string, error) {
	chunks := segmenter.ParagraphChunks(text)
	return s.ingestChunks(ctx, uri, chunks)
}

// IngestDetached runs Ingest on a background goroutine; completion is
// observable only through the result channel.
func (s *PipelineService) IngestDetached(uri, text string) {
	go func() {
		if _, err := s.Ingest(context.Background(), uri, text); err != nil {
			s.emitter.Emit(domain.ErrorResult{Code: domain.StoreCode(err), Err: err})
		}
	}()
}

func (s *PipelineService) ingestChunks(ctx context.Context, uri string, chunks []domain.Chunk) (string, error) {
	if s.embedder == nil {
		return "", domain.ErrEncoderUnavailable
	}

	documentID := uuid.NewString()
	defer s.emitter.Emit(domain.FinishResult{RefID: documentID})

	logger.Debug("Ingesting %d chunks for %q as document %s", len(chunks), uri, documentID)

	if err := s.store.PutDocument(ctx, domain.Document{
		DocumentID:    documentID,
		URI:           uri,
		EmbeddingSize: s.cfg.Dimension,
	}); err != nil {
		return "", err
	}

	if len(chunks) == 0 {
		return documentID, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)

	for _, chunk := range chunks {
		group.Go(func() error {
			return s.embedChunk(groupCtx, documentID, chunk)
		})
	}

	if err := group.Wait(); err != nil {
		return "", err
	}

	// Newly inserted fragments are invisible to lexical ranking until
	// the text index sees them.
	if err := s.store.RebuildTextIndex(ctx, false); err != nil {
		return "", err
	}

	return documentID, nil
}

// embedChunk runs one chunk through the embedder and persists the
// resulting fragment. Encoder failures are absorbed: the chunk is
// skipped and reported as an Error result, ingestion continues. Store
// failures abort the whole ingest.
func (s *PipelineService) embedChunk(ctx context.Context, documentID string, chunk domain.Chunk) error {
	if strings.TrimSpace(chunk.Text) == "" {
		return nil
	}

	embedding, err := s.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		logger.Warn("Skipping chunk of document %s: %v", documentID, err)
		s.emitter.Emit(domain.ErrorResult{Err: fmt.Errorf("chunk skipped: %w", err)})
		return nil
	}

	frag := domain.Fragment{
		FragID:    uuid.NewString(),
		Text:      chunk.Text,
		Embedding: embedding,
	}

	sess, err := s.store.Session(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.InsertFragment(ctx, frag); err != nil {
		return err
	}
	if err := sess.MapFragment(ctx, documentID, frag.FragID); err != nil {
		return err
	}

	s.emitter.Emit(domain.EmbeddingResult{
		Text:      frag.Text,
		FragID:    frag.FragID,
		Embedding: frag.Embedding,
	})
	return nil
}
