package driving

import (
	"context"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
)

// IngestService splits text into chunks, embeds them across a worker pool
// and persists the resulting fragments.
type IngestService interface {
	// Ingest processes text as overlapping sentence chunks and returns the
	// generated document id. A Finish event carrying the id is always
	// emitted, even when some chunks failed to embed.
	Ingest(ctx context.Context, uri, text string) (string, error)

	// IngestParagraphs processes text one paragraph per chunk instead of
	// fixed-size sentence accumulation.
	IngestParagraphs(ctx context.Context, uri, text string) (string, error)

	// IngestDetached runs Ingest on a background goroutine; completion is
	// observable only through the result channel.
	IngestDetached(uri, text string)
}

// QueryService answers natural-language queries with fused
// lexical+vector ranking.
type QueryService interface {
	// Query returns up to limit ranked fragments, best fused score first.
	// limit <= 0 uses the configured default. Queries against an empty
	// index return an empty list, not an error.
	Query(ctx context.Context, text string, limit int) ([]domain.RankedFragment, error)

	// QueryDetached runs Query on a background goroutine; ranked rows are
	// delivered as Query events on the result channel.
	QueryDetached(text string, limit int)
}

// LifecycleService manages document identity and the fragment set behind it.
type LifecycleService interface {
	// Map records that uri has been ingested as documentID.
	Map(ctx context.Context, uri, documentID string) error

	// Retrieve streams every fragment of documentID as Embedding events,
	// terminated by a Finish event. Unknown ids yield only the Finish.
	Retrieve(ctx context.Context, documentID string) error

	// Delete removes the document, its fragments and mapping rows, then
	// compacts the vector index and rebuilds the full-text index. Safe to
	// call when nothing matches.
	Delete(ctx context.Context, documentID, uri string) error
}
