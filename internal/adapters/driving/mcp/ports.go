package mcp

import (
	"context"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
	"github.com/sheldonrobinson/AI4All/internal/core/ports/driving"
)

// FragmentLister streams the fragments behind a document. The SQLite
// store satisfies it directly.
type FragmentLister interface {
	FragmentsByDocument(ctx context.Context, documentID string, fn func(domain.Fragment) error) error
}

// StatsReader reports knowledge base counters.
type StatsReader interface {
	Stats(ctx context.Context) (documents, fragments int, err error)
}

// Ports aggregates the services the MCP server exposes. This provides a
// single injection point for dependency injection.
type Ports struct {
	// Query answers ranked retrieval queries.
	Query driving.QueryService

	// Ingest adds documents to the knowledge base. Optional; without it
	// the ingest tool reports an error.
	Ingest driving.IngestService

	// Lifecycle deletes documents. Optional.
	Lifecycle driving.LifecycleService

	// Fragments lists stored fragments for resources. Optional.
	Fragments FragmentLister

	// Stats reports knowledge base counters for resources. Optional.
	Stats StatsReader
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
