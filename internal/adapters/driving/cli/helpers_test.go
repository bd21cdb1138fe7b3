package cli

import (
	"context"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
)

// stubQueryService returns canned ranked fragments.
type stubQueryService struct {
	ranked []domain.RankedFragment
	err    error

	lastQuery string
	lastLimit int
}

func (s *stubQueryService) Query(_ context.Context, text string, limit int) ([]domain.RankedFragment, error) {
	s.lastQuery = text
	s.lastLimit = limit
	return s.ranked, s.err
}

func (s *stubQueryService) QueryDetached(text string, limit int) {
	s.lastQuery = text
	s.lastLimit = limit
}

// stubIngestService returns a canned document id.
type stubIngestService struct {
	documentID string
	err        error

	lastURI        string
	lastText       string
	paragraphCalls int
}

func (s *stubIngestService) Ingest(_ context.Context, uri, text string) (string, error) {
	s.lastURI = uri
	s.lastText = text
	return s.documentID, s.err
}

func (s *stubIngestService) IngestParagraphs(_ context.Context, uri, text string) (string, error) {
	s.paragraphCalls++
	s.lastURI = uri
	s.lastText = text
	return s.documentID, s.err
}

func (s *stubIngestService) IngestDetached(uri, text string) {
	s.lastURI = uri
	s.lastText = text
}

// stubLifecycleService records delete calls.
type stubLifecycleService struct {
	err error

	deletedID  string
	deletedURI string
}

func (s *stubLifecycleService) Map(_ context.Context, _, _ string) error { return nil }

func (s *stubLifecycleService) Retrieve(_ context.Context, _ string) error { return nil }

func (s *stubLifecycleService) Delete(_ context.Context, documentID, uri string) error {
	s.deletedID = documentID
	s.deletedURI = uri
	return s.err
}

// stubFragmentLister streams canned fragments.
type stubFragmentLister struct {
	fragments []domain.Fragment
	err       error
}

func (s *stubFragmentLister) FragmentsByDocument(
	_ context.Context,
	_ string,
	fn func(domain.Fragment) error,
) error {
	if s.err != nil {
		return s.err
	}
	for _, f := range s.fragments {
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// stubStatsReader returns canned counters.
type stubStatsReader struct {
	documents int
	fragments int
	err       error
}

func (s *stubStatsReader) Stats(_ context.Context) (int, int, error) {
	return s.documents, s.fragments, s.err
}

// setupTestServices installs stub services and returns a cleanup that
// restores the previous ones.
func setupTestServices() func() {
	oldQuery := queryService
	oldIngest := ingestService
	oldLifecycle := lifecycleService
	oldFragments := fragmentLister
	oldStats := statsReader

	SetServices(&Services{
		Query: &stubQueryService{
			ranked: []domain.RankedFragment{
				{Text: "The cat slept on the mat.", Score: 0.95},
			},
		},
		Ingest:    &stubIngestService{documentID: "doc-test"},
		Lifecycle: &stubLifecycleService{},
		Fragments: &stubFragmentLister{},
		Stats:     &stubStatsReader{documents: 1, fragments: 3},
	})

	return func() {
		queryService = oldQuery
		ingestService = oldIngest
		lifecycleService = oldLifecycle
		fragmentLister = oldFragments
		statsReader = oldStats
	}
}
