package mcp

import (
	"context"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	ranked []domain.RankedFragment
	err    error

	lastQuery string
	lastLimit int
}

func (m *mockQueryService) Query(
	_ context.Context,
	text string,
	limit int,
) ([]domain.RankedFragment, error) {
	m.lastQuery = text
	m.lastLimit = limit
	return m.ranked, m.err
}

func (m *mockQueryService) QueryDetached(text string, limit int) {
	m.lastQuery = text
	m.lastLimit = limit
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	documentID string
	err        error

	paragraphCalls int
	chunkCalls     int
	lastURI        string
}

func (m *mockIngestService) Ingest(_ context.Context, uri, _ string) (string, error) {
	m.chunkCalls++
	m.lastURI = uri
	return m.documentID, m.err
}

func (m *mockIngestService) IngestParagraphs(_ context.Context, uri, _ string) (string, error) {
	m.paragraphCalls++
	m.lastURI = uri
	return m.documentID, m.err
}

func (m *mockIngestService) IngestDetached(uri, _ string) {
	m.lastURI = uri
}

// mockLifecycleService is a mock implementation of driving.LifecycleService.
type mockLifecycleService struct {
	err error

	deletedID  string
	deletedURI string
}

func (m *mockLifecycleService) Map(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockLifecycleService) Retrieve(_ context.Context, _ string) error {
	return m.err
}

func (m *mockLifecycleService) Delete(_ context.Context, documentID, uri string) error {
	m.deletedID = documentID
	m.deletedURI = uri
	return m.err
}

// mockFragmentLister is a mock implementation of FragmentLister.
type mockFragmentLister struct {
	fragments []domain.Fragment
	err       error
}

func (m *mockFragmentLister) FragmentsByDocument(
	_ context.Context,
	_ string,
	fn func(domain.Fragment) error,
) error {
	if m.err != nil {
		return m.err
	}
	for _, f := range m.fragments {
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// mockStatsReader is a mock implementation of StatsReader.
type mockStatsReader struct {
	documents int
	fragments int
	err       error
}

func (m *mockStatsReader) Stats(_ context.Context) (int, int, error) {
	return m.documents, m.fragments, m.err
}
