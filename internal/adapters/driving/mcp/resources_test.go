package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid fragments URI",
			uri:      "ai4all://documents/doc-123/fragments",
			expected: "doc-123",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/doc-123/fragments",
			expected: "",
		},
		{
			name:     "missing fragments suffix",
			uri:      "ai4all://documents/doc-123",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractDocumentID(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleStatsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil stats reader returns zero counts", func(t *testing.T) {
		ports := &Ports{Query: &mockQueryService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("ai4all://stats")
		result, err := server.handleStatsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.JSONEq(t, `{"documents": 0, "fragments": 0}`, result.Contents[0].Text)
	})

	t.Run("returns counters", func(t *testing.T) {
		ports := &Ports{
			Query: &mockQueryService{},
			Stats: &mockStatsReader{documents: 3, fragments: 42},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("ai4all://stats")
		result, err := server.handleStatsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.JSONEq(t, `{"documents": 3, "fragments": 42}`, result.Contents[0].Text)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("returns error on stats failure", func(t *testing.T) {
		ports := &Ports{
			Query: &mockQueryService{},
			Stats: &mockStatsReader{err: errors.New("db closed")},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("ai4all://stats")
		_, err = server.handleStatsResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "db closed")
	})
}

func TestServer_handleFragmentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil fragment lister returns not found", func(t *testing.T) {
		ports := &Ports{Query: &mockQueryService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("ai4all://documents/doc-1/fragments")
		_, err = server.handleFragmentsResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("malformed URI returns not found", func(t *testing.T) {
		ports := &Ports{
			Query:     &mockQueryService{},
			Fragments: &mockFragmentLister{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("ai4all://documents/doc-1")
		_, err = server.handleFragmentsResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("returns fragments", func(t *testing.T) {
		ports := &Ports{
			Query: &mockQueryService{},
			Fragments: &mockFragmentLister{
				fragments: []domain.Fragment{
					{FragID: "frag-1", Text: "The cat slept."},
					{FragID: "frag-2", Text: "Rain fell."},
				},
			},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("ai4all://documents/doc-1/fragments")
		result, err := server.handleFragmentsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.JSONEq(t, `[
			{"frag_id": "frag-1", "text": "The cat slept."},
			{"frag_id": "frag-2", "text": "Rain fell."}
		]`, result.Contents[0].Text)
	})

	t.Run("unknown document returns empty list", func(t *testing.T) {
		ports := &Ports{
			Query:     &mockQueryService{},
			Fragments: &mockFragmentLister{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("ai4all://documents/nope/fragments")
		result, err := server.handleFragmentsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.JSONEq(t, `[]`, result.Contents[0].Text)
	})

	t.Run("returns error on lister failure", func(t *testing.T) {
		ports := &Ports{
			Query:     &mockQueryService{},
			Fragments: &mockFragmentLister{err: errors.New("scan failed")},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("ai4all://documents/doc-1/fragments")
		_, err = server.handleFragmentsResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "scan failed")
	})
}
