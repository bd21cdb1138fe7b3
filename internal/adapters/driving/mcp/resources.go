package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for AI4All resources.
	uriScheme = "ai4all://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for knowledge base counters.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Document and fragment counts for the knowledge base",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	// Template for document fragments.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/fragments",
		Name:        "document-fragments",
		Description: "Fragments stored for a specific document",
		MIMEType:    "application/json",
	}, s.handleFragmentsResource)
}

// handleStatsResource returns knowledge base counters.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type stats struct {
		Documents int `json:"documents"`
		Fragments int `json:"fragments"`
	}

	var counts stats
	if s.ports.Stats != nil {
		documents, fragments, err := s.ports.Stats.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading stats: %w", err)
		}
		counts = stats{Documents: documents, Fragments: fragments}
	}

	data, err := json.MarshalIndent(counts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling stats: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleFragmentsResource returns the fragments stored for a document.
func (s *Server) handleFragmentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Fragments == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract documentId from URI: ai4all://documents/{documentId}/fragments
	documentID := extractDocumentID(req.Params.URI)
	if documentID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	type fragInfo struct {
		FragID string `json:"frag_id"`
		Text   string `json:"text"`
	}

	infos := []fragInfo{}
	err := s.ports.Fragments.FragmentsByDocument(ctx, documentID, func(f domain.Fragment) error {
		infos = append(infos, fragInfo{FragID: f.FragID, Text: f.Text})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing fragments: %w", err)
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling fragments: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like
// ai4all://documents/{documentId}/fragments.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"
	const suffix = "/fragments"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
