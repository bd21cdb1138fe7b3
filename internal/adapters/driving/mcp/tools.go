package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Query string `json:"query" jsonschema:"the question or phrase to retrieve fragments for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of fragments to return (default 5)"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Fragments []FragmentOutput `json:"fragments"`
	Count     int              `json:"count"`
}

// FragmentOutput represents a single ranked fragment.
type FragmentOutput struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	URI        string `json:"uri,omitempty" jsonschema:"origin of the text, e.g. a file path or URL"`
	Text       string `json:"text" jsonschema:"the raw text to ingest"`
	Paragraphs bool   `json:"paragraphs,omitempty" jsonschema:"chunk one paragraph per fragment instead of fixed-size sentence windows"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
}

// DeleteInput is the input schema for the delete_document tool.
type DeleteInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to delete"`
	URI        string `json:"uri,omitempty" jsonschema:"the URI the document was ingested with"`
}

// DeleteOutput is the output schema for the delete_document tool.
type DeleteOutput struct {
	Deleted bool `json:"deleted"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Retrieve the most relevant knowledge base fragments for a question",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Add text to the knowledge base",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Remove a document and all its fragments from the knowledge base",
	}, s.handleDelete)
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	ranked, err := s.ports.Query.Query(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Fragments: make([]FragmentOutput, len(ranked)),
		Count:     len(ranked),
	}
	for i := range ranked {
		output.Fragments[i] = FragmentOutput{
			Text:  ranked[i].Text,
			Score: ranked[i].Score,
		}
	}
	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IngestOutput{}, errors.New("mcp: ingestion is not configured")
	}

	var (
		documentID string
		err        error
	)
	if input.Paragraphs {
		documentID, err = s.ports.Ingest.IngestParagraphs(ctx, input.URI, input.Text)
	} else {
		documentID, err = s.ports.Ingest.Ingest(ctx, input.URI, input.Text)
	}
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{DocumentID: documentID}, nil
}

// handleDelete handles the delete_document tool invocation.
func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	if s.ports.Lifecycle == nil {
		return nil, DeleteOutput{}, errors.New("mcp: document lifecycle is not configured")
	}

	if err := s.ports.Lifecycle.Delete(ctx, input.DocumentID, input.URI); err != nil {
		return nil, DeleteOutput{}, err
	}
	return nil, DeleteOutput{Deleted: true}, nil
}
