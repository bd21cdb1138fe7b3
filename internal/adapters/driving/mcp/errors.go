// Package mcp provides an MCP (Model Context Protocol) server adapter
// for AI4All. It lets AI assistants query and manage the local knowledge
// base over stdio or HTTP.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
