// Package domain defines the core business entities for the AI4All
// retrieval backend.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A transient segment of input text
//   - Fragment: A persisted chunk with its embedding vector
//   - Document: One ingestion call, keyed by (document_id, uri)
//   - Result: The tagged union of asynchronous events
//   - RetrievalConfig: The immutable process-wide settings
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
