// Package sqlite implements the fragment store on an embedded SQLite
// database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. A knowledge
// base is one database holding fragments, their embeddings (little
// endian float32 blobs), documents and the document-to-fragment
// mapping. Lexical ranking runs on an FTS5 external-content index over
// the fragment text; vector ranking runs on a registered
// cosine_distance scalar function, optionally prefiltered by an
// in-memory vector index.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in
// the migrations/ directory.
//
// # Thread Safety
//
// The store handle is safe for concurrent reads. Writers check a
// dedicated connection out of the pool through Session and own it until
// Close. A process-wide registry refuses to open the same knowledge
// base twice; CloseAll tears down every registered handle.
package sqlite
