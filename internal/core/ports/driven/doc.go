// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - FragmentStore: Fragment, document and mapping persistence plus the
//     fused hybrid ranking query. Backed by SQLite.
//   - Embedder: Turns a chunk of text into a pooled, L2-normalised vector.
//
// # Capability Interfaces
//
// These sit at the process boundary and are consumed, not owned:
//
//   - Encoder: The external sequence encoder and its tokenizer.
//   - VectorIndex: Cosine similarity index over fragment embeddings.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
