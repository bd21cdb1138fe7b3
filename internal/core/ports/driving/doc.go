// Package driving defines the interfaces through which hosts drive the core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI, TUI, MCP server and drop-directory watcher depend on these
// interfaces; the core services implement them.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or service package
package driving
