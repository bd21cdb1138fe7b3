// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. Ingestion fans chunks out over an
// errgroup worker pool; everything else is a thin orchestration layer
// over the driven ports.
package services
