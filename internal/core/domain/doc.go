// Package domain defines the core business entities for Glance.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Window, Display: live inventory of visible windows
//   - WindowState: the per-window scheduler state machine
//   - Fingerprint: perceptual hash used for change detection
//   - ContentPayload: extracted content in flight to ingestion
//   - ContentSource, Chunk: the persistent ingestion records
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
