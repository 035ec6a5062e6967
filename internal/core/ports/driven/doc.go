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
//   - ContentStore: ContentSource and Chunk persistence (SQLite)
//   - Chunker: Splits normalised text into chunk texts
//   - Normaliser: Canonicalises payload text by format
//   - ConfigStore: Application configuration (TOML)
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - WindowSource: Without it no windows are tracked; push still works.
//   - ActivationSource: Without it focus changes are only seen by polling.
//   - ScreenCapturer: Without it capture always fails and windows fall
//     through to the problematic state.
//   - Extractor: Missing kinds are skipped in the fallback chain.
//   - DeviceMonitor: Without it the normal power mode is assumed.
//   - ConfigWatcher: Without it configuration is never reloaded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
