// Package sqlite provides the SQLite implementation of driven.ContentStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Two tables hold the ingested content:
//
//   - content_sources: one row per canonical identifier, updated in place
//   - chunks: chunk text and metadata, soft-deleted when superseded
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.glance/data/content.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. Writes that span tables run
// in a single transaction; SQLite in WAL mode serialises writers.
package sqlite
