package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/glance/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
)

// dbFile is the database file name inside the data directory.
const dbFile = "content.db"

// Store is the SQLite-backed content store.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.ContentStore = (*Store)(nil)

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.glance/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".glance", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("getting schema version: %w", err)
	}
	return version, nil
}

// ==================== Content Sources ====================

const sourceColumns = `id, source_type, source_path, content_hash, doc_id,
	chunk_count, ingestion_status, created_at, updated_at`

// GetSourceByPath retrieves a content source by canonical identifier.
func (s *Store) GetSourceByPath(ctx context.Context, path string) (*domain.ContentSource, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sourceColumns+" FROM content_sources WHERE source_path = ?", path)
	return scanSource(row)
}

// CreateSource inserts a content source and its chunks in one transaction.
// Chunk ordinals are assigned by the database and written back to chunks.
func (s *Store) CreateSource(ctx context.Context, source *domain.ContentSource, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO content_sources (`+sourceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, source.ID, string(source.Kind), source.Path, source.ContentHash, source.DocID,
		source.ChunkCount, string(source.Status),
		formatTime(source.CreatedAt), formatTime(source.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, source.Path)
		}
		return fmt.Errorf("inserting source: %w", err)
	}

	if err := insertChunks(ctx, tx, chunks); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ReplaceChunks soft-deletes the current chunks of a source, inserts the
// new version and updates the source row, all in one transaction.
func (s *Store) ReplaceChunks(ctx context.Context, source *domain.ContentSource, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		UPDATE content_sources
		SET content_hash = ?, chunk_count = ?, ingestion_status = ?, updated_at = ?
		WHERE id = ?
	`, source.ContentHash, source.ChunkCount, string(source.Status),
		formatTime(source.UpdatedAt), source.ID)
	if err != nil {
		return fmt.Errorf("updating source: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: source %s", domain.ErrNotFound, source.ID)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE chunks SET is_deleted = 1 WHERE source_id = ? AND is_deleted = 0", source.ID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	if err := insertChunks(ctx, tx, chunks); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// insertChunks writes chunks and stores the assigned ordinals back.
func insertChunks(ctx context.Context, tx *sql.Tx, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, source_id, text, meta, is_deleted, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		chunk := &chunks[i]
		metaJSON, err := json.Marshal(chunk.Meta)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		res, err := stmt.ExecContext(ctx, chunk.ID, chunk.SourceID, chunk.Text,
			string(metaJSON), boolToInt(chunk.Deleted), formatTime(chunk.CreatedAt))
		if err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
		ordinal, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading chunk ordinal: %w", err)
		}
		chunk.Ordinal = ordinal
	}
	return nil
}

// ListChunks returns chunks for a source ordered by ordinal.
func (s *Store) ListChunks(ctx context.Context, sourceID string, includeDeleted bool) ([]domain.Chunk, error) {
	query := `
		SELECT ordinal, id, source_id, text, meta, is_deleted, created_at
		FROM chunks WHERE source_id = ?`
	if !includeDeleted {
		query += " AND is_deleted = 0"
	}
	query += " ORDER BY ordinal"

	rows, err := s.db.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// ListDigests returns the content digest of every source keyed by
// canonical identifier.
func (s *Store) ListDigests(ctx context.Context) (map[string]driven.DigestEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT source_path, content_hash, updated_at FROM content_sources")
	if err != nil {
		return nil, fmt.Errorf("querying digests: %w", err)
	}
	defer rows.Close()

	digests := make(map[string]driven.DigestEntry)
	for rows.Next() {
		var path, hash, updatedAt string
		if err := rows.Scan(&path, &hash, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning digest: %w", err)
		}
		digests[path] = driven.DigestEntry{Hash: hash, UpdatedAt: parseTime(updatedAt)}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating digests: %w", err)
	}
	return digests, nil
}

// Stats returns row counts.
func (s *Store) Stats(ctx context.Context) (*domain.StoreStats, error) {
	var stats domain.StoreStats
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM content_sources),
			(SELECT COUNT(*) FROM chunks WHERE is_deleted = 0),
			(SELECT COUNT(*) FROM chunks WHERE is_deleted = 1)
	`)
	if err := row.Scan(&stats.Sources, &stats.ActiveChunks, &stats.DeletedChunks); err != nil {
		return nil, fmt.Errorf("counting rows: %w", err)
	}
	return &stats, nil
}

// scanSource scans a single content source row.
func scanSource(row *sql.Row) (*domain.ContentSource, error) {
	var (
		src                  domain.ContentSource
		kind, status         string
		createdAt, updatedAt string
	)
	if err := row.Scan(&src.ID, &kind, &src.Path, &src.ContentHash, &src.DocID,
		&src.ChunkCount, &status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}
	src.Kind = domain.SourceKind(kind)
	src.Status = domain.IngestionStatus(status)
	src.CreatedAt = parseTime(createdAt)
	src.UpdatedAt = parseTime(updatedAt)
	return &src, nil
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var (
		chunk     domain.Chunk
		metaJSON  string
		deleted   int
		createdAt string
	)
	if err := rows.Scan(&chunk.Ordinal, &chunk.ID, &chunk.SourceID, &chunk.Text,
		&metaJSON, &deleted, &createdAt); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.Deleted = deleted == 1
	chunk.CreatedAt = parseTime(createdAt)

	if metaJSON != "" {
		if err := json.Unmarshal([]byte(metaJSON), &chunk.Meta); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}
	return &chunk, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// formatTime formats a time as UTC RFC3339 with nanoseconds.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses an RFC3339 string. Returns zero time if it is invalid.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
