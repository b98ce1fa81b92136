package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/aman-cerp/semindex/internal/model"
)

// SQLiteFragmentStore implements FragmentStore over a per-container SQLite
// database, using the same WAL/pragma configuration as SQLiteBM25Index so
// both stores tolerate concurrent readers from the same process.
type SQLiteFragmentStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

var _ FragmentStore = (*SQLiteFragmentStore)(nil)

// NewSQLiteFragmentStore opens (creating if necessary) the metadata
// database at path. An empty path opens an in-memory database, used by
// tests.
func NewSQLiteFragmentStore(path string) (*SQLiteFragmentStore, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	s := &SQLiteFragmentStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteFragmentStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS files (
		path           TEXT PRIMARY KEY,
		mtime          INTEGER NOT NULL,
		freshness_hash TEXT NOT NULL,
		extractor      TEXT NOT NULL,
		language       TEXT
	);

	CREATE TABLE IF NOT EXISTS fragments (
		id           TEXT PRIMARY KEY,
		path         TEXT NOT NULL,
		ordinal      INTEGER NOT NULL,
		offset_start INTEGER NOT NULL,
		offset_end   INTEGER NOT NULL,
		text         TEXT NOT NULL,
		vector       BLOB NOT NULL,
		chunk_kind   TEXT NOT NULL,
		language     TEXT,
		mtime        INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_fragments_path ON fragments(path);

	CREATE TABLE IF NOT EXISTS annotations (
		id         TEXT PRIMARY KEY,
		path       TEXT NOT NULL,
		source     TEXT NOT NULL,
		note       TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_annotations_path ON annotations(path);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", CurrentSchemaVersion); err != nil {
			return err
		}
	}
	return nil
}

// UpsertFragments inserts or replaces fragments by ID, atomic per call.
func (s *SQLiteFragmentStore) UpsertFragments(ctx context.Context, fragments []*model.Fragment) error {
	if len(fragments) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fragments (id, path, ordinal, offset_start, offset_end, text, vector, chunk_kind, language, mtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path=excluded.path, ordinal=excluded.ordinal, offset_start=excluded.offset_start,
			offset_end=excluded.offset_end, text=excluded.text, vector=excluded.vector,
			chunk_kind=excluded.chunk_kind, language=excluded.language, mtime=excluded.mtime
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, f := range fragments {
		vecBlob, err := encodeVector(f.Vector)
		if err != nil {
			return fmt.Errorf("encode vector for fragment %s: %w", f.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, f.ID, f.Path, f.Ordinal, f.OffsetStart, f.OffsetEnd,
			f.Text, vecBlob, string(f.ChunkKind), f.Language, f.MTime.Unix()); err != nil {
			return fmt.Errorf("upsert fragment %s: %w", f.ID, err)
		}
	}

	return tx.Commit()
}

// DeleteByPath removes all fragments owned by path.
func (s *SQLiteFragmentStore) DeleteByPath(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM fragments WHERE path = ?", path)
	return err
}

// GetFragmentsByPath returns all fragments owned by path, ordered by ordinal.
func (s *SQLiteFragmentStore) GetFragmentsByPath(ctx context.Context, path string) ([]*model.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, ordinal, offset_start, offset_end, text, vector, chunk_kind, language, mtime
		FROM fragments WHERE path = ? ORDER BY ordinal ASC`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFragments(rows)
}

// GetFragments batch-retrieves fragments by ID.
func (s *SQLiteFragmentStore) GetFragments(ctx context.Context, ids []string) ([]*model.Fragment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	placeholders := make([]byte, 0, len(ids)*2)
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, path, ordinal, offset_start, offset_end, text, vector, chunk_kind, language, mtime
		FROM fragments WHERE id IN (%s)`, string(placeholders))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFragments(rows)
}

func scanFragments(rows *sql.Rows) ([]*model.Fragment, error) {
	var out []*model.Fragment
	for rows.Next() {
		f := &model.Fragment{}
		var chunkKind string
		var language sql.NullString
		var vecBlob []byte
		var mtimeUnix int64

		if err := rows.Scan(&f.ID, &f.Path, &f.Ordinal, &f.OffsetStart, &f.OffsetEnd,
			&f.Text, &vecBlob, &chunkKind, &language, &mtimeUnix); err != nil {
			return nil, err
		}
		vec, err := decodeVector(vecBlob)
		if err != nil {
			return nil, fmt.Errorf("decode vector for fragment %s: %w", f.ID, err)
		}
		f.Vector = vec
		f.ChunkKind = model.ChunkKind(chunkKind)
		f.Language = language.String
		f.MTime = unixToTime(mtimeUnix)
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpsertFileRecord inserts or replaces a file's freshness token.
func (s *SQLiteFragmentStore) UpsertFileRecord(ctx context.Context, file *model.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (path, mtime, freshness_hash, extractor, language)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			mtime=excluded.mtime, freshness_hash=excluded.freshness_hash,
			extractor=excluded.extractor, language=excluded.language`,
		file.Path, file.MTime.Unix(), file.FreshnessHash, string(file.Extractor), file.Language)
	return err
}

// GetFileRecord returns the freshness token for path, or nil if untracked.
func (s *SQLiteFragmentStore) GetFileRecord(ctx context.Context, path string) (*model.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT path, mtime, freshness_hash, extractor, language FROM files WHERE path = ?`, path)
	f := &model.FileRecord{}
	var extractor string
	var language sql.NullString
	var mtimeUnix int64
	if err := row.Scan(&f.Path, &mtimeUnix, &f.FreshnessHash, &extractor, &language); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	f.MTime = unixToTime(mtimeUnix)
	f.Extractor = model.ExtractorKind(extractor)
	f.Language = language.String
	return f, nil
}

// DeleteFileRecord removes a file's freshness token and its fragments.
func (s *SQLiteFragmentStore) DeleteFileRecord(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM files WHERE path = ?", path); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM fragments WHERE path = ?", path); err != nil {
		return err
	}
	return tx.Commit()
}

// ScanFileRecords returns every tracked file's freshness token, for
// incremental rescans (reindex_delta).
func (s *SQLiteFragmentStore) ScanFileRecords(ctx context.Context) ([]*model.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx, "SELECT path, mtime, freshness_hash, extractor, language FROM files")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.FileRecord
	for rows.Next() {
		f := &model.FileRecord{}
		var extractor string
		var language sql.NullString
		var mtimeUnix int64
		if err := rows.Scan(&f.Path, &mtimeUnix, &f.FreshnessHash, &extractor, &language); err != nil {
			return nil, err
		}
		f.MTime = unixToTime(mtimeUnix)
		f.Extractor = model.ExtractorKind(extractor)
		f.Language = language.String
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpsertAnnotation inserts or replaces an annotation by ID.
func (s *SQLiteFragmentStore) UpsertAnnotation(ctx context.Context, a *model.Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO annotations (id, path, source, note, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path=excluded.path, source=excluded.source, note=excluded.note, created_at=excluded.created_at`,
		a.ID, a.Path, string(a.Source), a.Note, a.CreatedAt.Unix())
	return err
}

// GetAnnotation returns a single annotation by ID, or nil if not found.
func (s *SQLiteFragmentStore) GetAnnotation(ctx context.Context, id string) (*model.Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	row := s.db.QueryRowContext(ctx, "SELECT id, path, source, note, created_at FROM annotations WHERE id = ?", id)
	a := &model.Annotation{}
	var source string
	var createdAtUnix int64
	if err := row.Scan(&a.ID, &a.Path, &source, &a.Note, &createdAtUnix); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	a.Source = model.AnnotationSource(source)
	a.CreatedAt = unixToTime(createdAtUnix)
	return a, nil
}

// GetAnnotationsByPath returns every annotation attached to path.
func (s *SQLiteFragmentStore) GetAnnotationsByPath(ctx context.Context, path string) ([]*model.Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, path, source, note, created_at FROM annotations WHERE path = ?", path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Annotation
	for rows.Next() {
		a := &model.Annotation{}
		var source string
		var createdAtUnix int64
		if err := rows.Scan(&a.ID, &a.Path, &source, &a.Note, &createdAtUnix); err != nil {
			return nil, err
		}
		a.Source = model.AnnotationSource(source)
		a.CreatedAt = unixToTime(createdAtUnix)
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAnnotation removes an annotation by ID. It is independent of any
// file's lifecycle.
func (s *SQLiteFragmentStore) DeleteAnnotation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM annotations WHERE id = ?", id)
	return err
}

// Clear drops every row, used by reindex_all and container deletion.
func (s *SQLiteFragmentStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"fragments", "files", "annotations"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Stats reports row counts for the index_status command.
func (s *SQLiteFragmentStore) Stats(ctx context.Context) (FragmentStoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return FragmentStoreStats{}, fmt.Errorf("store is closed")
	}

	var stats FragmentStoreStats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&stats.TotalFiles); err != nil {
		return FragmentStoreStats{}, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fragments").Scan(&stats.TotalFragments); err != nil {
		return FragmentStoreStats{}, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM annotations").Scan(&stats.TotalAnnotations); err != nil {
		return FragmentStoreStats{}, err
	}
	return stats, nil
}

// Close releases the underlying database handle.
func (s *SQLiteFragmentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func encodeVector(v []float32) ([]byte, error) {
	return json.Marshal(v)
}

func decodeVector(blob []byte) ([]float32, error) {
	var v []float32
	if err := json.Unmarshal(blob, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func unixToTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
