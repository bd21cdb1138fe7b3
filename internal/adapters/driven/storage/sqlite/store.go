package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sheldonrobinson/AI4All/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/sheldonrobinson/AI4All/internal/core/domain"
	"github.com/sheldonrobinson/AI4All/internal/core/ports/driven"
	"github.com/sheldonrobinson/AI4All/internal/logger"
)

// dimensionKey is the kb_meta row holding the embedding dimension the
// knowledge base was created with.
const dimensionKey = "dimension"

// openStores tracks every live store handle by its registry key so the
// same knowledge base cannot be opened twice in one process.
var (
	openMu     sync.Mutex
	openStores = map[string]*Store{}
)

// Store is the SQLite-backed fragment store. One handle per knowledge
// base; shared for reads, write connections are checked out per task.
type Store struct {
	db     *sql.DB
	key    string
	path   string
	vindex driven.VectorIndex

	mu  sync.RWMutex
	dim int
}

var _ driven.FragmentStore = (*Store)(nil)

// NewStore opens (or creates) the knowledge base file at dbPath. The
// same path cannot be open twice in one process. vindex may be nil, in
// which case ranking queries scan every fragment.
func NewStore(dbPath string, vindex driven.VectorIndex) (*Store, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, domain.NewStoreError(domain.CodeOpen, "open", err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0700); err != nil {
		return nil, domain.NewStoreError(domain.CodeOpen, "open", err)
	}

	dsn := abs + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	return open("file:"+abs, dsn, abs, vindex)
}

// OpenMemory opens (or creates) an in-memory knowledge base. The shared
// cache keeps the database alive across connections as long as the
// handle stays open.
func OpenMemory(name string, vindex driven.VectorIndex) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	return open("memory:"+name, dsn, "", vindex)
}

func open(key, dsn, path string, vindex driven.VectorIndex) (*Store, error) {
	openMu.Lock()
	defer openMu.Unlock()

	if _, ok := openStores[key]; ok {
		return nil, domain.NewStoreError(domain.CodeKBConflict, "open",
			fmt.Errorf("%w: %s", domain.ErrAlreadyOpen, key))
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, domain.NewStoreError(domain.CodeOpen, "open", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, domain.NewStoreError(domain.CodeConnect, "connect", err)
	}

	s := &Store{
		db:     db,
		key:    key,
		path:   path,
		vindex: vindex,
	}
	openStores[key] = s
	return s, nil
}

// Path returns the database file path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Setup creates all tables and indexes, records the embedding dimension
// and loads existing vectors into the vector index. Idempotent.
func (s *Store) Setup(ctx context.Context, dim int) error {
	if dim <= 0 {
		return domain.NewStoreError(domain.CodeSchema, "setup",
			fmt.Errorf("%w: dimension %d", domain.ErrInvalidConfig, dim))
	}

	if err := s.migrate(migrations.FS); err != nil {
		return domain.NewStoreError(domain.CodeSchema, "setup", err)
	}

	if err := s.ensureDimension(ctx, dim); err != nil {
		return err
	}

	// Refresh the text index tolerantly first; fall back to a full
	// overwrite when the incremental pass fails.
	if err := s.RebuildTextIndex(ctx, false); err != nil {
		if err := s.RebuildTextIndex(ctx, true); err != nil {
			return err
		}
	}

	return s.loadVectors(ctx)
}

// ensureDimension records dim on first setup and rejects a mismatch on
// every later one.
func (s *Store) ensureDimension(ctx context.Context, dim int) error {
	var stored string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kb_meta WHERE key = ?", dimensionKey).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO kb_meta (key, value) VALUES (?, ?)",
			dimensionKey, strconv.Itoa(dim))
		if err != nil {
			return domain.NewStoreError(domain.CodeSchema, "setup", err)
		}
	case err != nil:
		return domain.NewStoreError(domain.CodeSchema, "setup", err)
	default:
		existing, err := strconv.Atoi(stored)
		if err != nil {
			return domain.NewStoreError(domain.CodeSchema, "setup", err)
		}
		if existing != dim {
			return domain.NewStoreError(domain.CodeSchema, "setup",
				fmt.Errorf("%w: store has %d, configured %d",
					domain.ErrDimensionMismatch, existing, dim))
		}
	}

	s.mu.Lock()
	s.dim = dim
	s.mu.Unlock()
	return nil
}

// loadVectors streams every stored embedding into the vector index.
func (s *Store) loadVectors(ctx context.Context) error {
	if s.vindex == nil {
		return nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT frag_id, embedding FROM embeddings")
	if err != nil {
		return domain.NewStoreError(domain.CodePrepare, "setup", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fragID string
		var blob []byte
		if err := rows.Scan(&fragID, &blob); err != nil {
			return domain.NewStoreError(domain.CodeRow, "setup", err)
		}
		if err := s.vindex.Add(ctx, fragID, bytesToFloat32Slice(blob)); err != nil {
			return fmt.Errorf("indexing vector %s: %w", fragID, err)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.NewStoreError(domain.CodeRow, "setup", err)
	}
	return nil
}

// dimension returns the configured embedding dimension, 0 before Setup.
func (s *Store) dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Session checks a write connection out of the pool.
func (s *Store) Session(ctx context.Context) (driven.WriteSession, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, domain.NewStoreError(domain.CodeConnect, "session", err)
	}
	return &writeSession{conn: conn, store: s}, nil
}

// PutDocument appends one documents row. Re-appending the same pair is
// a no-op.
func (s *Store) PutDocument(ctx context.Context, doc domain.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO documents (document_id, uri, embedding_size)
		VALUES (?, ?, ?)
	`, doc.DocumentID, doc.URI, doc.EmbeddingSize)
	if err != nil {
		return domain.NewStoreError(domain.CodeAppend, "put document", err)
	}
	return nil
}

// FragmentsByDocument streams every fragment mapped to documentID.
func (s *Store) FragmentsByDocument(ctx context.Context, documentID string, fn func(domain.Fragment) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.frag_id, e.content, e.embedding
		FROM embeddings e
		JOIN document_fragments df ON df.frag_id = e.frag_id
		WHERE df.document_id = ?
		ORDER BY e.embedding_id
	`, documentID)
	if err != nil {
		return domain.NewStoreError(domain.CodePrepare, "fragments by document", err)
	}
	defer rows.Close()

	for rows.Next() {
		var frag domain.Fragment
		var blob []byte
		if err := rows.Scan(&frag.FragID, &frag.Text, &blob); err != nil {
			return domain.NewStoreError(domain.CodeRow, "fragments by document", err)
		}
		frag.Embedding = bytesToFloat32Slice(blob)
		if err := fn(frag); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return domain.NewStoreError(domain.CodeRow, "fragments by document", err)
	}
	return nil
}

// DeleteDocument removes a document and everything derived from it:
// embeddings first, then the mapping, then the documents row. The
// vector index is compacted, the WAL checkpointed, and the text index
// rebuilt in the background. Deleting an unknown pair is a no-op.
func (s *Store) DeleteDocument(ctx context.Context, documentID, uri string) error {
	fragIDs, err := s.fragIDs(ctx, documentID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewStoreError(domain.CodeConnect, "delete document", err)
	}
	defer tx.Rollback() //nolint:errcheck

	steps := []struct {
		op  string
		sql string
	}{
		{"delete embeddings", `
			DELETE FROM embeddings WHERE frag_id IN
				(SELECT frag_id FROM document_fragments WHERE document_id = ?)
		`},
		{"delete mapping", "DELETE FROM document_fragments WHERE document_id = ?"},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.sql, documentID); err != nil {
			return domain.NewStoreError(domain.CodePrepare, step.op, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM documents WHERE document_id = ? AND uri = ?",
		documentID, uri); err != nil {
		return domain.NewStoreError(domain.CodePrepare, "delete document", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.NewStoreError(domain.CodePrepare, "delete document", err)
	}

	if s.vindex != nil {
		for _, fragID := range fragIDs {
			if err := s.vindex.Delete(ctx, fragID); err != nil {
				return fmt.Errorf("unindexing vector %s: %w", fragID, err)
			}
		}
		if err := s.vindex.Compact(ctx); err != nil {
			return fmt.Errorf("compacting vector index: %w", err)
		}
	}

	if err := s.Checkpoint(ctx); err != nil {
		return err
	}

	go func() {
		if err := s.RebuildTextIndex(context.Background(), true); err != nil {
			logger.Warn("background text index rebuild failed: %v", err)
		}
	}()

	return nil
}

// fragIDs lists the fragment ids mapped to documentID.
func (s *Store) fragIDs(ctx context.Context, documentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT frag_id FROM document_fragments WHERE document_id = ?", documentID)
	if err != nil {
		return nil, domain.NewStoreError(domain.CodePrepare, "delete document", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.NewStoreError(domain.CodeRow, "delete document", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError(domain.CodeRow, "delete document", err)
	}
	return ids, nil
}

// RebuildTextIndex refreshes the full-text index from the content
// table. With overwrite the index is emptied first.
func (s *Store) RebuildTextIndex(ctx context.Context, overwrite bool) error {
	if overwrite {
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO fragment_fts(fragment_fts) VALUES('delete-all')"); err != nil {
			return domain.NewStoreError(domain.CodeTextIndex, "rebuild text index", err)
		}
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO fragment_fts(fragment_fts) VALUES('rebuild')"); err != nil {
		return domain.NewStoreError(domain.CodeTextIndex, "rebuild text index", err)
	}
	return nil
}

// Checkpoint truncates the write-ahead log. A no-op for in-memory
// stores.
func (s *Store) Checkpoint(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return domain.NewStoreError(domain.CodePrepare, "checkpoint", err)
	}
	return nil
}

// Stats reports document and fragment counts.
func (s *Store) Stats(ctx context.Context) (documents, fragments int, err error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM documents), (SELECT COUNT(*) FROM embeddings)")
	if err := row.Scan(&documents, &fragments); err != nil {
		return 0, 0, domain.NewStoreError(domain.CodeRow, "stats", err)
	}
	return documents, fragments, nil
}

// Close releases the handle and unregisters it from the open set.
func (s *Store) Close() error {
	openMu.Lock()
	delete(openStores, s.key)
	openMu.Unlock()

	if s.vindex != nil {
		if err := s.vindex.Close(); err != nil {
			return domain.NewStoreError(domain.CodeClose, "close", err)
		}
	}
	if err := s.db.Close(); err != nil {
		return domain.NewStoreError(domain.CodeClose, "close", err)
	}
	return nil
}

// CloseAll closes every open store handle. Errors are collected, not
// short-circuited, so one failing handle does not leak the rest.
func CloseAll() error {
	openMu.Lock()
	stores := make([]*Store, 0, len(openStores))
	for _, s := range openStores {
		stores = append(stores, s)
	}
	openMu.Unlock()

	var errs []error
	for _, s := range stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// writeSession is one checked-out write connection.
type writeSession struct {
	conn  *sql.Conn
	store *Store
}

var _ driven.WriteSession = (*writeSession)(nil)

// InsertFragment appends one fragment row and indexes its vector.
func (w *writeSession) InsertFragment(ctx context.Context, frag domain.Fragment) error {
	if dim := w.store.dimension(); dim != 0 && len(frag.Embedding) != dim {
		return domain.NewStoreError(domain.CodeBind, "insert fragment",
			fmt.Errorf("%w: vector has %d, store has %d",
				domain.ErrDimensionMismatch, len(frag.Embedding), dim))
	}

	_, err := w.conn.ExecContext(ctx, `
		INSERT INTO embeddings (frag_id, content, embedding)
		VALUES (?, ?, ?)
	`, frag.FragID, frag.Text, float32SliceToBytes(frag.Embedding))
	if err != nil {
		return domain.NewStoreError(domain.CodeAppend, "insert fragment", err)
	}

	if w.store.vindex != nil {
		if err := w.store.vindex.Add(ctx, frag.FragID, frag.Embedding); err != nil {
			return fmt.Errorf("indexing vector %s: %w", frag.FragID, err)
		}
	}
	return nil
}

// MapFragment appends one document-to-fragment mapping row.
func (w *writeSession) MapFragment(ctx context.Context, documentID, fragID string) error {
	_, err := w.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO document_fragments (document_id, frag_id)
		VALUES (?, ?)
	`, documentID, fragID)
	if err != nil {
		return domain.NewStoreError(domain.CodeAppend, "map fragment", err)
	}
	return nil
}

// Close returns the connection to the pool.
func (w *writeSession) Close() error {
	if err := w.conn.Close(); err != nil {
		return domain.NewStoreError(domain.CodeClose, "close session", err)
	}
	return nil
}

// migrate runs all pending migrations.
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
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
