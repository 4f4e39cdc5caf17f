package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rubiojr/hayao/pkg/core"
	"github.com/rubiojr/hayao/pkg/log"
)

// Writer fills a new index. Documents are written inside a single
// transaction to a temporary file; Commit publishes the file at the store
// path, Abort discards it.
type Writer struct {
	store   *Store
	tmpPath string
	db      *sql.DB
	tx      *sql.Tx
	docStmt *sql.Stmt
	ftsStmt *sql.Stmt
	sheets  map[string]struct{}
	count   int
	source  string
	finger  string
	done    bool
}

func newWriter(ctx context.Context, store *Store, tmpPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", tmpPath)
	if err != nil {
		return nil, fmt.Errorf("creating index database: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	w := &Writer{store: store, tmpPath: tmpPath, db: db, sheets: map[string]struct{}{}}

	// A rollback journal instead of WAL keeps the finished index a single
	// file that can be opened read-only.
	pragmas := []string{
		"PRAGMA journal_mode = DELETE",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = memory",
		"PRAGMA cache_size = -64000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			w.close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		w.close()
		return nil, fmt.Errorf("creating index schema: %w", err)
	}

	if w.tx, err = db.BeginTx(ctx, nil); err != nil {
		w.close()
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	if w.docStmt, err = w.tx.PrepareContext(ctx,
		"INSERT INTO documents (id, sheet_name, original_data) VALUES (?, ?, ?)"); err != nil {
		w.close()
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	if w.ftsStmt, err = w.tx.PrepareContext(ctx,
		"INSERT INTO documents_fts (rowid, sheet_name, all_content) VALUES (?, ?, ?)"); err != nil {
		w.close()
		return nil, fmt.Errorf("preparing FTS statement: %w", err)
	}

	log.ForService("index").Debugf("building index in %s", tmpPath)
	return w, nil
}

// Add indexes one document. Documents get increasing ids in the order they
// are added, which breaks ranking ties at search time.
func (w *Writer) Add(ctx context.Context, doc core.Document) error {
	if w.done {
		return fmt.Errorf("index writer already finished")
	}

	data, err := doc.OriginalData.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding row of sheet %q: %w", doc.SheetName, err)
	}

	id := w.count + 1
	if _, err := w.docStmt.ExecContext(ctx, id, doc.SheetName, string(data)); err != nil {
		return fmt.Errorf("inserting document %d: %w", id, err)
	}
	if _, err := w.ftsStmt.ExecContext(ctx, id, tokenText(doc.SheetName), tokenText(doc.AllContent)); err != nil {
		return fmt.Errorf("indexing document %d: %w", id, err)
	}

	w.count++
	w.sheets[doc.SheetName] = struct{}{}
	return nil
}

// SetSource records where the indexed data came from.
func (w *Writer) SetSource(origin, fingerprint string) {
	w.source = origin
	w.finger = fingerprint
}

// Count returns the number of documents added so far.
func (w *Writer) Count() int {
	return w.count
}

// Commit finishes the index and moves it to the store path. On error the
// temporary file is removed and nothing is published.
func (w *Writer) Commit(ctx context.Context) (err error) {
	if w.done {
		return fmt.Errorf("index writer already finished")
	}
	defer func() {
		if err != nil {
			w.Abort()
		}
	}()

	meta := Meta{
		BuiltAt:     time.Now(),
		Documents:   w.count,
		Sheets:      len(w.sheets),
		Fingerprint: w.finger,
		Source:      w.source,
	}
	for k, v := range meta.encode() {
		if _, err := w.tx.ExecContext(ctx, "INSERT INTO index_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("writing index metadata: %w", err)
		}
	}

	w.closeStatements()
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	w.tx = nil

	if _, err := w.db.ExecContext(ctx, "INSERT INTO documents_fts (documents_fts) VALUES ('optimize')"); err != nil {
		return fmt.Errorf("optimizing index: %w", err)
	}
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("closing index database: %w", err)
	}
	w.db = nil

	if err := syncFile(w.tmpPath); err != nil {
		return fmt.Errorf("syncing index: %w", err)
	}
	if w.store.Exists() {
		return fmt.Errorf("%s: %w", w.store.Path(), ErrExists)
	}
	if err := os.Rename(w.tmpPath, w.store.Path()); err != nil {
		return fmt.Errorf("publishing index: %w", err)
	}
	w.done = true
	syncDir(filepath.Dir(w.store.Path()))

	log.ForService("index").Infof("index written to %s (%d documents, %d sheets)", w.store.Path(), meta.Documents, meta.Sheets)
	return nil
}

// Abort discards the build. It is safe to call more than once and after a
// failed Commit.
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.close()
	removeDatabase(w.tmpPath)
}

func (w *Writer) closeStatements() {
	for _, stmt := range []*sql.Stmt{w.docStmt, w.ftsStmt} {
		if stmt == nil {
			continue
		}
		if err := stmt.Close(); err != nil {
			log.ForService("index").Warnf("failed to close statement: %v", err)
		}
	}
	w.docStmt, w.ftsStmt = nil, nil
}

func (w *Writer) close() {
	w.closeStatements()
	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			log.ForService("index").Warnf("failed to rollback transaction: %v", err)
		}
		w.tx = nil
	}
	if w.db != nil {
		if err := w.db.Close(); err != nil {
			log.ForService("index").Warnf("failed to close index database: %v", err)
		}
		w.db = nil
	}
}

func syncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// syncDir makes the rename durable. Not every platform supports syncing a
// directory, so failures are only logged.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		log.ForService("index").Debugf("syncing %s: %v", dir, err)
	}
}
