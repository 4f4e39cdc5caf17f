// Package index implements the on-disk full-text index over flattened
// sheet rows, backed by a SQLite FTS5 database.
//
// A Store names one index location. Indexes are built into a temporary
// file next to it and renamed into place only once complete, so Open
// never sees a partially written index.
package index

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rubiojr/hayao/pkg/log"
)

// SchemaVersion is bumped whenever schema.sql or the tokenizer changes.
// Indexes written with another version are rebuilt.
const SchemaVersion = 1

//go:embed schema.sql
var schemaSQL string

// Store is the durable location of one index.
type Store struct {
	dir  string
	name string
}

func NewStore(dir, name string) *Store {
	return &Store{dir: dir, name: name}
}

// Path is the final location of the index database.
func (s *Store) Path() string {
	return filepath.Join(s.dir, s.name+".db")
}

func (s *Store) tempPattern() string {
	return filepath.Join(s.dir, "."+s.name+".build-*.db")
}

func (s *Store) newTempPath() string {
	return filepath.Join(s.dir, "."+s.name+".build-"+uuid.NewString()+".db")
}

// Exists reports whether an index file is present at Path. It says nothing
// about whether the file is usable; Open does.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.Path())
	return err == nil && info.Mode().IsRegular()
}

// Create starts a new index build. The returned Writer must be committed or
// aborted. Create fails with ErrExists while an index is in place: Delete it
// first.
func (s *Store) Create(ctx context.Context) (*Writer, error) {
	if s.Exists() {
		return nil, fmt.Errorf("%s: %w", s.Path(), ErrExists)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	tmp := s.newTempPath()
	w, err := newWriter(ctx, s, tmp)
	if err != nil {
		removeDatabase(tmp)
		return nil, err
	}
	return w, nil
}

// Open opens the index read-only. A file that is not a complete index of
// the current schema yields a *CorruptError; a missing one os.ErrNotExist.
func (s *Store) Open() (*Index, error) {
	path := s.Path()
	if !s.Exists() {
		return nil, fmt.Errorf("opening index %s: %w", path, os.ErrNotExist)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dsn := (&url.URL{
		Scheme:   "file",
		OmitHost: true,
		Path:     filepath.ToSlash(abs),
		RawQuery: "mode=ro",
	}).String()

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}

	meta, err := readMeta(db)
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			log.ForService("index").Warnf("closing %s: %v", path, cerr)
		}
		return nil, &CorruptError{Path: path, Err: err}
	}

	return &Index{db: db, path: path, meta: meta}, nil
}

// Delete removes the index, its journal files and any leftover temporary
// build files. Deleting a missing index is not an error.
func (s *Store) Delete() error {
	if err := removeFile(s.Path()); err != nil {
		return fmt.Errorf("deleting index: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		if err := removeFile(s.Path() + suffix); err != nil {
			return fmt.Errorf("deleting index: %w", err)
		}
	}

	stale, err := filepath.Glob(s.tempPattern())
	if err != nil {
		return err
	}
	for _, tmp := range stale {
		log.ForService("index").Debugf("removing stale build %s", tmp)
		removeDatabase(tmp)
	}
	return nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// removeDatabase removes a database file and its journals, logging failures.
func removeDatabase(path string) {
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		if err := removeFile(p); err != nil {
			log.ForService("index").Warnf("removing %s: %v", p, err)
		}
	}
}

func readMeta(db *sql.DB) (Meta, error) {
	rows, err := db.Query("SELECT key, value FROM index_meta")
	if err != nil {
		return Meta{}, fmt.Errorf("reading index metadata: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.ForService("index").Warnf("failed to close rows: %v", err)
		}
	}()

	values := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Meta{}, fmt.Errorf("reading index metadata: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return Meta{}, fmt.Errorf("reading index metadata: %w", err)
	}

	if values[metaComplete] != "1" {
		return Meta{}, errors.New("index build was not completed")
	}
	version, err := strconv.Atoi(values[metaSchemaVersion])
	if err != nil || version != SchemaVersion {
		return Meta{}, fmt.Errorf("schema version %q, want %d", values[metaSchemaVersion], SchemaVersion)
	}
	return decodeMeta(values)
}
