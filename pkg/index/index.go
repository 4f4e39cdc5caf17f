package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rubiojr/hayao/pkg/core"
	"github.com/rubiojr/hayao/pkg/log"
	"github.com/rubiojr/hayao/pkg/query"
)

// MaxResults caps every search.
const MaxResults = 50

// Hit is one matching document: its stored fields.
type Hit struct {
	SheetName    string   `json:"sheet_name"`
	OriginalData core.Row `json:"original_data"`
}

// Index is a read-only handle on a built index. It is safe for concurrent
// searches.
type Index struct {
	db   *sql.DB
	path string
	meta Meta
}

// Meta returns the metadata recorded when the index was built.
func (ix *Index) Meta() Meta {
	return ix.meta
}

// Path returns the database file backing the index.
func (ix *Index) Path() string {
	return ix.path
}

// Search returns the documents matching every clause of q, best match first
// and ties in insertion order. limit is clamped to 1..MaxResults, so the same
// query against the same index always returns the same documents.
func (ix *Index) Search(ctx context.Context, q query.Query, limit int) ([]Hit, error) {
	match, err := MatchExpression(q)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}

	log.ForService("index").Debugf("search %q -> MATCH %s", q.Normalized, match)

	rows, err := ix.db.QueryContext(ctx, `
		SELECT d.sheet_name, d.original_data
		FROM documents_fts
		JOIN documents d ON d.id = documents_fts.rowid
		WHERE documents_fts MATCH ?
		ORDER BY bm25(documents_fts), d.id
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.ForService("index").Warnf("failed to close rows: %v", err)
		}
	}()

	hits := make([]Hit, 0, limit)
	for rows.Next() {
		var (
			sheet string
			data  string
		)
		if err := rows.Scan(&sheet, &data); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var row core.Row
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			return nil, fmt.Errorf("decoding stored row: %w", err)
		}
		hits = append(hits, Hit{SheetName: sheet, OriginalData: row})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}
	return hits, nil
}

// Close releases the database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}
