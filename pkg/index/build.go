package index

import (
	"context"
	"fmt"

	"github.com/rubiojr/hayao/pkg/core"
	"github.com/rubiojr/hayao/pkg/log"
)

// Build indexes every row of every sheet of ds into store and opens the
// result. Either a complete index is returned or nothing is left at the
// store path.
func Build(ctx context.Context, store *Store, ds core.Dataset) (*Index, error) {
	logger := log.ForService("index")

	w, err := store.Create(ctx)
	if err != nil {
		return nil, err
	}
	w.SetSource(ds.Origin, ds.Fingerprint)

	for _, sheet := range ds.Sheets {
		logger.Debugf("indexing sheet %q (%d rows)", sheet.Name, len(sheet.Rows))
		for _, row := range sheet.Rows {
			if err := w.Add(ctx, core.Flatten(sheet.Name, row)); err != nil {
				w.Abort()
				return nil, fmt.Errorf("building index: %w", err)
			}
		}
	}

	if w.Count() == 0 {
		logger.Warnf("source %s has no rows, the index will be empty", ds.Origin)
	}

	if err := w.Commit(ctx); err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	return store.Open()
}
