package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rubiojr/hayao/pkg/index"
	"github.com/rubiojr/hayao/pkg/warehouse"
	"github.com/urfave/cli/v3"
)

// StatusCommand creates the status command
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the state of the search index",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the status as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			wh, err := openWarehouse(cfg, true)
			if err != nil {
				return err
			}
			defer closeWarehouse(wh)

			st, err := indexStatus(wh, index.NewStore(cfg.StorageDir, cfg.IndexName))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			formatStatus(os.Stdout, st)
			return nil
		},
	}
}

// indexStatus reports on the index without building it: an existing index
// is opened read-only, a missing one is reported as absent.
func indexStatus(wh *warehouse.Warehouse, store *index.Store) (warehouse.Status, error) {
	if !store.Exists() {
		return wh.Status(), nil
	}

	ix, err := store.Open()
	if err != nil {
		var corrupt *index.CorruptError
		if errors.As(err, &corrupt) {
			st := wh.Status()
			st.LastError = corrupt.Error()
			return st, nil
		}
		return warehouse.Status{}, fmt.Errorf("opening index: %w", err)
	}
	defer ix.Close()

	st := wh.Status()
	st.State = warehouse.Ready.String()
	st.Meta = ix.Meta()
	return st, nil
}
