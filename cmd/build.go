package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rubiojr/hayao/pkg/warehouse"
	"github.com/urfave/cli/v3"
)

// BuildCommand creates the build command
func BuildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Build the search index if it does not exist yet",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Read remote sources from the download cache instead of the network",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			wh, err := openWarehouse(cfg, c.Bool("offline"))
			if err != nil {
				return err
			}
			defer closeWarehouse(wh)

			return buildIndex(ctx, wh)
		},
	}
}

// buildIndex opens the existing index or builds a new one.
func buildIndex(ctx context.Context, wh *warehouse.Warehouse) error {
	start := time.Now()
	if err := wh.EnsureReady(ctx); err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	st := wh.Status()
	fmt.Printf("Index ready at %s: %s documents in %d sheets (%s)\n",
		st.IndexPath, formatNumber(st.Meta.Documents), st.Meta.Sheets, time.Since(start).Round(time.Millisecond))
	return nil
}
