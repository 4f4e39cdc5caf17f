package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rubiojr/hayao/pkg/warehouse"
	"github.com/urfave/cli/v3"
)

// RefreshCommand creates the refresh command
func RefreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Delete the search index and rebuild it from the source",
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

			return refreshIndex(ctx, wh)
		},
	}
}

func refreshIndex(ctx context.Context, wh *warehouse.Warehouse) error {
	start := time.Now()
	if err := wh.Refresh(ctx, warehouse.ReasonRefresh); err != nil {
		return fmt.Errorf("refreshing index: %w", err)
	}
	st := wh.Status()
	fmt.Printf("Index rebuilt: %s documents in %d sheets (%s)\n",
		formatNumber(st.Meta.Documents), st.Meta.Sheets, time.Since(start).Round(time.Millisecond))
	return nil
}
