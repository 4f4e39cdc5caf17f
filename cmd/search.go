package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rubiojr/hayao/pkg/highlight"
	"github.com/rubiojr/hayao/pkg/search"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the index",
		ArgsUsage: "TERM...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Search query (defaults to the arguments)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: search.MaxResults,
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Build from the download cache if the index is missing",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Do not style matches",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			raw := c.String("query")
			if raw == "" {
				raw = strings.Join(c.Args().Slice(), " ")
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			wh, err := openWarehouse(cfg, c.Bool("offline"))
			if err != nil {
				return err
			}
			defer closeWarehouse(wh)

			marker := highlight.Terminal(matchStyle)
			if c.Bool("plain") {
				marker = highlight.Plain
			}
			svc := search.NewSearchService(wh, marker, cfg.MaxResults)
			return runSearch(ctx, os.Stdout, svc, raw, c.Int("limit"))
		},
	}
}

// runSearch runs one query and prints the highlighted results to w.
func runSearch(ctx context.Context, w io.Writer, svc *search.Service, raw string, limit int) error {
	res, err := svc.Search(ctx, search.SearchParams{Query: raw, Limit: limit})
	if errors.Is(err, search.ErrEmptyQuery) {
		fmt.Fprintln(w, warnStyle.Render("Nothing to search for. Pass one or more terms."))
		return nil
	}
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	formatResults(w, res)
	return nil
}
