package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rubiojr/hayao/pkg/log"
	"github.com/rubiojr/hayao/pkg/search"
	"github.com/rubiojr/hayao/pkg/tui"
	"github.com/rubiojr/hayao/pkg/warehouse"
	"github.com/urfave/cli/v3"
)

// TUICommand creates the tui command
func TUICommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Search interactively in the terminal",
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

			// Log lines would tear the screen; send them to a file.
			logPath := filepath.Join(cfg.StorageDir, "hayao.log")
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer logFile.Close()
			log.SetOutput(logFile)

			wh, err := openWarehouse(cfg, c.Bool("offline"))
			if err != nil {
				return err
			}
			defer closeWarehouse(wh)

			fmt.Println("Loading index...")
			if err := wh.EnsureReady(ctx); err != nil {
				return fmt.Errorf("building index: %w", err)
			}

			svc := search.NewSearchService(wh, tui.Terminal(), cfg.MaxResults)
			m := tui.New(svc, wh, summaryLine(wh.Status()))
			if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
				return fmt.Errorf("running tui: %w", err)
			}
			return nil
		},
	}
}

// summaryLine describes the loaded index in one line.
func summaryLine(st warehouse.Status) string {
	return fmt.Sprintf("%s documents in %d sheets, built %s",
		formatNumber(st.Meta.Documents), st.Meta.Sheets, formatTime(st.Meta.BuiltAt))
}
