package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/rubiojr/hayao/cmd"
	"github.com/rubiojr/hayao/pkg/config"
	hlog "github.com/rubiojr/hayao/pkg/log"
	_ "github.com/rubiojr/hayao/pkg/sources"
	"github.com/urfave/cli/v3"
)

func main() {
	// A .env in the working directory may carry HAYAO_* overrides.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Failed to load .env: %v", err)
	}

	app := &cli.Command{
		Name:  "hayao",
		Usage: "Keyword search over spreadsheet-like records",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			hlog.SetGlobalDebug(c.Bool("debug"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.BuildCommand(),
			cmd.RefreshCommand(),
			cmd.SearchCommand(),
			cmd.StatusCommand(),
			cmd.TUICommand(),
			cmd.WebCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		log.Fatalf("Failed to get default config path: %v", err)
	}
	return path
}
