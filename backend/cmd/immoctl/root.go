package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/ps-vitor/immo-sys/backend/internal/app"
	"github.com/ps-vitor/immo-sys/backend/internal/config"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

// cli carries what every subcommand needs once the root has loaded configuration.
type cli struct {
	configDir string
	dryRun    bool
	verbose   bool

	out    io.Writer
	errOut io.Writer
	cfg    *config.Config
	log    *logger.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "immoctl",
		Short:         "Operator tools for the property catalogue",
		Long:          "immoctl scrapes listing pages, imports CSV exports and applies bulk edits to the property catalogue.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(c.configDir)
			if err != nil {
				return err
			}
			level := cfg.App.Level()
			if c.verbose {
				level = "debug"
			} else if level == "info" {
				level = "warn"
			}
			c.cfg = cfg
			c.log = logger.New("immoctl", logger.Options{Level: level, Writer: c.errOut})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.configDir, "config-dir", "configs", "directory holding app.yaml and scraping.yaml")
	root.PersistentFlags().BoolVar(&c.dryRun, "dry-run", false, "use in-memory stores instead of MongoDB")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newScrapeCmd(c),
		newImportCmd(c),
		newBulkCmd(c),
		newTokenCmd(c),
	)
	return root
}

func (c *cli) openApp(ctx context.Context) (*app.App, error) {
	if c.dryRun {
		return app.NewInMemory(c.cfg, c.log), nil
	}
	return app.New(ctx, c.cfg, c.log)
}
