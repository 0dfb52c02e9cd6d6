package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ps-vitor/immo-sys/backend/internal/rows"
	"github.com/ps-vitor/immo-sys/backend/internal/services/importer"
)

func newImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a CSV export row by row",
		Long: "Each row becomes a hidden property. A failing row is logged and the import moves on; " +
			"the command exits non-zero if any row failed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			records, err := rows.ReadCSV(f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			res := a.Orchestrator.Run(ctx, uuid.NewString(), records, progressPrinter(c.out))
			fmt.Fprintf(c.out, "%s: %d/%d rows, %d imported, %d failed\n",
				res.State, res.ProcessedCount, res.TotalCount, res.Successes(), res.Failures())

			if res.State == importer.StateCancelled {
				return ctx.Err()
			}
			if n := res.Failures(); n > 0 {
				return fmt.Errorf("%d of %d rows failed", n, res.TotalCount)
			}
			return nil
		},
	}
}

// progressPrinter writes each log line once, as soon as its row completes.
func progressPrinter(w io.Writer) importer.ProgressFunc {
	printed := 0
	return func(b importer.BatchResult) {
		for _, e := range b.Log[printed:] {
			fmt.Fprintf(w, "[%d/%d] %s\n", e.Row, b.TotalCount, e)
		}
		printed = len(b.Log)
	}
}
