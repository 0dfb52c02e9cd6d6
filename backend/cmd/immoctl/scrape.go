package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ps-vitor/immo-sys/backend/internal/api/models"
)

func newScrapeCmd(c *cli) *cobra.Command {
	var store bool

	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Extract a property from a listing page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			enc := json.NewEncoder(c.out)
			enc.SetIndent("", "  ")
			if !store {
				rec, err := a.Scraper.Analyze(ctx, args[0])
				if err != nil {
					return fmt.Errorf("could not analyze page: %w", err)
				}
				return enc.Encode(models.NewScrapeResult(rec))
			}

			rec, id, err := a.Scraper.ScrapeAndStore(ctx, args[0])
			if err != nil {
				return err
			}
			return enc.Encode(models.StoredScrape{ScrapeResult: models.NewScrapeResult(rec), DocumentID: id})
		},
	}

	cmd.Flags().BoolVar(&store, "store", false, "create a hidden property from the page")
	return cmd
}
