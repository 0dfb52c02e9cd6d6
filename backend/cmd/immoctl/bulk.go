package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/internal/services/bulk"
)

func newBulkCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Apply one change to many properties in a single transaction",
	}

	op := func(use, short string, apply func(*bulk.Service, context.Context, []string) (int, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <reference>...",
			Short: short,
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runBulk(cmd.Context(), func(s *bulk.Service, ctx context.Context) (int, error) {
					return apply(s, ctx, args)
				})
			},
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "publish <reference>...",
			Short: "Make properties visible on the site and list the saved searches they match",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runBulk(cmd.Context(), func(s *bulk.Service, ctx context.Context) (int, error) {
					n, matches, err := s.Publish(ctx, args)
					for _, m := range matches {
						fmt.Fprintf(c.out, "%s matches alert %s %s\n", m.Reference, m.AlertID, m.Email)
					}
					return n, err
				})
			},
		},
		op("hide", "Hide properties from the site", (*bulk.Service).Hide),
		op("delete", "Delete properties", (*bulk.Service).Delete),
		&cobra.Command{
			Use:   "status <available|offer|sold> <reference>...",
			Short: "Set the sale status of properties",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				status, ok := domain.ParseStatusStrict(args[0])
				if !ok {
					return fmt.Errorf("unknown status %q: want available, offer or sold", args[0])
				}
				return c.runBulk(cmd.Context(), func(s *bulk.Service, ctx context.Context) (int, error) {
					return s.SetStatus(ctx, args[1:], status)
				})
			},
		},
	)
	return cmd
}

func (c *cli) runBulk(ctx context.Context, fn func(*bulk.Service, context.Context) (int, error)) error {
	a, err := c.openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	n, err := fn(a.Bulk, ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d properties updated\n", n)
	return nil
}
