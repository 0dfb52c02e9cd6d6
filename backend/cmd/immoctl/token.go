package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ps-vitor/immo-sys/backend/internal/auth"
)

func newTokenCmd(c *cli) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for the admin HTTP routes",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if ttl <= 0 {
				ttl = c.cfg.Admin.TokenTTL
			}
			if subject == "" {
				subject = os.Getenv("USER")
			}
			token, err := auth.Issue(c.cfg.Admin.Secret, subject, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "operator name recorded in the token (default $USER)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default admin.token_ttl)")
	return cmd
}
