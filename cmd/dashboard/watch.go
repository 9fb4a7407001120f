package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"watson-dash/pkg/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		url   string
		token string
		retry time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a running dashboard's event stream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			c, err := watch.NewClient(url, token, retry, log)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			return c.Run(cmd.Context(), func(ev watch.Event) error {
				if err := enc.Encode(ev); err != nil {
					return fmt.Errorf("write event: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:5000", "dashboard base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token for the dashboard")
	cmd.Flags().DurationVar(&retry, "retry", 5*time.Second, "redial delay after the stream drops")
	return cmd
}
