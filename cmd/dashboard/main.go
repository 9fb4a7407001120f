package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"watson-dash/pkg/config"
	"watson-dash/pkg/credentials"
	"watson-dash/pkg/logging"
	"watson-dash/pkg/relay"
	"watson-dash/pkg/status"
	"watson-dash/pkg/version"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dashboard",
		Short:         "Watson status dashboard and GNIS relay proxy",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (env DASHBOARD_* overrides it)")
	root.AddCommand(newServeCmd(), newCheckCmd(), newForwardCmd(), newWatchCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build identifier",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Build)
		},
	}
}

// setup loads config and builds the logger shared by every subcommand.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newRelayClient(cfg *config.Config) *relay.Client {
	return relay.NewClient(relay.Options{
		BaseURL:        cfg.Relay.URL,
		Token:          cfg.Relay.Token,
		ForwardPath:    cfg.Relay.ForwardPath,
		ProbeTimeout:   cfg.Relay.ProbeTimeout,
		ForwardTimeout: cfg.Relay.ForwardTimeout,
	})
}

func buildAggregator(ctx context.Context, cfg *config.Config, log *zap.Logger) *status.Aggregator {
	return status.New(ctx, status.Options{
		Version:      version.Build,
		FeedPath:     cfg.Feed.Path,
		AICredential: cfg.Credentials.AI,
		OptionalKeys: cfg.Credentials.Optional,
		Relay:        newRelayClient(cfg),
		Lookup:       credentials.Env,
		Logger:       log,
	})
}
