package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"watson-dash/pkg/model"
)

func newCheckCmd() *cobra.Command {
	var (
		output string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Capture the dependency snapshot once and print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			snap := buildAggregator(cmd.Context(), cfg, log).Snapshot()
			if err := printSnapshot(cmd, snap, output); err != nil {
				return err
			}
			if strict && snap.GNIS.Status != model.StatusConnected {
				return fmt.Errorf("relay is %s", snap.GNIS.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json|yaml")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero unless the relay is connected")
	return cmd
}

func printSnapshot(cmd *cobra.Command, snap model.Snapshot, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(snap)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
