package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"watson-dash/pkg/fault"
	"watson-dash/pkg/status"
)

func newForwardCmd() *cobra.Command {
	var (
		event string
		data  string
	)
	cmd := &cobra.Command{
		Use:   "forward",
		Short: "Forward one JSON payload to the relay and print its answer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch event {
			case status.EventGPTAction, status.EventGNISSync:
			default:
				return fmt.Errorf("unsupported event %q (want %s or %s)", event, status.EventGPTAction, status.EventGNISSync)
			}
			payload, err := readPayload(data)
			if err != nil {
				return err
			}
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			res := buildAggregator(cmd.Context(), cfg, log).Forward(cmd.Context(), event, payload)
			if res.Err != nil {
				var fe *fault.Error
				if errors.As(res.Err, &fe) && fe.Kind == fault.RemoteError {
					return fmt.Errorf("relay answered %d: %s", fe.Code, fe.Body)
				}
				return res.Err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(res.Body))
			return nil
		},
	}
	cmd.Flags().StringVar(&event, "event", status.EventGNISSync, "event type: gpt_action|gnis_sync")
	cmd.Flags().StringVar(&data, "data", "{}", "JSON payload, or @file to read it from a file")
	return cmd
}

func readPayload(data string) (json.RawMessage, error) {
	raw := []byte(data)
	if path, ok := strings.CutPrefix(data, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		raw = b
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	return json.RawMessage(raw), nil
}
