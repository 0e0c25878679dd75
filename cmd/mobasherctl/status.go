package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newStatusCmd gives a one-shot overview of every tracked component
// plus channel counts, for an operator checking a host's state without
// running each subcommand's own `status`/`ps` individually.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report component and channel status in one shot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := bootstrap()
			if err != nil {
				return err
			}
			defer st.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "components:")
			for _, name := range componentNames {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-28s %s\n", name, componentState(cfg, name))
			}

			channels, err := st.ListChannels(context.Background(), false)
			if err != nil {
				return fmt.Errorf("list channels: %w", err)
			}
			active := 0
			for _, ch := range channels {
				if ch.Active {
					active++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "channels: %d total, %d active\n", len(channels), active)
			return nil
		},
	}
}
