package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AthbiHC/mobasher/internal/retention"
)

// defaultProcessMarkers finds the lingering ffmpeg children and
// mobasherctl-managed workers a reset should clear, per capture's
// "Mobasher/1.0" user-agent tag and this binary's own name.
var defaultProcessMarkers = []string{"Mobasher/1.0", "mobasherctl"}

func newFreshResetCmd() *cobra.Command {
	var confirm bool
	var todayOnly bool
	var truncateChannels bool
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "freshreset",
		Short: "Stop lingering processes, truncate ingested data, and wipe today's date directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := bootstrap()
			if err != nil {
				return err
			}
			defer st.Close()

			report, err := retention.FreshReset(context.Background(), retention.FreshResetOptions{
				Confirm:          confirm,
				DB:               st.Conn(),
				ProcessMarkers:   defaultProcessMarkers,
				MetricsPorts:     []int{cfg.API.Port},
				DataRoots:        []string{cfg.DataRoot},
				TodayOnly:        todayOnly,
				TruncateChannels: truncateChannels,
				DryRun:           dryRun,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "killed pids: %v\n", report.KilledPIDs)
			for table, count := range report.TruncatedTables {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows\n", table, count)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed directories: %v\n", report.RemovedDirs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "required to actually reset (refuses otherwise)")
	cmd.Flags().BoolVar(&todayOnly, "today-only", true, "restrict the filesystem wipe to today's date directories")
	cmd.Flags().BoolVar(&truncateChannels, "truncate-channels", false, "also empty the channels table")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would happen without doing it")
	return cmd
}
