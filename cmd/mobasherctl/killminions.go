package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AthbiHC/mobasher/internal/retention"
)

// newKillTheMinionsCmd is freshreset's process-kill step on its own:
// clears stray ffmpeg/worker processes without touching the database
// or filesystem, for recovering a wedged host without losing ingested
// data.
func newKillTheMinionsCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "kill-the-minions",
		Short: "Terminate lingering transcoder and worker processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			pids, err := retention.KillProcesses(defaultProcessMarkers, dryRun)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "killed pids: %v\n", pids)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report matching pids without killing them")
	return cmd
}
