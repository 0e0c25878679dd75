package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AthbiHC/mobasher/internal/retention"
)

func newDBCmd() *cobra.Command {
	db := &cobra.Command{
		Use:   "db",
		Short: "Inspect and prune the persisted store",
	}
	db.AddCommand(newDBTruncateCmd())
	db.AddCommand(newDBRetentionCmd())
	return db
}

// newDBTruncateCmd empties the derived tables without the rest of a
// fresh reset's process-kill and filesystem-wipe steps, for clearing
// ingested data between test runs without touching channel definitions.
func newDBTruncateCmd() *cobra.Command {
	var confirm bool
	var includeChannels bool
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "truncate",
		Short: "Empty every derived table (segments, transcripts, visual events, entities, alerts)",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := bootstrap()
			if err != nil {
				return err
			}
			defer st.Close()

			report, err := retention.FreshReset(context.Background(), retention.FreshResetOptions{
				Confirm:          confirm,
				DB:               st.Conn(),
				TruncateChannels: includeChannels,
				DryRun:           dryRun,
			})
			if err != nil {
				return err
			}
			for table, count := range report.TruncatedTables {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows\n", table, count)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "required to actually truncate (refuses otherwise)")
	cmd.Flags().BoolVar(&includeChannels, "include-channels", false, "also empty the channels table")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report row counts without deleting")
	return cmd
}

// newDBRetentionCmd runs one age-based pruning pass over transcripts,
// embeddings, entities, alerts, and screenshot files.
func newDBRetentionCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "retention",
		Short: "Delete rows and screenshots older than the configured retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := bootstrap()
			if err != nil {
				return err
			}
			defer st.Close()

			result, err := retention.Run(context.Background(), st.Conn(), cfg.Retention, cfg.Retention.ScreenshotRoot, dryRun)
			if err != nil {
				return err
			}
			for table, count := range result.DeletedRows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s deleted: %d\n", table, count)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "screenshots removed: %d\n", result.DeletedScreenshots)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report counts without deleting")
	return cmd
}
