package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AthbiHC/mobasher/internal/config"
)

// newArchiveCmd manages one channel's archive leg independently of its
// audio/video capture legs, by flipping recording.archive_enabled on
// the channel's YAML descriptor. A running recorder picks the change up
// on its next `channels` reload; this command only edits the
// descriptor, it does not reach into a live capture.Supervisor (the
// recorder and mobasherctl are separate processes with no control
// channel between them the flat subcommand surface).
func newArchiveCmd() *cobra.Command {
	ar := &cobra.Command{
		Use:   "archive",
		Short: "Manage a channel's clock-aligned archive leg",
	}
	ar.AddCommand(newArchiveStartCmd())
	ar.AddCommand(newArchiveStopCmd())
	ar.AddCommand(newArchiveStatusCmd())
	return ar
}

func newArchiveStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <channel-id>",
		Short: "Enable the archive leg for a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setArchiveEnabled(args[0], true)
		},
	}
}

func newArchiveStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <channel-id>",
		Short: "Disable the archive leg for a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setArchiveEnabled(args[0], false)
		},
	}
}

func newArchiveStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <channel-id>",
		Short: "Report whether a channel's archive leg is enabled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadClusterConfig()
			if err != nil {
				return err
			}
			chCfg, err := config.LoadChannelConfig(filepath.Join(cfg.ChannelsDir, args[0]+".yaml"))
			if err != nil {
				return fmt.Errorf("load channel config: %w", err)
			}
			if chCfg.Recording.ArchiveEnabled {
				fmt.Fprintln(cmd.OutOrStdout(), "enabled")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "disabled")
			}
			return nil
		},
	}
}

func setArchiveEnabled(channelID string, enabled bool) error {
	cfg, err := loadClusterConfig()
	if err != nil {
		return err
	}
	path := filepath.Join(cfg.ChannelsDir, channelID+".yaml")
	chCfg, err := config.LoadChannelConfig(path)
	if err != nil {
		return fmt.Errorf("load channel config %s: %w", path, err)
	}
	chCfg.Recording.ArchiveEnabled = enabled
	return writeChannelConfig(path, chCfg)
}
