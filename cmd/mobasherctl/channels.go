package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AthbiHC/mobasher/internal/config"
)

func newChannelsCmd() *cobra.Command {
	ch := &cobra.Command{
		Use:   "channels",
		Short: "Manage channel descriptors",
	}
	ch.AddCommand(newChannelsListCmd())
	ch.AddCommand(newChannelsAddCmd())
	ch.AddCommand(newChannelsEnableCmd())
	ch.AddCommand(newChannelsDisableCmd())
	return ch
}

func newChannelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List channel descriptors and their store mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := bootstrap()
			if err != nil {
				return err
			}
			defer st.Close()

			channels, err := st.ListChannels(context.Background(), false)
			if err != nil {
				return fmt.Errorf("list channels: %w", err)
			}
			for _, c := range channels {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tactive=%v\t%s\n", c.ID, c.Name, c.Active, c.URL)
			}
			_ = cfg
			return nil
		},
	}
}

func newChannelsAddCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Load a channel YAML descriptor and mirror it into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return fmt.Errorf("--file is required")
			}
			cfg, st, err := bootstrap()
			if err != nil {
				return err
			}
			defer st.Close()

			chCfg, err := config.LoadChannelConfig(path)
			if err != nil {
				return fmt.Errorf("load channel config %s: %w", path, err)
			}

			if cfg.CredKey != "" {
				enc, err := config.NewCredentialEncryptor(cfg.CredKey)
				if err != nil {
					return fmt.Errorf("build credential encryptor: %w", err)
				}
				if err := enc.EncryptChannelHeaders(chCfg.Input.Headers); err != nil {
					return fmt.Errorf("encrypt channel headers: %w", err)
				}
			}

			if _, err := st.UpsertChannel(context.Background(), chCfg.ID, chCfg.Name, chCfg.Input.URL, chCfg.Input.Headers, chCfg.Active, chCfg.Description); err != nil {
				return fmt.Errorf("mirror channel %s into store: %w", chCfg.ID, err)
			}

			dest := filepath.Join(cfg.ChannelsDir, chCfg.ID+".yaml")
			if err := copyChannelFile(path, dest); err != nil {
				return fmt.Errorf("install channel descriptor at %s: %w", dest, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added channel %s\n", chCfg.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "path to a channel YAML descriptor")
	return cmd
}

func newChannelsEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <channel-id>",
		Short: "Mark a channel active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setChannelActive(args[0], true)
		},
	}
}

func newChannelsDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <channel-id>",
		Short: "Mark a channel inactive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setChannelActive(args[0], false)
		},
	}
}

// setChannelActive flips a channel's active flag on both its YAML
// descriptor and its store mirror, so a running recorder's next
// `channels list`/reload cycle and the read API agree.
func setChannelActive(channelID string, active bool) error {
	cfg, st, err := bootstrap()
	if err != nil {
		return err
	}
	defer st.Close()

	path := filepath.Join(cfg.ChannelsDir, channelID+".yaml")
	chCfg, err := config.LoadChannelConfig(path)
	if err != nil {
		return fmt.Errorf("load channel config %s: %w", path, err)
	}
	chCfg.Active = active

	if err := writeChannelConfig(path, chCfg); err != nil {
		return fmt.Errorf("rewrite channel config %s: %w", path, err)
	}

	if _, err := st.UpsertChannel(context.Background(), chCfg.ID, chCfg.Name, chCfg.Input.URL, chCfg.Input.Headers, active, chCfg.Description); err != nil {
		return fmt.Errorf("update channel %s in store: %w", channelID, err)
	}
	return nil
}

func copyChannelFile(src, dest string) error {
	chCfg, err := config.LoadChannelConfig(src)
	if err != nil {
		return err
	}
	return writeChannelConfig(dest, chCfg)
}

func writeChannelConfig(path string, cfg *config.ChannelConfig) error {
	buf, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal channel config: %w", err)
	}
	return writeFileCreatingDir(path, buf)
}
