package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AthbiHC/mobasher/internal/config"
	"github.com/AthbiHC/mobasher/internal/logging"
	"github.com/AthbiHC/mobasher/internal/supervisor"
)

const recorderComponent = "recorder"

func newRecorderCmd() *cobra.Command {
	rec := &cobra.Command{
		Use:   "recorder",
		Short: "Manage the capture supervisor process",
	}
	rec.AddCommand(newRecorderStartCmd())
	rec.AddCommand(newRecorderStopCmd())
	rec.AddCommand(newRecorderStatusCmd())
	rec.AddCommand(newRecorderLogsCmd())
	return rec
}

func newRecorderStartCmd() *cobra.Command {
	var detach bool
	var internalForeground bool
	cmd := &cobra.Command{
		Use:    "start",
		Short:  "Start the capture supervisor for every active channel",
		Hidden: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadClusterConfig()
			if err != nil {
				return err
			}

			if detach && !internalForeground {
				pidPath := pidFilePath(cfg, recorderComponent)
				logPath := logFilePath(cfg, recorderComponent)
				if err := spawnDetached([]string{"recorder", "start", "--foreground"}, pidPath, logPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recorder started, logs at %s\n", logPath)
				return nil
			}

			return runRecorderForeground(cfg)
		},
	}
	cmd.Flags().BoolVar(&detach, "detach", true, "run in the background and return immediately")
	cmd.Flags().BoolVar(&internalForeground, "foreground", false, "run in the foreground (used internally by --detach)")
	return cmd
}

// runRecorderForeground brings up the capture supervisor tree: one
// capture.Supervisor per active channel, wired through the tree's
// capture layer, running until a shutdown signal arrives.
func runRecorderForeground(cfg *config.ClusterConfig) error {
	initLogging(cfg)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := writePIDFile(pidFilePath(cfg, recorderComponent)); err != nil {
		return err
	}
	defer os.Remove(pidFilePath(cfg, recorderComponent))

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	chanSup, err := supervisor.NewChannelSupervisor(tree, cfg.DataRoot, st)
	if err != nil {
		return fmt.Errorf("create channel supervisor: %w", err)
	}
	if err := chanSup.StartAll(context.Background(), cfg.ChannelsDir); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	waitForSignalOrDone(ctx, cancel)

	logging.Info().Int("channels", len(chanSup.Status())).Msg("recorder started")
	return tree.Serve(ctx)
}

func newRecorderStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a running capture supervisor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadClusterConfig()
			if err != nil {
				return err
			}
			return stopPIDFile(pidFilePath(cfg, recorderComponent))
		},
	}
}

func newRecorderStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the capture supervisor is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadClusterConfig()
			if err != nil {
				return err
			}
			pid, err := readPIDFile(pidFilePath(cfg, recorderComponent))
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "stopped")
				return nil
			}
			if processAlive(pid) {
				fmt.Fprintf(cmd.OutOrStdout(), "running (pid %d)\n", pid)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "stopped (stale pidfile)")
			}
			return nil
		},
	}
}

func newRecorderLogsCmd() *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the recorder's log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadClusterConfig()
			if err != nil {
				return err
			}
			return tailLogFile(cmd, logFilePath(cfg, recorderComponent), follow)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing new lines as they are written")
	return cmd
}

// tailLogFile prints a log file to the command's stdout, optionally
// polling for new lines when follow is set (no fsnotify dependency
// here; a short poll interval is enough for an operator CLI).
func tailLogFile(cmd *cobra.Command, path string, follow bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			fmt.Fprint(cmd.OutOrStdout(), line)
		}
		if err != nil {
			if !follow {
				return nil
			}
			time.Sleep(500 * time.Millisecond)
		}
	}
}

// waitForSignalOrDone blocks until ctx is canceled or SIGINT/SIGTERM
// arrives, canceling cancel in the latter case.
func waitForSignalOrDone(ctx context.Context, cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()
}
