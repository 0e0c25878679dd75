package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AthbiHC/mobasher/internal/config"
	"github.com/AthbiHC/mobasher/internal/logging"
	"github.com/AthbiHC/mobasher/internal/retention"
	"github.com/AthbiHC/mobasher/internal/store"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mobasherctl",
		Short:         "mobasherctl manages the Mobasher ingestion core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newChannelsCmd())
	root.AddCommand(newRecorderCmd())
	root.AddCommand(newArchiveCmd())
	root.AddCommand(newDBCmd())
	root.AddCommand(newServicesCmd())
	root.AddCommand(newAPICmd())
	root.AddCommand(newASRCmd())
	root.AddCommand(newVisionCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newFreshResetCmd())
	root.AddCommand(newKillTheMinionsCmd())

	return root
}

// exitCodeFor maps a command error onto the exit code table:
// 0 success, 2 refusal without explicit confirmation, other non-zero on
// underlying failure.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, retention.ErrSafetyViolation) {
		return 2
	}
	return 1
}

// loadClusterConfig loads the cluster config or fails the command with
// a wrapped error, used by every subcommand that touches the store,
// queue, or supervisor tree.
func loadClusterConfig() (*config.ClusterConfig, error) {
	cfg, err := config.LoadClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("load cluster config: %w", err)
	}
	return cfg, nil
}

// initLogging brings up zerolog from the cluster config's log
// level/format.
func initLogging(cfg *config.ClusterConfig) {
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Caller: false,
	})
}

// openStore opens the DuckDB-backed store at cfg.Database.Path.
func openStore(cfg *config.ClusterConfig) (*store.Store, error) {
	st, err := store.Open(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// bootstrap is the shared first step of every subcommand that needs a
// live store: load config, init logging, open the database.
func bootstrap() (*config.ClusterConfig, *store.Store, error) {
	cfg, err := loadClusterConfig()
	if err != nil {
		return nil, nil, err
	}
	initLogging(cfg)

	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

// pidFilePath returns the pidfile path for a named long-running
// component (recorder, api, services-all), rooted under the cluster's
// data directory so concurrent mobasherctl invocations agree on it.
func pidFilePath(cfg *config.ClusterConfig, name string) string {
	return filepath.Join(cfg.DataRoot, "run", name+".pid")
}

// writeFileCreatingDir writes data to path, creating parent
// directories as needed.
func writeFileCreatingDir(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// writePIDFile records the current process's pid at path, creating
// parent directories as needed.
func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create pidfile directory: %w", err)
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644)
}
