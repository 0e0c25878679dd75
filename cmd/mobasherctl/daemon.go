package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/AthbiHC/mobasher/internal/config"
)

// logFilePath returns the log file a detached component's stdout/stderr
// is redirected to.
func logFilePath(cfg *config.ClusterConfig, name string) string {
	return filepath.Join(cfg.DataRoot, "run", name+".log")
}

// spawnDetached re-execs the current binary with args in its own
// session (so it survives the parent's exit), redirecting stdout and
// stderr to logPath, and records its pid at pidPath.
func spawnDetached(args []string, pidPath, logPath string) error {
	if err := os.MkdirAll(filepath.Dir(pidPath), 0o750); err != nil {
		return fmt.Errorf("create pidfile directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve own executable: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", logPath, err)
	}
	defer logFile.Close()

	cmd := exec.Command(self, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start detached process: %w", err)
	}

	if err := os.WriteFile(pidPath, []byte(fmt.Sprintf("%d\n", cmd.Process.Pid)), 0o644); err != nil {
		return fmt.Errorf("write pidfile %s: %w", pidPath, err)
	}

	return cmd.Process.Release()
}
