package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/AthbiHC/mobasher/internal/config"
)

// removePIDFileQuietly removes a component's pidfile, ignoring errors;
// used in defers where the process is already exiting.
func removePIDFileQuietly(cfg *config.ClusterConfig, name string) {
	_ = os.Remove(pidFilePath(cfg, name))
}

// readPIDFile reads and parses a pidfile written by writePIDFile.
func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pidfile %s: %w", path, err)
	}
	return pid, nil
}

// processAlive reports whether pid names a running process, by sending
// the null signal (the standard kill(2) liveness probe).
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// stopPIDFile sends SIGTERM to the process named in path's pidfile and
// removes the pidfile. Returns nil if the pidfile doesn't exist (already
// stopped).
func stopPIDFile(path string) error {
	pid, err := readPIDFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer os.Remove(path)

	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil && !strings.Contains(err.Error(), "process already finished") {
		return fmt.Errorf("signal pid %d: %w", pid, err)
	}
	return nil
}
