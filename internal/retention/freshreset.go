package retention

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/AthbiHC/mobasher/internal/logging"
)

// truncateTables lists tables emptied by a fresh reset, in FK-safe order
// (children before parents). channels is appended only when
// FreshResetOptions.TruncateChannels is set.
var truncateTables = []string{
	"alerts",
	"entities",
	"segment_embeddings",
	"transcripts",
	"visual_events",
	"segments",
	"recordings",
}

// FreshResetOptions configures the destructive reset sequence run by
// FreshReset.
type FreshResetOptions struct {
	// Confirm must be true or FreshReset refuses with ErrSafetyViolation.
	Confirm bool

	DB *sql.DB

	// ProcessMarker is the substring used to find lingering transcoder
	// and mobasher worker processes to kill, e.g. capture.userAgent's
	// "Mobasher/1.0" tag or the "mobasherctl" binary name.
	ProcessMarkers []string

	// MetricsPorts are checked after the process kill step to confirm
	// they were actually released.
	MetricsPorts []int

	// DataRoots are walked to remove per-date subdirectories
	// (audio/<date>, video/<date>, archive/<channel>/<date>).
	DataRoots []string

	// TodayOnly restricts the filesystem wipe to today's UTC date
	// subdirectories, leaving older (already-retention-pruned) data.
	TodayOnly bool

	// TruncateChannels also empties the channels table. Defaults to
	// false: a fresh reset normally clears ingested data, not channel
	// definitions.
	TruncateChannels bool

	DryRun bool
}

// Report summarizes what FreshReset did (or, under DryRun, would do).
type Report struct {
	KilledPIDs      []int
	TruncatedTables map[string]int64
	RemovedDirs     []string
}

// FreshReset runs the guarded reset sequence: (1) kill lingering
// transcoder/worker processes by marker, (2) confirm metrics ports are
// released, (3) truncate the listed tables, (4) wipe per-date
// subdirectories under the given data roots. Refuses outright without
// opts.Confirm.
func FreshReset(ctx context.Context, opts FreshResetOptions) (Report, error) {
	var report Report
	if !opts.Confirm {
		return report, ErrSafetyViolation
	}

	for _, marker := range opts.ProcessMarkers {
		pids, err := killByMarker(marker, opts.DryRun)
		if err != nil {
			logging.Warn().Err(err).Str("marker", marker).Msg("freshreset: process kill failed")
			continue
		}
		report.KilledPIDs = append(report.KilledPIDs, pids...)
	}

	for _, port := range opts.MetricsPorts {
		if portInUse(port) {
			logging.Warn().Int("port", port).Msg("freshreset: metrics port still in use after process kill")
		}
	}

	if opts.DB != nil {
		truncated, err := truncateDerivedTables(ctx, opts.DB, opts.TruncateChannels, opts.DryRun)
		if err != nil {
			return report, err
		}
		report.TruncatedTables = truncated
	}

	removed, err := wipeDateDirs(opts.DataRoots, opts.TodayOnly, opts.DryRun)
	if err != nil {
		logging.Warn().Err(err).Msg("freshreset: data root wipe failed")
	}
	report.RemovedDirs = removed

	return report, nil
}

// KillProcesses runs FreshReset's process-kill step in isolation: find
// and terminate every process matching one of the given markers, with
// no table truncation or filesystem wipe attached. Used by
// kill-the-minions, which clears stray transcoder/worker processes
// without touching ingested data.
func KillProcesses(markers []string, dryRun bool) ([]int, error) {
	var pids []int
	for _, marker := range markers {
		found, err := killByMarker(marker, dryRun)
		if err != nil {
			return pids, err
		}
		pids = append(pids, found...)
	}
	return pids, nil
}

// killByMarker shells out to pgrep -f marker, then SIGTERMs (waiting up
// to the same 10s budget as a single child's stop) before SIGKILL.
func killByMarker(marker string, dryRun bool) ([]int, error) {
	out, err := exec.Command("pgrep", "-f", marker).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return nil, nil // no matches
		}
		return nil, fmt.Errorf("freshreset: pgrep -f %q: %w", marker, err)
	}

	var pids []int
	for _, line := range strings.Fields(string(out)) {
		pid, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		pids = append(pids, pid)
		if dryRun {
			continue
		}
		_ = syscall.Kill(pid, syscall.SIGTERM)
	}
	if dryRun || len(pids) == 0 {
		return pids, nil
	}

	time.Sleep(2 * time.Second)
	for _, pid := range pids {
		if err := syscall.Kill(pid, syscall.Signal(0)); err == nil {
			_ = syscall.Kill(pid, syscall.SIGKILL)
		}
	}
	return pids, nil
}

// portInUse reports whether something is still listening on port.
func portInUse(port int) bool {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func truncateDerivedTables(ctx context.Context, db *sql.DB, includeChannels, dryRun bool) (map[string]int64, error) {
	tables := truncateTables
	if includeChannels {
		tables = append(append([]string{}, tables...), "channels")
	}

	counts := make(map[string]int64, len(tables))
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("freshreset: begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range tables {
		var count int64
		if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM %s", table)).Scan(&count); err != nil {
			return nil, fmt.Errorf("freshreset: count %s: %w", table, err)
		}
		counts[table] = count
		if dryRun || count == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return nil, fmt.Errorf("freshreset: truncate %s: %w", table, err)
		}
	}

	if dryRun {
		return counts, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("freshreset: commit: %w", err)
	}
	return counts, nil
}

// wipeDateDirs removes per-date subdirectories (YYYY-MM-DD, or a bare
// channel-id subdir when date folders are disabled) under audio/,
// video/, and archive/<channel>/ beneath each root, per
// internal/layout's directory conventions.
func wipeDateDirs(roots []string, todayOnly, dryRun bool) ([]string, error) {
	today := time.Now().UTC().Format("2006-01-02")
	var removed []string

	for _, root := range roots {
		for _, category := range []string{"audio", "video", "archive"} {
			base := filepath.Join(root, category)
			entries, err := os.ReadDir(base)
			if err != nil {
				continue
			}
			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				removed = append(removed, removeDateTree(base, entry.Name(), today, todayOnly, dryRun)...)
			}
		}
	}
	return removed, nil
}

func removeDateTree(base, name, today string, todayOnly, dryRun bool) []string {
	path := filepath.Join(base, name)

	if looksLikeDate(name) {
		if todayOnly && name != today {
			return nil
		}
		if !dryRun {
			_ = os.RemoveAll(path)
		}
		return []string{path}
	}

	// archive/<channel>/<date> nesting: recurse one level.
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil
	}
	var removed []string
	for _, entry := range entries {
		if !entry.IsDir() || !looksLikeDate(entry.Name()) {
			continue
		}
		if todayOnly && entry.Name() != today {
			continue
		}
		sub := filepath.Join(path, entry.Name())
		if !dryRun {
			_ = os.RemoveAll(sub)
		}
		removed = append(removed, sub)
	}
	return removed
}

func looksLikeDate(name string) bool {
	if len(name) != len("2006-01-02") {
		return false
	}
	_, err := time.Parse("2006-01-02", name)
	return err == nil
}
