package retention

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AthbiHC/mobasher/internal/config"
	"github.com/AthbiHC/mobasher/internal/logging"
)

// pruneable names one non-partitioned derived table and the time column
// its rows age out by. Transcripts and embeddings age out by segment
// start time; entities and alerts, which carry no separate start-time
// column, age out by their own creation time.
type pruneable struct {
	table  string
	column string
}
var pruneableTables = []pruneable{
	{table: "transcripts", column: "segment_started_at"},
	{table: "segment_embeddings", column: "segment_started_at"},
	{table: "entities", column: "created_at"},
	{table: "alerts", column: "created_at"},
}

// Result reports how many rows/files a Run pass deleted (or would
// delete, under dry-run), keyed by table name plus a screenshot count.
type Result struct {
	DeletedRows        map[string]int
	DeletedScreenshots int
}

// Run computes a cutoff per pruneable table, counts rows older than it,
// and — unless dryRun — deletes them. Separately it walks screenshotRoot
// and removes image files whose mtime predates the screenshot cutoff.
func Run(ctx context.Context, db *sql.DB, cfg config.RetentionConfig, screenshotRoot string, dryRun bool) (Result, error) {
	now := time.Now().UTC()
	res := Result{DeletedRows: make(map[string]int, len(pruneableTables))}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("retention: begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range pruneableTables {
		cutoff := retentionCutoff(now, cfg, t.table)
		count, err := countOlderThan(ctx, tx, t, cutoff)
		if err != nil {
			return res, err
		}
		if count > 0 && !dryRun {
			if err := deleteOlderThan(ctx, tx, t, cutoff); err != nil {
				return res, err
			}
		}
		res.DeletedRows[t.table] = count
		logging.Info().Str("table", t.table).Int("count", count).Bool("dry_run", dryRun).
			Msg("retention: pruneable table scanned")
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("retention: commit: %w", err)
	}

	screenshotCutoff := now.AddDate(0, 0, -cfg.ScreenshotDays)
	root := screenshotRoot
	if root == "" {
		root = cfg.ScreenshotRoot
	}
	deleted, err := sweepScreenshots(root, screenshotCutoff, dryRun)
	if err != nil {
		logging.Warn().Err(err).Str("root", root).Msg("retention: screenshot sweep failed")
	}
	res.DeletedScreenshots = deleted

	return res, nil
}

// retentionCutoff picks the configured retain-days window for table.
// entities/alerts have no dedicated retain-days knob and reuse
// TranscriptDays instead.
func retentionCutoff(now time.Time, cfg config.RetentionConfig, table string) time.Time {
	switch table {
	case "segment_embeddings":
		return now.AddDate(0, 0, -cfg.EmbeddingDays)
	default:
		return now.AddDate(0, 0, -cfg.TranscriptDays)
	}
}

func countOlderThan(ctx context.Context, tx *sql.Tx, t pruneable, cutoff time.Time) (int, error) {
	query := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s < ?", t.table, t.column)
	var count int
	if err := tx.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("retention: count %s: %w", t.table, err)
	}
	return count, nil
}

func deleteOlderThan(ctx context.Context, tx *sql.Tx, t pruneable, cutoff time.Time) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s < ?", t.table, t.column)
	if _, err := tx.ExecContext(ctx, query, cutoff); err != nil {
		return fmt.Errorf("retention: delete %s: %w", t.table, err)
	}
	return nil
}

var screenshotExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// sweepScreenshots walks root and removes (or, under dryRun, merely
// counts) image files whose modification time predates cutoff.
func sweepScreenshots(root string, cutoff time.Time, dryRun bool) (int, error) {
	if root == "" {
		return 0, nil
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return 0, nil
	}

	deleted := 0
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !screenshotExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		deleted++
		if !dryRun {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				return rmErr
			}
		}
		return nil
	})
	return deleted, walkErr
}
