package retention

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AthbiHC/mobasher/internal/config"
	"github.com/AthbiHC/mobasher/internal/store"
)

func seedTranscript(t *testing.T, st *store.Store, ctx context.Context, channelID string, startedAt time.Time) {
	t.Helper()
	if err := st.UpsertSegment(ctx, channelID, "audio", "/data/a.wav", startedAt, startedAt.Add(time.Minute), 1000); err != nil {
		t.Fatalf("UpsertSegment: %v", err)
	}
	id := store.SegmentID(channelID, startedAt)
	if err := st.UpsertTranscript(ctx, id, startedAt, "hello", nil, "en", nil, nil, "whisper-small", nil, nil, nil); err != nil {
		t.Fatalf("UpsertTranscript: %v", err)
	}
}

func TestRunDeletesOnlyRowsOlderThanCutoff(t *testing.T) {
	st := openTestStore(t)
	ctx := t.Context()

	old := time.Now().UTC().AddDate(0, 0, -400)
	recent := time.Now().UTC().AddDate(0, 0, -1)
	seedTranscript(t, st, ctx, "ch1", old)
	seedTranscript(t, st, ctx, "ch2", recent)

	cfg := config.RetentionConfig{TranscriptDays: 365, EmbeddingDays: 365, ScreenshotDays: 90}
	res, err := Run(ctx, st.Conn(), cfg, "", false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.DeletedRows["transcripts"] != 1 {
		t.Fatalf("expected one deleted transcript, got %+v", res.DeletedRows)
	}

	remaining, err := st.ListRecentTranscripts(ctx, "", nil, 10, 0)
	if err != nil {
		t.Fatalf("ListRecentTranscripts: %v", err)
	}
	if len(remaining) != 1 || remaining[0].SegmentID != store.SegmentID("ch2", recent) {
		t.Fatalf("expected only the recent transcript to survive, got %+v", remaining)
	}
}

func TestRunDryRunChangesNothing(t *testing.T) {
	st := openTestStore(t)
	ctx := t.Context()

	old := time.Now().UTC().AddDate(0, 0, -400)
	seedTranscript(t, st, ctx, "ch1", old)

	cfg := config.RetentionConfig{TranscriptDays: 365, EmbeddingDays: 365, ScreenshotDays: 90}
	res, err := Run(ctx, st.Conn(), cfg, "", true)
	if err != nil {
		t.Fatalf("Run dry-run: %v", err)
	}
	if res.DeletedRows["transcripts"] != 1 {
		t.Fatalf("expected dry-run to report the count, got %+v", res.DeletedRows)
	}

	remaining, err := st.ListRecentTranscripts(ctx, "", nil, 10, 0)
	if err != nil {
		t.Fatalf("ListRecentTranscripts: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("dry-run must not delete rows, got %+v", remaining)
	}
}

func TestRunSweepsOldScreenshotFiles(t *testing.T) {
	st := openTestStore(t)
	ctx := t.Context()

	root := t.TempDir()
	oldFile := filepath.Join(root, "old.jpg")
	newFile := filepath.Join(root, "new.jpg")
	if err := os.WriteFile(oldFile, []byte("x"), 0o644); err != nil {
		t.Fatalf("write old: %v", err)
	}
	if err := os.WriteFile(newFile, []byte("x"), 0o644); err != nil {
		t.Fatalf("write new: %v", err)
	}
	oldTime := time.Now().Add(-200 * 24 * time.Hour)
	if err := os.Chtimes(oldFile, oldTime, oldTime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	cfg := config.RetentionConfig{TranscriptDays: 365, EmbeddingDays: 365, ScreenshotDays: 90}
	res, err := Run(ctx, st.Conn(), cfg, root, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.DeletedScreenshots != 1 {
		t.Fatalf("expected one screenshot removed, got %d", res.DeletedScreenshots)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Fatalf("expected old.jpg to be removed")
	}
	if _, err := os.Stat(newFile); err != nil {
		t.Fatalf("expected new.jpg to survive: %v", err)
	}
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}
