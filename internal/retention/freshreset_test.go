package retention

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFreshResetRefusesWithoutConfirmation(t *testing.T) {
	st := openTestStore(t)
	_, err := FreshReset(t.Context(), FreshResetOptions{Confirm: false, DB: st.Conn()})
	if err != ErrSafetyViolation {
		t.Fatalf("err = %v, want ErrSafetyViolation", err)
	}
}

func TestFreshResetTruncatesDerivedTables(t *testing.T) {
	st := openTestStore(t)
	ctx := t.Context()
	if _, err := st.UpsertChannel(ctx, "ch1", "Channel One", "rtsp://example/ch1", nil, true, ""); err != nil {
		t.Fatalf("UpsertChannel: %v", err)
	}
	seedTranscript(t, st, ctx, "ch1", time.Now().UTC())

	report, err := FreshReset(ctx, FreshResetOptions{Confirm: true, DB: st.Conn()})
	if err != nil {
		t.Fatalf("FreshReset: %v", err)
	}
	if report.TruncatedTables["transcripts"] != 1 {
		t.Fatalf("expected one transcript counted, got %+v", report.TruncatedTables)
	}

	remaining, err := st.ListRecentTranscripts(ctx, "", nil, 10, 0)
	if err != nil {
		t.Fatalf("ListRecentTranscripts: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected transcripts truncated, got %+v", remaining)
	}

	channels, err := st.ListChannels(ctx, false)
	if err != nil {
		t.Fatalf("ListChannels: %v", err)
	}
	if len(channels) == 0 {
		t.Fatalf("channels table must survive unless TruncateChannels is set")
	}
}

func TestFreshResetDryRunLeavesTablesIntact(t *testing.T) {
	st := openTestStore(t)
	ctx := t.Context()
	seedTranscript(t, st, ctx, "ch1", time.Now().UTC())

	report, err := FreshReset(ctx, FreshResetOptions{Confirm: true, DB: st.Conn(), DryRun: true})
	if err != nil {
		t.Fatalf("FreshReset: %v", err)
	}
	if report.TruncatedTables["transcripts"] != 1 {
		t.Fatalf("expected dry-run to still report counts, got %+v", report.TruncatedTables)
	}

	remaining, err := st.ListRecentTranscripts(ctx, "", nil, 10, 0)
	if err != nil {
		t.Fatalf("ListRecentTranscripts: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("dry-run must not truncate, got %+v", remaining)
	}
}

func TestFreshResetWipesDateSubdirectories(t *testing.T) {
	root := t.TempDir()
	today := time.Now().UTC().Format("2006-01-02")
	stale := "2020-01-01"

	for _, category := range []string{"audio", "video"} {
		for _, date := range []string{today, stale} {
			dir := filepath.Join(root, category, date)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				t.Fatalf("MkdirAll: %v", err)
			}
			if err := os.WriteFile(filepath.Join(dir, "seg.wav"), []byte("x"), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
		}
	}

	st := openTestStore(t)
	report, err := FreshReset(context.Background(), FreshResetOptions{
		Confirm:   true,
		DB:        st.Conn(),
		DataRoots: []string{root},
	})
	if err != nil {
		t.Fatalf("FreshReset: %v", err)
	}
	if len(report.RemovedDirs) != 4 {
		t.Fatalf("expected 4 date dirs removed (audio+video x today+stale), got %+v", report.RemovedDirs)
	}
	for _, category := range []string{"audio", "video"} {
		if _, err := os.Stat(filepath.Join(root, category, today)); !os.IsNotExist(err) {
			t.Fatalf("%s/%s should have been removed", category, today)
		}
	}
}

func TestFreshResetTodayOnlyLeavesStaleDatesAlone(t *testing.T) {
	root := t.TempDir()
	today := time.Now().UTC().Format("2006-01-02")
	stale := "2020-01-01"
	for _, date := range []string{today, stale} {
		dir := filepath.Join(root, "audio", date)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
	}

	st := openTestStore(t)
	report, err := FreshReset(context.Background(), FreshResetOptions{
		Confirm:   true,
		DB:        st.Conn(),
		DataRoots: []string{root},
		TodayOnly: true,
	})
	if err != nil {
		t.Fatalf("FreshReset: %v", err)
	}
	if len(report.RemovedDirs) != 1 {
		t.Fatalf("expected only today's dir removed, got %+v", report.RemovedDirs)
	}
	if _, err := os.Stat(filepath.Join(root, "audio", stale)); err != nil {
		t.Fatalf("stale date dir should survive TodayOnly reset: %v", err)
	}
}
