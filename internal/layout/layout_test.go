package layout

import (
	"strings"
	"testing"
	"time"
)

func TestAudioVideoDirsDateFolders(t *testing.T) {
	root := t.TempDir()
	l := New(root, "bbc1", true)
	today := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	audioDir, err := l.AudioDir(today)
	if err != nil {
		t.Fatalf("AudioDir: %v", err)
	}
	if !strings.HasSuffix(audioDir, "audio/2026-07-30") && !strings.Contains(audioDir, "2026-07-30") {
		t.Errorf("expected date-folder subdir, got %s", audioDir)
	}
}

func TestChannelIDFoldersWhenDateFoldersDisabled(t *testing.T) {
	root := t.TempDir()
	l := New(root, "bbc1", false)
	today := time.Now()

	videoDir, err := l.VideoDir(today)
	if err != nil {
		t.Fatalf("VideoDir: %v", err)
	}
	if !strings.Contains(videoDir, "bbc1") {
		t.Errorf("expected channel-id subdir, got %s", videoDir)
	}
}

func TestSegmentPathNaming(t *testing.T) {
	l := New("/data", "bbc1", true)
	startedAt := time.Date(2026, 7, 30, 14, 5, 0, 0, time.UTC)

	audioPath := l.AudioSegmentPath(startedAt)
	if !strings.HasSuffix(audioPath, "bbc1-20260730-140500.wav") {
		t.Errorf("unexpected audio path: %s", audioPath)
	}

	videoPath := l.VideoSegmentPath(startedAt)
	if !strings.HasSuffix(videoPath, "bbc1-20260730-140500.mp4") {
		t.Errorf("unexpected video path: %s", videoPath)
	}
}

func TestThumbnailPath(t *testing.T) {
	got := ThumbnailPath("/data/archive/bbc1/2026-07-30/bbc1-2026-07-30-140500.mp4")
	want := "/data/archive/bbc1/2026-07-30/bbc1-2026-07-30-140500-thumb.jpg"
	if got != want {
		t.Errorf("got %s want %s", got, want)
	}
}
