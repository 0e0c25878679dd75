package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestScreenshotsAnalyserSavesOneFramePerTimestamp(t *testing.T) {
	root := filepath.Join(t.TempDir(), "shots")
	var saved []string
	backend := &fakeBackend{
		saveScreenshot: func(ctx context.Context, frame Frame, destPath string) error {
			saved = append(saved, destPath)
			return nil
		},
	}

	a := NewScreenshotsAnalyser(backend)
	a.Probe = fixedProbe(4 * time.Second)
	a.Config.FPS = 1.0
	a.Config.Root = root

	artifacts, err := a.Run(context.Background(), Segment{VideoPath: "clip.mp4"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(saved) != 4 {
		t.Fatalf("len(saved) = %d, want 4", len(saved))
	}
	if len(artifacts.VisualEvents) != 4 {
		t.Fatalf("len(VisualEvents) = %d, want 4", len(artifacts.VisualEvents))
	}
	for _, ev := range artifacts.VisualEvents {
		if ev.EventType != "screenshot" || ev.ScreenshotPath == "" {
			t.Fatalf("event %+v, want a screenshot event with a path", ev)
		}
	}

	if _, err := os.Stat(root); err != nil {
		t.Fatalf("expected screenshot root to be created: %v", err)
	}
}

func TestScreenshotsAnalyserPropagatesSaveError(t *testing.T) {
	backend := &fakeBackend{
		saveScreenshot: func(ctx context.Context, frame Frame, destPath string) error {
			return errProbeFailed
		},
	}
	a := NewScreenshotsAnalyser(backend)
	a.Probe = fixedProbe(1 * time.Second)
	a.Config.FPS = 1.0
	a.Config.Root = filepath.Join(t.TempDir(), "shots")

	if _, err := a.Run(context.Background(), Segment{VideoPath: "clip.mp4"}); err == nil {
		t.Fatal("expected an error when SaveScreenshot fails")
	}
}

func TestScreenshotsAnalyserNeedsVideo(t *testing.T) {
	a := NewScreenshotsAnalyser(&fakeBackend{})
	if !a.Needs().Video {
		t.Fatal("expected Needs().Video to be true")
	}
}

func TestDefaultScreenshotsConfigHonoursEnvVar(t *testing.T) {
	t.Setenv(screenshotRootEnvVar, "/custom/root")
	cfg := DefaultScreenshotsConfig()
	if cfg.Root != "/custom/root" {
		t.Fatalf("Root = %s, want /custom/root", cfg.Root)
	}
}
