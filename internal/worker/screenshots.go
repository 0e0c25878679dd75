package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AthbiHC/mobasher/internal/capture"
)

// screenshotRootEnvVar overrides the default screenshot root.
const screenshotRootEnvVar = "MOBASHER_SCREENSHOT_ROOT"

// ScreenshotsConfig tunes the standalone screenshot capture task.
type ScreenshotsConfig struct {
	FPS  float64
	Root string
}

// DefaultScreenshotsConfig samples one frame every four seconds, a
// slower rate than OCR sampling since these captures serve preview
// galleries rather than span detection.
func DefaultScreenshotsConfig() ScreenshotsConfig {
	root := os.Getenv(screenshotRootEnvVar)
	if root == "" {
		root = filepath.Join("data", "screenshot")
	}
	return ScreenshotsConfig{FPS: 0.25, Root: root}
}

// ScreenshotsAnalyser captures periodic full-frame stills from a
// segment's video leg, independent of OCR's region-scoped screenshots.
type ScreenshotsAnalyser struct {
	Backend AnalyserBackend
	Config  ScreenshotsConfig
	Probe   func(videoPath string) (time.Duration, error)
}

// NewScreenshotsAnalyser builds a screenshots analyser with the default
// sampling rate and screenshot root.
func NewScreenshotsAnalyser(backend AnalyserBackend) *ScreenshotsAnalyser {
	return &ScreenshotsAnalyser{
		Backend: backend,
		Config:  DefaultScreenshotsConfig(),
		Probe:   capture.ProbeDuration,
	}
}

func (a *ScreenshotsAnalyser) Name() string { return "screenshots" }

func (a *ScreenshotsAnalyser) Needs() Needs { return Needs{Video: true} }

func (a *ScreenshotsAnalyser) Run(ctx context.Context, seg Segment) (Artifacts, error) {
	if err := os.MkdirAll(a.Config.Root, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("create screenshot root %s: %w", a.Config.Root, err)
	}

	duration, err := a.Probe(seg.VideoPath)
	if err != nil {
		duration = 60 * time.Second
	}

	timestamps := sampleTimestamps(duration.Seconds(), a.Config.FPS)
	width, height := frameDimensions(seg)

	base := strings.TrimSuffix(filepath.Base(seg.VideoPath), filepath.Ext(seg.VideoPath))

	events := make([]VisualEventArtifact, 0, len(timestamps))
	for idx, ts := range timestamps {
		if err := ctx.Err(); err != nil {
			return Artifacts{}, err
		}

		frame := Frame{VideoPath: seg.VideoPath, TimestampSec: ts, Width: width, Height: height}
		shotName := base + "-seg_" + strconv.Itoa(idx) + "_full.jpg"
		shotPath := filepath.Join(a.Config.Root, shotName)

		if err := a.Backend.SaveScreenshot(ctx, frame, shotPath); err != nil {
			return Artifacts{}, fmt.Errorf("save screenshot at %.3fs: %w", ts, err)
		}

		events = append(events, VisualEventArtifact{
			OffsetSeconds:  ts,
			EventType:      "screenshot",
			VideoPath:      seg.VideoPath,
			ScreenshotPath: shotPath,
		})
	}

	return Artifacts{VisualEvents: events}, nil
}
