package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AthbiHC/mobasher/internal/capture"
)

// OCRConfig tunes sampling rate, ROI bands, and span-merge thresholds,
// matching VisionSettings.
type OCRConfig struct {
	FPS              float64
	ROIs             []ROI
	IoUThreshold     float64
	TextSimThreshold float64
	MergeWindow      time.Duration
	ScreenshotRoot   string

	// WriteRaw additionally emits one visual event per raw per-token
	// detection (with its own bbox/confidence), alongside the
	// always-emitted merged per-region spans. Off by default: raw
	// events multiply row volume by however many tokens a frame
	// detects.
	WriteRaw bool
}

// DefaultOCRConfig returns the OCR worker's default tuning.
func DefaultOCRConfig() OCRConfig {
	return OCRConfig{
		FPS:              3.0,
		ROIs:             DefaultROIs,
		IoUThreshold:     0.3,
		TextSimThreshold: 0.6,
		MergeWindow:      2 * time.Second,
		ScreenshotRoot:   DefaultScreenshotsConfig().Root,
		WriteRaw:         false,
	}
}

// OCRAnalyser samples frames across a segment's video leg, runs OCR
// over full-frame and ROI-banded regions, and merges per-frame hits
// into text spans.
type OCRAnalyser struct {
	Backend AnalyserBackend
	Config  OCRConfig
	Probe   func(videoPath string) (time.Duration, error)
}

// NewOCRAnalyser builds an OCR analyser backed by probeDuration-style
// ffprobe inspection (internal/capture's own duration probe).
func NewOCRAnalyser(backend AnalyserBackend) *OCRAnalyser {
	return &OCRAnalyser{
		Backend: backend,
		Config:  DefaultOCRConfig(),
		Probe:   capture.ProbeDuration,
	}
}

func (a *OCRAnalyser) Name() string { return "ocr" }

func (a *OCRAnalyser) Needs() Needs { return Needs{Video: true} }

type aggregatedFrame struct {
	ts       float64
	region   string
	text     string
	bbox     Rect
	fontPx   int
	shotPath string
}

func (a *OCRAnalyser) Run(ctx context.Context, seg Segment) (Artifacts, error) {
	if err := os.MkdirAll(a.Config.ScreenshotRoot, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("create screenshot root %s: %w", a.Config.ScreenshotRoot, err)
	}

	duration, err := a.Probe(seg.VideoPath)
	if err != nil {
		duration = 60 * time.Second
	}

	timestamps := sampleTimestamps(duration.Seconds(), a.Config.FPS)
	base := strings.TrimSuffix(filepath.Base(seg.VideoPath), filepath.Ext(seg.VideoPath))

	var aggregated []aggregatedFrame
	var rawEvents []VisualEventArtifact
	for idx, ts := range timestamps {
		if err := ctx.Err(); err != nil {
			return Artifacts{}, err
		}

		width, height := frameDimensions(seg)
		rects := computeRects(width, height, a.Config.ROIs)

		for _, nr := range rects {
			frame := Frame{VideoPath: seg.VideoPath, TimestampSec: ts, Width: width, Height: height}

			shotName := base + "-seg_" + strconv.Itoa(idx) + "_" + nr.Name + ".jpg"
			shotPath := filepath.Join(a.Config.ScreenshotRoot, shotName)
			if err := a.Backend.SaveScreenshot(ctx, frame, shotPath); err != nil {
				return Artifacts{}, fmt.Errorf("save screenshot at %.3fs/%s: %w", ts, nr.Name, err)
			}

			detections, err := a.Backend.DetectText(ctx, frame, nr.Rect)
			if err != nil {
				return Artifacts{}, fmt.Errorf("detect text at %.3fs/%s: %w", ts, nr.Name, err)
			}
			if len(detections) == 0 {
				continue
			}
			af := buildAggregatedFrame(ts, nr.Name, detections)
			af.shotPath = shotPath
			aggregated = append(aggregated, af)

			if a.Config.WriteRaw {
				rawEvents = append(rawEvents, rawTokenEvents(ts, nr.Name, seg.VideoPath, shotPath, detections)...)
			}
		}
	}

	spans := mergeSpans(aggregated, a.Config)

	events := make([]VisualEventArtifact, 0, len(spans)+len(rawEvents))
	for _, sp := range spans {
		events = append(events, VisualEventArtifact{
			OffsetSeconds:  sp.start,
			EndOffset:      sp.end,
			EventType:      "ocr",
			BBoxX:          float64(sp.bbox.X),
			BBoxY:          float64(sp.bbox.Y),
			BBoxW:          float64(sp.bbox.W),
			BBoxH:          float64(sp.bbox.H),
			Text:           sp.text,
			Aggregated:     true,
			VideoPath:      seg.VideoPath,
			ScreenshotPath: sp.shotPath,
		})
	}
	events = append(events, rawEvents...)

	return Artifacts{VisualEvents: events}, nil
}

// rawTokenEvents builds one un-aggregated visual event per raw OCR
// detection, each keeping its own bbox/confidence rather than the union
// buildAggregatedFrame folds them into.
func rawTokenEvents(ts float64, region, videoPath, shotPath string, detections []TextDetection) []VisualEventArtifact {
	events := make([]VisualEventArtifact, 0, len(detections))
	for _, d := range detections {
		events = append(events, VisualEventArtifact{
			OffsetSeconds:  ts,
			EndOffset:      ts,
			EventType:      "ocr_raw",
			BBoxX:          d.X,
			BBoxY:          d.Y,
			BBoxW:          d.W,
			BBoxH:          d.H,
			Confidence:     d.Confidence,
			Text:           d.Text,
			Region:         region,
			Aggregated:     false,
			VideoPath:      videoPath,
			ScreenshotPath: shotPath,
		})
	}
	return events
}

func buildAggregatedFrame(ts float64, region string, detections []TextDetection) aggregatedFrame {
	sort.Slice(detections, func(i, j int) bool { return detections[i].X < detections[j].X })

	texts := make([]string, 0, len(detections))
	union := Rect{X: int(detections[0].X), Y: int(detections[0].Y), W: int(detections[0].W), H: int(detections[0].H)}
	fontPx := 0
	for _, d := range detections {
		texts = append(texts, d.Text)
		r := Rect{X: int(d.X), Y: int(d.Y), W: int(d.W), H: int(d.H)}
		union = unionRect(union, r)
		if r.H > fontPx {
			fontPx = r.H
		}
	}

	text := texts[0]
	for _, t := range texts[1:] {
		text += " " + t
	}

	return aggregatedFrame{ts: ts, region: region, text: text, bbox: union, fontPx: fontPx}
}

type ocrSpan struct {
	start, end float64
	text       string
	bbox       Rect
	shotPath   string
}

// mergeSpans implements the per-region span merge: consecutive
// aggregated frames within MergeWindow whose text and
// bounding box are similar enough (text similarity and IoU both above
// threshold) extend the current span; otherwise a new span starts.
func mergeSpans(frames []aggregatedFrame, cfg OCRConfig) []ocrSpan {
	byRegion := make(map[string][]aggregatedFrame)
	for _, f := range frames {
		byRegion[f.region] = append(byRegion[f.region], f)
	}

	var spans []ocrSpan
	for _, items := range byRegion {
		sort.Slice(items, func(i, j int) bool { return items[i].ts < items[j].ts })

		var current *ocrSpan
		for _, it := range items {
			if current == nil {
				current = &ocrSpan{start: it.ts, end: it.ts, text: it.text, bbox: it.bbox, shotPath: it.shotPath}
				continue
			}
			withinWindow := it.ts-current.end <= cfg.MergeWindow.Seconds()
			if withinWindow && tokenSetRatio(current.text, it.text) >= cfg.TextSimThreshold && iou(current.bbox, it.bbox) >= cfg.IoUThreshold {
				current.end = it.ts
				current.bbox = unionRect(current.bbox, it.bbox)
				continue
			}
			spans = append(spans, *current)
			current = &ocrSpan{start: it.ts, end: it.ts, text: it.text, bbox: it.bbox, shotPath: it.shotPath}
		}
		if current != nil {
			spans = append(spans, *current)
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	return spans
}

// frameDimensions is a placeholder until a real decoder backend is
// wired in; ROI bands are fractions of height so a stable reference
// resolution keeps span-merge geometry consistent across fixtures.
func frameDimensions(seg Segment) (int, int) {
	return 1920, 1080
}
