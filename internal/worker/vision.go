package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/AthbiHC/mobasher/internal/capture"
)

// detectionAnalyser is the shared skeleton for the object and face
// workers: sample frames at FPS, run one detector over the full frame,
// emit one visual event per detection. Both workers share this
// structure; only the detector function and event type differ.
type detectionAnalyser struct {
	stage     string
	eventType string
	fps       float64
	probe     func(videoPath string) (time.Duration, error)
	detect    func(ctx context.Context, backend AnalyserBackend, frame Frame) ([]Detection, error)
	backend   AnalyserBackend
}

func (a *detectionAnalyser) Name() string { return a.stage }

func (a *detectionAnalyser) Needs() Needs { return Needs{Video: true} }

func (a *detectionAnalyser) Run(ctx context.Context, seg Segment) (Artifacts, error) {
	duration, err := a.probe(seg.VideoPath)
	if err != nil {
		duration = 60 * time.Second
	}

	timestamps := sampleTimestamps(duration.Seconds(), a.fps)
	width, height := frameDimensions(seg)

	var events []VisualEventArtifact
	for _, ts := range timestamps {
		if err := ctx.Err(); err != nil {
			return Artifacts{}, err
		}

		frame := Frame{VideoPath: seg.VideoPath, TimestampSec: ts, Width: width, Height: height}
		detections, err := a.detect(ctx, a.backend, frame)
		if err != nil {
			return Artifacts{}, fmt.Errorf("%s at %.3fs: %w", a.stage, ts, err)
		}

		for _, d := range detections {
			events = append(events, VisualEventArtifact{
				OffsetSeconds: ts,
				EventType:     a.eventType,
				BBoxX:         d.X,
				BBoxY:         d.Y,
				BBoxW:         d.W,
				BBoxH:         d.H,
				Confidence:    d.Confidence,
				Text:          d.Label,
				VideoPath:     seg.VideoPath,
			})
		}
	}

	return Artifacts{VisualEvents: events}, nil
}

// NewObjectsAnalyser samples video frames and emits one visual event
// per detected object.
func NewObjectsAnalyser(backend AnalyserBackend) Analyser {
	return &detectionAnalyser{
		stage:     "objects",
		eventType: "object",
		fps:       1.0,
		probe:     capture.ProbeDuration,
		backend:   backend,
		detect: func(ctx context.Context, backend AnalyserBackend, frame Frame) ([]Detection, error) {
			return backend.DetectObjects(ctx, frame)
		},
	}
}

// NewFacesAnalyser samples video frames and emits one visual event per
// detected face.
func NewFacesAnalyser(backend AnalyserBackend) Analyser {
	return &detectionAnalyser{
		stage:     "faces",
		eventType: "face",
		fps:       1.0,
		probe:     capture.ProbeDuration,
		backend:   backend,
		detect: func(ctx context.Context, backend AnalyserBackend, frame Frame) ([]Detection, error) {
			return backend.DetectFaces(ctx, frame)
		},
	}
}
