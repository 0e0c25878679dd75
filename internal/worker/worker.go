// Package worker implements the per-stage analysis workers: a shared
// fetch/attempt/resolve/invoke/upsert/status skeleton, and the seven
// concrete analysers (ASR, OCR, objects, faces, screenshots, entities,
// alerts) that plug into it as the Analyser capability interface.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/AthbiHC/mobasher/internal/metrics"
	"github.com/AthbiHC/mobasher/internal/queue"
)

// Segment is the subset of segment state a worker needs to act on one
// task delivery.
type Segment struct {
	ID             string
	ChannelID      string
	StartedAt      time.Time
	EndedAt        time.Time
	AudioPath      string
	VideoPath      string
	TranscriptText string
}

// Needs declares which media/artifacts an analyser requires present on
// the segment before it can run.
type Needs struct {
	Audio      bool
	Video      bool
	Transcript bool
}

// Artifacts is the union of everything an analyser run can produce;
// only the fields relevant to one stage are populated.
type Artifacts struct {
	Transcript   *TranscriptArtifact
	VisualEvents []VisualEventArtifact
	Entities     []EntityArtifact
	Alerts       []AlertArtifact
	EngineTime   time.Duration
}

// Analyser is one stage's pure transformation: segment in, artifacts
// out. Concrete analysers in this package are stubs over an injected
// AnalyserBackend where real model inference would run; the analyser
// itself owns the surrounding control flow (ROI sampling, span merging,
// dictionary scanning).
type Analyser interface {
	Name() string
	Needs() Needs
	Run(ctx context.Context, seg Segment) (Artifacts, error)
}

// SegmentStore is the persistence surface a Worker needs to fetch a
// segment and transition its per-stage status. internal/store's types
// carry nullable columns that Segment doesn't, so StoreAdapter sits
// between *internal/store.Store and this interface.
type SegmentStore interface {
	GetSegment(ctx context.Context, id string, startedAt time.Time) (*Segment, error)
	SetStageStatus(ctx context.Context, segmentID string, startedAt time.Time, stage, status string) error
}

// ArtifactWriter persists whatever an analyser produced; implemented
// per-stage since each writes different tables.
type ArtifactWriter func(ctx context.Context, seg Segment, artifacts Artifacts) error

// ErrRetryable marks a worker failure that should be retried rather
// than sent straight to the poison queuestep 1's
// "schedule a bounded retry" for a missing segment or media path.
type ErrRetryable struct{ Err error }

func (e *ErrRetryable) Error() string { return e.Err.Error() }
func (e *ErrRetryable) Unwrap() error { return e.Err }

// Worker runs one stage's shared skeleton: fetch, attempt, processing,
// resolve media path, invoke analyser, write artifacts, completed/failed,
// duration histogram. It is wired as a queue.Handler via AsHandler.
type Worker struct {
	Stage    string
	Store    SegmentStore
	Analyser Analyser
	Write    ArtifactWriter
	Resolver PathResolver
}

// AsHandler adapts Worker into a queue.Handler for a Consumer.
func (w *Worker) AsHandler() queue.Handler {
	return func(ctx context.Context, args queue.Args, attempt int) error {
		return w.process(ctx, args, attempt)
	}
}

func (w *Worker) process(ctx context.Context, args queue.Args, attempt int) error {
	seg, err := w.Store.GetSegment(ctx, args.SegmentID, args.SegmentStartedAt)
	if err != nil {
		return fmt.Errorf("fetch segment %s: %w", args.SegmentID, err)
	}
	if seg == nil {
		return &ErrRetryable{Err: fmt.Errorf("segment %s not found", args.SegmentID)}
	}

	needs := w.Analyser.Needs()
	if needs.Audio && seg.AudioPath == "" {
		return &ErrRetryable{Err: fmt.Errorf("segment %s missing audio path", seg.ID)}
	}
	if needs.Video && seg.VideoPath == "" {
		return &ErrRetryable{Err: fmt.Errorf("segment %s missing video path", seg.ID)}
	}
	if needs.Transcript && seg.TranscriptText == "" {
		return &ErrRetryable{Err: fmt.Errorf("segment %s missing transcript", seg.ID)}
	}

	if err := w.Store.SetStageStatus(ctx, seg.ID, seg.StartedAt, w.Stage, "processing"); err != nil {
		return fmt.Errorf("mark %s processing: %w", w.Stage, err)
	}

	if needs.Audio && w.Resolver != nil {
		seg.AudioPath = w.Resolver.Resolve(seg.AudioPath)
	}
	if needs.Video && w.Resolver != nil {
		seg.VideoPath = w.Resolver.Resolve(seg.VideoPath)
	}

	start := time.Now()
	artifacts, runErr := w.Analyser.Run(ctx, *seg)
	elapsed := time.Since(start)

	if runErr != nil {
		_ = w.Store.SetStageStatus(ctx, seg.ID, seg.StartedAt, w.Stage, "failed")
		metrics.RecordWorkerOutcome(w.Stage, seg.ChannelID, "error", elapsed)
		return fmt.Errorf("%s analyser for %s: %w", w.Stage, seg.ID, runErr)
	}

	if w.Write != nil {
		if err := w.Write(ctx, *seg, artifacts); err != nil {
			_ = w.Store.SetStageStatus(ctx, seg.ID, seg.StartedAt, w.Stage, "failed")
			metrics.RecordWorkerOutcome(w.Stage, seg.ChannelID, "error", elapsed)
			return fmt.Errorf("write %s artifacts for %s: %w", w.Stage, seg.ID, err)
		}
	}

	if err := w.Store.SetStageStatus(ctx, seg.ID, seg.StartedAt, w.Stage, "completed"); err != nil {
		return fmt.Errorf("mark %s completed: %w", w.Stage, err)
	}

	metrics.RecordWorkerOutcome(w.Stage, seg.ChannelID, "success", elapsed)
	return nil
}
