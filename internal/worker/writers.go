package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AthbiHC/mobasher/internal/store"
)

// TranscriptStore is the persistence surface NewTranscriptWriter needs,
// satisfied by *internal/store.Store.
type TranscriptStore interface {
	UpsertTranscript(ctx context.Context, segmentID string, segmentStartedAt time.Time, text string, textNorm *string, language string, confidence *float64, words any, modelName string, modelVersion *string, processingTimeMs, engineTimeMs *int64) error
}

// NewTranscriptWriter adapts the ASR analyser's output into a call to
// UpsertTranscript.
func NewTranscriptWriter(db TranscriptStore) ArtifactWriter {
	return func(ctx context.Context, seg Segment, artifacts Artifacts) error {
		tr := artifacts.Transcript
		if tr == nil {
			return nil
		}

		var textNorm *string
		if tr.TextNorm != "" {
			textNorm = &tr.TextNorm
		}
		var modelVersion *string
		if tr.ModelVersion != "" {
			modelVersion = &tr.ModelVersion
		}
		processingMs := tr.ProcessingTimeMs
		engineMs := tr.EngineTimeMs

		err := db.UpsertTranscript(ctx, seg.ID, seg.StartedAt, tr.Text, textNorm, tr.Language, tr.Confidence,
			tr.Words, tr.ModelName, modelVersion, &processingMs, &engineMs)
		if err != nil {
			return fmt.Errorf("upsert transcript for %s: %w", seg.ID, err)
		}
		return nil
	}
}

// VisualEventStore is the persistence surface NewVisualEventWriter
// needs, satisfied by *internal/store.Store.
type VisualEventStore interface {
	InsertVisualEvent(ctx context.Context, ev store.VisualEvent) (string, error)
}

// NewVisualEventWriter adapts any vision analyser's output (OCR,
// objects, faces) into one InsertVisualEvent call per emitted event.
// All three vision analysers share this writer since they all populate
// Artifacts.VisualEvents.
func NewVisualEventWriter(db VisualEventStore) ArtifactWriter {
	return func(ctx context.Context, seg Segment, artifacts Artifacts) error {
		for _, ev := range artifacts.VisualEvents {
			var bbox *store.BoundingBox
			if ev.BBoxW > 0 || ev.BBoxH > 0 {
				bbox = &store.BoundingBox{X: ev.BBoxX, Y: ev.BBoxY, W: ev.BBoxW, H: ev.BBoxH}
			}

			var payload json.RawMessage
			if ev.Region != "" || ev.Text != "" {
				// Region and detected text live in the free-form payload
				// column, not dedicated columns, so the read
				// API's region/q filters reach them via JSON extraction.
				encoded, err := json.Marshal(struct {
					Region string `json:"region,omitempty"`
					Text   string `json:"text,omitempty"`
				}{Region: ev.Region, Text: ev.Text})
				if err != nil {
					return fmt.Errorf("marshal visual event payload for %s: %w", seg.ID, err)
				}
				payload = encoded
			}

			row := store.VisualEvent{
				SegmentID:        seg.ID,
				SegmentStartedAt: seg.StartedAt,
				ChannelID:        seg.ChannelID,
				OffsetSeconds:    ev.OffsetSeconds,
				EventType:        ev.EventType,
				BBox:             bbox,
				Confidence:       ev.Confidence,
				Payload:          payload,
				VideoPath:        ev.VideoPath,
				ScreenshotPath:   ev.ScreenshotPath,
			}
			if _, err := db.InsertVisualEvent(ctx, row); err != nil {
				return fmt.Errorf("insert visual event for %s: %w", seg.ID, err)
			}
		}
		return nil
	}
}

// EntityStore is the persistence surface NewEntityWriter needs,
// satisfied by *internal/store.Store.
type EntityStore interface {
	InsertEntity(ctx context.Context, e store.Entity) (string, error)
}

// NewEntityWriter adapts the entities analyser's output into one
// InsertEntity call per match.
func NewEntityWriter(db EntityStore) ArtifactWriter {
	return func(ctx context.Context, seg Segment, artifacts Artifacts) error {
		for _, e := range artifacts.Entities {
			row := store.Entity{
				SegmentID:   seg.ID,
				ChannelID:   seg.ChannelID,
				SpanStart:   e.SpanStart,
				SpanEnd:     e.SpanEnd,
				Label:       e.Label,
				SourceModel: e.Model,
			}
			if _, err := db.InsertEntity(ctx, row); err != nil {
				return fmt.Errorf("insert entity for %s: %w", seg.ID, err)
			}
		}
		return nil
	}
}

// AlertStore is the persistence surface NewAlertWriter needs, satisfied
// by *internal/store.Store.
type AlertStore interface {
	InsertAlert(ctx context.Context, a store.Alert) (string, error)
}

// NewAlertWriter adapts the alerts analyser's output into one
// InsertAlert call per match.
func NewAlertWriter(db AlertStore) ArtifactWriter {
	return func(ctx context.Context, seg Segment, artifacts Artifacts) error {
		for _, al := range artifacts.Alerts {
			row := store.Alert{
				ChannelID:     seg.ChannelID,
				SegmentID:     seg.ID,
				MatchedPhrase: al.MatchedPhrase,
				Category:      al.Category,
				Score:         al.Score,
			}
			if _, err := db.InsertAlert(ctx, row); err != nil {
				return fmt.Errorf("insert alert for %s: %w", seg.ID, err)
			}
		}
		return nil
	}
}
