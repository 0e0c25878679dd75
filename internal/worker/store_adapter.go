package worker

import (
	"context"
	"time"

	"github.com/AthbiHC/mobasher/internal/store"
)

// StoreAdapter implements SegmentStore against a *store.Store, converting
// its nullable-column Segment into the plain Segment analysers work
// with, and joining in transcript text for the NLP stages (entities,
// alerts) that declare Needs{Transcript: true}.
type StoreAdapter struct {
	Store *store.Store

	// Stage is this adapter's consumer stage name ("entities" or
	// "alerts" trigger a transcript-text fetch; anything else skips it
	// since the segment has no transcript yet when ASR/vision workers
	// fetch it).
	Stage string
}

// GetSegment implements SegmentStore.
func (a *StoreAdapter) GetSegment(ctx context.Context, id string, startedAt time.Time) (*Segment, error) {
	seg, err := a.Store.GetSegment(ctx, id, startedAt)
	if err != nil {
		return nil, err
	}

	out := &Segment{
		ID:        seg.ID,
		ChannelID: seg.ChannelID,
		StartedAt: seg.StartedAt,
		AudioPath: seg.AudioPath.String,
		VideoPath: seg.VideoPath.String,
	}
	if seg.EndedAt.Valid {
		out.EndedAt = seg.EndedAt.Time
	}

	if a.Stage == "entities" || a.Stage == "alerts" {
		text, err := a.Store.GetTranscriptText(ctx, seg.ID, seg.StartedAt)
		if err != nil {
			return nil, &ErrRetryable{Err: err}
		}
		out.TranscriptText = text
	}

	return out, nil
}

// SetStageStatus implements SegmentStore.
func (a *StoreAdapter) SetStageStatus(ctx context.Context, segmentID string, startedAt time.Time, stage, status string) error {
	return a.Store.SetStageStatus(ctx, segmentID, startedAt, stage, status)
}

var _ SegmentStore = (*StoreAdapter)(nil)
