package api

import (
	"context"
	"time"

	"github.com/AthbiHC/mobasher/internal/store"
)

// ChannelStore is the persistence surface the channel endpoints need.
type ChannelStore interface {
	UpsertChannel(ctx context.Context, id, name, url string, headers map[string]string, active bool, description string) (*store.Channel, error)
	GetChannel(ctx context.Context, id string) (*store.Channel, error)
	ListChannels(ctx context.Context, activeOnly bool) ([]*store.Channel, error)
}

// RecordingStore is the persistence surface the recordings endpoint needs.
type RecordingStore interface {
	ListRecentRecordings(ctx context.Context, channelID string, since *time.Time, status string, limit, offset int) ([]*store.Recording, error)
}

// SegmentStore is the persistence surface the segments endpoint needs.
type SegmentStore interface {
	ListSegments(ctx context.Context, channelID string, start, end *time.Time, status string, limit, offset int) ([]*store.Segment, error)
}

// TranscriptStore is the persistence surface the transcripts endpoint needs.
type TranscriptStore interface {
	ListTranscriptsWithSegments(ctx context.Context, channelID string, since *time.Time, limit, offset int) ([]*store.TranscriptWithSegment, error)
}

// VisualEventStore is the persistence surface the visual-events and
// screenshots endpoints need.
type VisualEventStore interface {
	ListVisualEvents(ctx context.Context, f store.VisualEventFilter) ([]*store.VisualEvent, error)
}

// Handler holds the narrow store interfaces each endpoint group needs,
// rather than the full *internal/store.Store, matching the
// capability-interface split internal/worker's writers use.
type Handler struct {
	channels     ChannelStore
	recordings   RecordingStore
	segments     SegmentStore
	transcripts  TranscriptStore
	visualEvents VisualEventStore
	startTime    time.Time
}

// NewHandler wires a Handler to its backing stores. All dependencies
// are normally the same *store.Store instance; they are split into
// narrow interfaces here purely for handler-level testability.
func NewHandler(channels ChannelStore, recordings RecordingStore, segments SegmentStore, transcripts TranscriptStore, visualEvents VisualEventStore) *Handler {
	return &Handler{
		channels:     channels,
		recordings:   recordings,
		segments:     segments,
		transcripts:  transcripts,
		visualEvents: visualEvents,
		startTime:    time.Now(),
	}
}
