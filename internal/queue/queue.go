// Package queue is the task-queue adapter: a named queue over NATS
// JetStream with a Badger-backed SET-IF-ABSENT dedupe gate in front of
// it, built on a Watermill-over-NATS transport.
package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskName identifies one of the seven downstream analysis tasks the
// ingestion core drives.
type TaskName string

const (
	TaskASRTranscribeSegment      TaskName = "asr.transcribe_segment"
	TaskVisionOCRSegment          TaskName = "vision.ocr_segment"
	TaskVisionObjectsSegment      TaskName = "vision.objects_segment"
	TaskVisionFacesSegment        TaskName = "vision.faces_segment"
	TaskVisionScreenshotsSegment  TaskName = "vision.screenshots_segment"
	TaskNLPEntitiesForTranscript  TaskName = "nlp.entities_for_transcript"
	TaskNLPAlertsForTranscript    TaskName = "nlp.alerts_for_transcript"
)

// TaskNames lists every task the core enqueues and consumes, in the
// order streams and consumers are provisioned.
var TaskNames = []TaskName{
	TaskASRTranscribeSegment,
	TaskVisionOCRSegment,
	TaskVisionObjectsSegment,
	TaskVisionFacesSegment,
	TaskVisionScreenshotsSegment,
	TaskNLPEntitiesForTranscript,
	TaskNLPAlertsForTranscript,
}

// Args is the argument tuple every task carries: a segment's identity.
type Args struct {
	SegmentID        string    `json:"segment_id"`
	SegmentStartedAt time.Time `json:"segment_started_at"`
}

// DedupeKey returns the "<stage>:queued:<id>:<started_at_iso>" key a
// scheduler sets before enqueueing the glossary entry.
func DedupeKey(stage, segmentID string, startedAt time.Time) string {
	return fmt.Sprintf("%s:queued:%s:%s", stage, segmentID, startedAt.UTC().Format(time.RFC3339))
}

func marshalArgs(a Args) ([]byte, error) {
	return json.Marshal(a)
}

func unmarshalArgs(data []byte) (Args, error) {
	var a Args
	if err := json.Unmarshal(data, &a); err != nil {
		return Args{}, fmt.Errorf("unmarshal task args: %w", err)
	}
	return a, nil
}
