package worker

import "time"

// TranscriptArtifact is the ASR worker's output.
type TranscriptArtifact struct {
	Text             string
	TextNorm         string
	Language         string
	Confidence       *float64
	ModelName        string
	ModelVersion     string
	ProcessingTimeMs int64
	EngineTimeMs     int64
	Words            []WordTiming
}

// WordTiming is one word-level timestamp from the ASR engine.
type WordTiming struct {
	Start float64
	End   float64
	Text  string
}

// VisualEventArtifact is one row a vision worker emits.
type VisualEventArtifact struct {
	OffsetSeconds  float64
	EndOffset      float64
	EventType      string
	BBoxX          float64
	BBoxY          float64
	BBoxW          float64
	BBoxH          float64
	Confidence     *float64
	Text           string
	Region         string
	Aggregated     bool
	VideoPath      string
	ScreenshotPath string
}

// EntityArtifact is one dictionary match over a transcript.
type EntityArtifact struct {
	Text      string
	Label     string
	SpanStart int
	SpanEnd   int
	Model     string
}

// AlertArtifact is one alert-dictionary phrase hit.
type AlertArtifact struct {
	MatchedPhrase string
	Category      string
	Score         *float64
	MatchedAt     time.Time
}
