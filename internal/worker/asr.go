package worker

import (
	"context"
	"fmt"
	"time"
)

// Normaliser rewrites transcript text for downstream matching, e.g.
// Arabic alef/yah/ta normalisation (pass-through when no normaliser is
// configured).
type Normaliser func(text string) string

// ASRAnalyser transcribes a segment's audio leg.
type ASRAnalyser struct {
	Backend   AnalyserBackend
	Options   ASROptions
	Normalise Normaliser
}

// NewASRAnalyser builds an ASR analyser with its standard defaults
// (large-v3, CPU, beam size 5, VAD and word timestamps on, Arabic).
func NewASRAnalyser(backend AnalyserBackend, normalise Normaliser) *ASRAnalyser {
	if normalise == nil {
		normalise = func(text string) string { return text }
	}
	return &ASRAnalyser{
		Backend: backend,
		Options: ASROptions{
			ModelName:      "large-v3",
			Device:         "cpu",
			BeamSize:       5,
			VADEnabled:     true,
			WordTimestamps: true,
			Language:       "ar",
		},
		Normalise: normalise,
	}
}

func (a *ASRAnalyser) Name() string { return "asr" }

func (a *ASRAnalyser) Needs() Needs { return Needs{Audio: true} }

func (a *ASRAnalyser) Run(ctx context.Context, seg Segment) (Artifacts, error) {
	start := time.Now()
	result, err := a.Backend.Transcribe(ctx, seg.AudioPath, a.Options)
	if err != nil {
		return Artifacts{}, fmt.Errorf("transcribe %s: %w", seg.AudioPath, err)
	}
	engineTime := time.Since(start)

	return Artifacts{
		Transcript: &TranscriptArtifact{
			Text:             result.Text,
			TextNorm:         a.Normalise(result.Text),
			Language:         a.Options.Language,
			Confidence:       result.Confidence,
			ModelName:        a.Options.ModelName,
			ModelVersion:     result.ModelVersion,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			EngineTimeMs:     engineTime.Milliseconds(),
			Words:            result.Words,
		},
		EngineTime: engineTime,
	}, nil
}
