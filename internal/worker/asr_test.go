package worker

import (
	"context"
	"strings"
	"testing"
)

func TestASRAnalyserRunNormalisesText(t *testing.T) {
	backend := &fakeBackend{
		transcribe: func(ctx context.Context, audioPath string, opts ASROptions) (ASRResult, error) {
			if audioPath != "audio.wav" {
				t.Fatalf("audioPath = %s, want audio.wav", audioPath)
			}
			return ASRResult{Text: "HELLO world", ModelVersion: "v1"}, nil
		},
	}

	a := NewASRAnalyser(backend, strings.ToLower)
	artifacts, err := a.Run(context.Background(), Segment{AudioPath: "audio.wav"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if artifacts.Transcript == nil {
		t.Fatal("expected a transcript artifact")
	}
	if artifacts.Transcript.Text != "HELLO world" {
		t.Fatalf("Text = %s, want HELLO world", artifacts.Transcript.Text)
	}
	if artifacts.Transcript.TextNorm != "hello world" {
		t.Fatalf("TextNorm = %s, want hello world", artifacts.Transcript.TextNorm)
	}
	if artifacts.Transcript.ModelVersion != "v1" {
		t.Fatalf("ModelVersion = %s, want v1", artifacts.Transcript.ModelVersion)
	}
}

func TestASRAnalyserDefaultsToIdentityNormaliser(t *testing.T) {
	backend := &fakeBackend{
		transcribe: func(ctx context.Context, audioPath string, opts ASROptions) (ASRResult, error) {
			return ASRResult{Text: "as-is"}, nil
		},
	}
	a := NewASRAnalyser(backend, nil)
	artifacts, err := a.Run(context.Background(), Segment{AudioPath: "audio.wav"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if artifacts.Transcript.TextNorm != "as-is" {
		t.Fatalf("TextNorm = %s, want as-is", artifacts.Transcript.TextNorm)
	}
}

func TestASRAnalyserPropagatesBackendError(t *testing.T) {
	backend := &fakeBackend{
		transcribe: func(ctx context.Context, audioPath string, opts ASROptions) (ASRResult, error) {
			return ASRResult{}, errTranscribeFailed
		},
	}
	a := NewASRAnalyser(backend, nil)
	if _, err := a.Run(context.Background(), Segment{AudioPath: "audio.wav"}); err == nil {
		t.Fatal("expected an error from a failing backend")
	}
}

func TestASRAnalyserNeedsAudio(t *testing.T) {
	a := NewASRAnalyser(&fakeBackend{}, nil)
	if !a.Needs().Audio {
		t.Fatal("expected Needs().Audio to be true")
	}
}

type sentinelError string

func (e sentinelError) Error() string { return string(e) }

const errTranscribeFailed = sentinelError("engine unavailable")
