package worker

import (
	"context"
	"testing"
	"time"
)

func TestObjectsAnalyserEmitsOneEventPerDetection(t *testing.T) {
	backend := &fakeBackend{
		detectObjects: func(ctx context.Context, frame Frame) ([]Detection, error) {
			return []Detection{{X: 1, Y: 2, W: 3, H: 4, Label: "car"}}, nil
		},
	}

	a := NewObjectsAnalyser(backend).(*detectionAnalyser)
	a.probe = fixedProbe(1 * time.Second)
	a.fps = 2.0

	artifacts, err := a.Run(context.Background(), Segment{VideoPath: "clip.mp4"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(artifacts.VisualEvents) == 0 {
		t.Fatal("expected at least one visual event")
	}
	for _, ev := range artifacts.VisualEvents {
		if ev.EventType != "object" || ev.Text != "car" {
			t.Fatalf("event %+v, want object/car", ev)
		}
	}
}

func TestFacesAnalyserEmitsFaceEvents(t *testing.T) {
	backend := &fakeBackend{
		detectFaces: func(ctx context.Context, frame Frame) ([]Detection, error) {
			return []Detection{{X: 0, Y: 0, W: 10, H: 10, Label: "face"}}, nil
		},
	}

	a := NewFacesAnalyser(backend).(*detectionAnalyser)
	a.probe = fixedProbe(1 * time.Second)
	a.fps = 2.0

	artifacts, err := a.Run(context.Background(), Segment{VideoPath: "clip.mp4"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, ev := range artifacts.VisualEvents {
		if ev.EventType != "face" {
			t.Fatalf("EventType = %s, want face", ev.EventType)
		}
	}
}

func TestDetectionAnalyserPropagatesDetectorError(t *testing.T) {
	backend := &fakeBackend{
		detectObjects: func(ctx context.Context, frame Frame) ([]Detection, error) {
			return nil, errProbeFailed
		},
	}
	a := NewObjectsAnalyser(backend).(*detectionAnalyser)
	a.probe = fixedProbe(1 * time.Second)
	a.fps = 1.0

	if _, err := a.Run(context.Background(), Segment{VideoPath: "clip.mp4"}); err == nil {
		t.Fatal("expected an error when the detector fails")
	}
}

func TestObjectsAnalyserNeedsVideo(t *testing.T) {
	a := NewObjectsAnalyser(&fakeBackend{})
	if !a.Needs().Video {
		t.Fatal("expected Needs().Video to be true")
	}
}
