package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestEntitiesAnalyserUsesDictionaryWhenLoaded(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "people.yaml"), []byte("label: PERSON\nitems:\n  - Jane Smith\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	idx, err := LoadPhraseDictionaries(dir)
	if err != nil {
		t.Fatal(err)
	}

	a := NewEntitiesAnalyser(idx)
	seg := Segment{TranscriptText: "a statement from Jane Smith today"}

	artifacts, err := a.Run(context.Background(), seg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(artifacts.Entities) != 1 || artifacts.Entities[0].Text != "Jane Smith" {
		t.Fatalf("Entities = %+v, want one Jane Smith match", artifacts.Entities)
	}
	if artifacts.Entities[0].Model != "dict-v1" {
		t.Fatalf("Model = %s, want dict-v1", artifacts.Entities[0].Model)
	}
}

func TestEntitiesAnalyserFallsBackToHeuristicTokens(t *testing.T) {
	idx, err := LoadPhraseDictionaries(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	a := NewEntitiesAnalyser(idx)
	seg := Segment{TranscriptText: "the quick fox ran to a big den"}

	artifacts, err := a.Run(context.Background(), seg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, e := range artifacts.Entities {
		if e.Model != "heuristic-v1" || e.Label != "TERM" {
			t.Fatalf("entity %+v, want heuristic-v1/TERM", e)
		}
		if len([]rune(e.Text)) < 4 {
			t.Fatalf("entity text %q shorter than 4 runes", e.Text)
		}
	}
}

func TestEntitiesAnalyserHeuristicDedupes(t *testing.T) {
	idx, err := LoadPhraseDictionaries(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	a := NewEntitiesAnalyser(idx)
	seg := Segment{TranscriptText: "weather weather weather today"}

	artifacts, err := a.Run(context.Background(), seg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	count := 0
	for _, e := range artifacts.Entities {
		if e.Text == "weather" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("weather count = %d, want 1 (deduped)", count)
	}
}

func TestEntitiesAnalyserNeedsTranscript(t *testing.T) {
	a := NewEntitiesAnalyser(nil)
	if !a.Needs().Transcript {
		t.Fatal("expected Needs().Transcript to be true")
	}
}
