package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AthbiHC/mobasher/internal/config"
	"github.com/AthbiHC/mobasher/internal/layout"
)

func testChannelConfig(id string) *config.ChannelConfig {
	return &config.ChannelConfig{
		ID: id,
		Recording: config.RecordingConfig{
			SegmentSeconds: 60,
			AudioEnabled:   true,
			VideoEnabled:   true,
		},
		Storage: config.StorageConfig{DateFolders: true},
		Audio:   config.AudioConfig{SampleRate: 16000, Channels: 1},
	}
}

func TestParseSegmentTimestamp(t *testing.T) {
	got, ok := parseSegmentTimestamp("bbc1-20260730-140500.wav")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	want := time.Date(2026, 7, 30, 14, 5, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v want %v", got, want)
	}
}

func TestParseSegmentTimestampRejectsMalformed(t *testing.T) {
	if _, ok := parseSegmentTimestamp("not-a-segment.wav"); ok {
		t.Error("expected parse to fail on malformed filename")
	}
}

func TestPassesGateAudio(t *testing.T) {
	cfg := testChannelConfig("bbc1")
	d := NewDetector(cfg, layout.New(t.TempDir(), "bbc1", true))

	minBytes := int64(0.85 * 16000 * 1 * 2 * 60)

	pass, err := d.passesGate(candidateSegment{kind: mediaAudio, size: minBytes})
	if err != nil || !pass {
		t.Errorf("expected pass at threshold, got pass=%v err=%v", pass, err)
	}

	pass, err = d.passesGate(candidateSegment{kind: mediaAudio, size: minBytes - 1})
	if err != nil || pass {
		t.Errorf("expected reject below threshold, got pass=%v err=%v", pass, err)
	}
}

func TestPassesGateOther(t *testing.T) {
	cfg := testChannelConfig("bbc1")
	d := NewDetector(cfg, layout.New(t.TempDir(), "bbc1", true))

	pass, _ := d.passesGate(candidateSegment{kind: mediaOther, size: 100 * 1024})
	if !pass {
		t.Error("expected pass at 100KB threshold")
	}
	pass, _ = d.passesGate(candidateSegment{kind: mediaOther, size: 100*1024 - 1})
	if pass {
		t.Error("expected reject below 100KB threshold")
	}
}

func TestRunDetectsAndUpsertsSegment(t *testing.T) {
	root := t.TempDir()
	cfg := testChannelConfig("bbc1")
	l := layout.New(root, "bbc1", true)
	d := NewDetector(cfg, l)

	today := time.Now().UTC()
	audioDir, err := l.AudioDir(today)
	if err != nil {
		t.Fatalf("AudioDir: %v", err)
	}

	minBytes := int(0.85 * 16000 * 1 * 2 * 60)
	name := "bbc1-" + today.Format("20060102-150405") + ".wav"
	if err := os.WriteFile(filepath.Join(audioDir, name), make([]byte, minBytes+1), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	sink := &fakeSink{}
	d.WithSink(sink)

	if err := d.Run(t.Context()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.upserts) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(sink.upserts))
	}
	if sink.upserts[0].kind != "audio" {
		t.Errorf("expected kind audio, got %s", sink.upserts[0].kind)
	}
}

type fakeUpsert struct {
	channelID string
	kind      string
	path      string
}

type fakeSink struct {
	upserts []fakeUpsert
}

func (f *fakeSink) UpsertSegment(ctx context.Context, channelID, kind, path string, startedAt, endedAt time.Time, sizeBytes int64) error {
	f.upserts = append(f.upserts, fakeUpsert{channelID: channelID, kind: kind, path: path})
	return nil
}
