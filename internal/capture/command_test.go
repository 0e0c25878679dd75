package capture

import (
	"strings"
	"testing"

	"github.com/AthbiHC/mobasher/internal/config"
)

func TestBuildAudioCommandIncludesSegmentFlags(t *testing.T) {
	cfg := testChannelConfig("bbc1")
	cfg.Input.URL = "udp://239.1.1.1:1234"

	cmd := BuildAudioCommand(cfg, "/data/audio/2026-07-30/bbc1-%Y%m%d-%H%M%S.wav")
	argv := strings.Join(cmd.Args, " ")

	for _, want := range []string{"-i udp://239.1.1.1:1234", "-segment_time 60", "-ar 16000", "-ac 1", "pcm_s16le"} {
		if !strings.Contains(argv, want) {
			t.Errorf("expected argv to contain %q, got %q", want, argv)
		}
	}
}

func TestBuildVideoCommandUsesEncoder(t *testing.T) {
	cfg := testChannelConfig("bbc1")
	cfg.Input.URL = "udp://239.1.1.1:1234"
	cfg.Video.Encoder = "libx264"
	cfg.Video.Preset = "veryfast"

	quality := config.VideoQuality{Resolution: "1280x720", Bitrate: "2500k", FPS: 25}
	cmd := BuildVideoCommand(cfg, quality, "/data/video/2026-07-30/bbc1-%Y%m%d-%H%M%S.mp4")
	argv := strings.Join(cmd.Args, " ")

	for _, want := range []string{"-c:v libx264", "-b:v 2500k", "-s 1280x720", "-r 25"} {
		if !strings.Contains(argv, want) {
			t.Errorf("expected argv to contain %q, got %q", want, argv)
		}
	}
}

func TestBuildArchiveCommandUsesStreamCopy(t *testing.T) {
	cfg := testChannelConfig("bbc1")
	cfg.Input.URL = "udp://239.1.1.1:1234"
	cfg.Recording.ArchiveSegmentSeconds = 3600

	cmd := BuildArchiveCommand(cfg, "/data/archive/bbc1/2026-07-30/bbc1-%Y-%m-%d-%H%M%S.mp4")
	argv := strings.Join(cmd.Args, " ")

	if !strings.Contains(argv, "-c copy") {
		t.Errorf("expected stream copy, got %q", argv)
	}
	if !strings.Contains(argv, "-segment_time 3600") {
		t.Errorf("expected hourly segment_time, got %q", argv)
	}
}

func TestHeaderStringFormatsCRLF(t *testing.T) {
	got := headerString(map[string]string{"X-Api-Key": "abc123"})
	if got != "X-Api-Key: abc123\r\n" {
		t.Errorf("unexpected header string: %q", got)
	}
}
