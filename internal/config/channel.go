package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// VideoQuality is one entry of `video.qualities.<key>` .
type VideoQuality struct {
	Resolution string `koanf:"resolution" yaml:"resolution"`
	Bitrate    string `koanf:"bitrate" yaml:"bitrate"`
	FPS        int    `koanf:"fps" yaml:"fps"`
}

// InputConfig is `input.*`.
type InputConfig struct {
	URL     string            `koanf:"url" yaml:"url"`
	Headers map[string]string `koanf:"headers" yaml:"headers"`
}

// RecordingConfig is `recording.*`.
type RecordingConfig struct {
	SegmentSeconds        int    `koanf:"segment_seconds" yaml:"segment_seconds"`
	AudioEnabled          bool   `koanf:"audio_enabled" yaml:"audio_enabled"`
	VideoEnabled          bool   `koanf:"video_enabled" yaml:"video_enabled"`
	VideoQuality          string `koanf:"video_quality" yaml:"video_quality"`
	ArchiveEnabled        bool   `koanf:"archive_enabled" yaml:"archive_enabled"`
	ArchiveSegmentSeconds int    `koanf:"archive_segment_seconds" yaml:"archive_segment_seconds"`
	HeartbeatSeconds      int    `koanf:"heartbeat_seconds" yaml:"heartbeat_seconds"`
	MaxRestartsPerHour    int    `koanf:"max_restarts_per_hour" yaml:"max_restarts_per_hour"`
}

// StorageConfig is `storage.*`.
type StorageConfig struct {
	DateFolders bool              `koanf:"date_folders" yaml:"date_folders"`
	Directories map[string]string `koanf:"directories" yaml:"directories"` // keys: audio, video, archive
}

// AudioConfig is `audio.*`.
type AudioConfig struct {
	SampleRate int `koanf:"sample_rate" yaml:"sample_rate"`
	Channels   int `koanf:"channels" yaml:"channels"`
}

// VideoConfig is `video.*`.
type VideoConfig struct {
	Qualities map[string]VideoQuality `koanf:"qualities" yaml:"qualities"`
	Encoder   string                  `koanf:"encoder" yaml:"encoder"`
	Preset    string                  `koanf:"preset" yaml:"preset"`
	Threads   int                     `koanf:"threads" yaml:"threads"`
}

// ChannelConfig is one channel descriptor the table.
// Loaded from a single YAML file named `<id>.yaml` under the cluster's
// channels directory.
type ChannelConfig struct {
	ID          string          `koanf:"id" yaml:"id"`
	Name        string          `koanf:"name" yaml:"name"`
	Active      bool            `koanf:"active" yaml:"active"`
	Description string          `koanf:"description" yaml:"description"`
	Input       InputConfig     `koanf:"input" yaml:"input"`
	Recording   RecordingConfig `koanf:"recording" yaml:"recording"`
	Storage     StorageConfig   `koanf:"storage" yaml:"storage"`
	Audio       AudioConfig     `koanf:"audio" yaml:"audio"`
	Video       VideoConfig     `koanf:"video" yaml:"video"`
}

func defaultVideoEncoder() string {
	if runtime.GOOS == "darwin" {
		return "h264_videotoolbox"
	}
	return "libx264"
}

// defaultChannelConfig returns the built-in defaults layered underneath
// every channel's YAML file, matching the stated defaults
// (segment_seconds=60, etc).
func defaultChannelConfig() *ChannelConfig {
	return &ChannelConfig{
		Active: true,
		Recording: RecordingConfig{
			SegmentSeconds:        60,
			AudioEnabled:          true,
			VideoEnabled:          true,
			VideoQuality:          "default",
			ArchiveEnabled:        true,
			ArchiveSegmentSeconds: 3600,
			HeartbeatSeconds:      10,
			MaxRestartsPerHour:    5,
		},
		Storage: StorageConfig{
			DateFolders: true,
			Directories: map[string]string{
				"audio":   "audio",
				"video":   "video",
				"archive": "archive",
			},
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
		},
		Video: VideoConfig{
			Qualities: map[string]VideoQuality{
				"default": {Resolution: "1280x720", Bitrate: "2500k", FPS: 25},
			},
			Encoder: defaultVideoEncoder(),
			Preset:  "veryfast",
			Threads: 0,
		},
	}
}

// LoadChannelConfig reads and validates a single channel descriptor from
// path. Missing required fields (`id`, `input.url`) raise a ConfigError,
//— fatal at startup, never retried.
func LoadChannelConfig(path string) (*ChannelConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultChannelConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load channel config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("read channel config %s: %w", path, err)
	}

	cfg := &ChannelConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal channel config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *ChannelConfig) validate() error {
	if c.ID == "" {
		return newConfigError("id", "required")
	}
	if c.Input.URL == "" {
		return newConfigError("input.url", "required")
	}
	if !c.Recording.AudioEnabled && !c.Recording.VideoEnabled {
		return newConfigError("recording", "at least one of audio_enabled/video_enabled must be true")
	}
	return nil
}

// VideoQualityPreset resolves recording.video_quality into its quality triple.
func (c *ChannelConfig) VideoQualityPreset() (VideoQuality, error) {
	q, ok := c.Video.Qualities[c.Recording.VideoQuality]
	if !ok {
		return VideoQuality{}, newConfigError("recording.video_quality", fmt.Sprintf("unknown preset %q", c.Recording.VideoQuality))
	}
	return q, nil
}

// ListChannelConfigs loads every `*.yaml` file under dir.
func ListChannelConfigs(dir string) ([]*ChannelConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read channels dir %s: %w", dir, err)
	}

	var configs []*ChannelConfig
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		cfg, err := LoadChannelConfig(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}
