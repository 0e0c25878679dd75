package capture

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/AthbiHC/mobasher/internal/config"
)

// userAgent tags every child transcoder process so internal/retention's
// fresh-reset sequence can find and kill lingering children by marker.
const userAgent = "Mobasher/1.0 (+ingestion-core)"

// newChildCommand builds an exec.Cmd for name/args, placed in its own
// process group so a single signal to -pid stops the whole child tree.
func newChildCommand(name string, args []string) *exec.Cmd {
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return cmd
}

// headerString joins channel request headers into ffmpeg's
// `-headers "K: V\r\n..."` argument form.
func headerString(headers map[string]string) string {
	if len(headers) == 0 {
		return ""
	}
	var b strings.Builder
	for k, v := range headers {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}
	return b.String()
}

// inputArgs builds the source-read portion shared by every leg: bounded
// reconnect, custom user-agent, optional extra headers.
func inputArgs(cfg *config.ChannelConfig) []string {
	args := []string{
		"-nostdin",
		"-loglevel", "warning",
		"-user_agent", userAgent,
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
	}
	if h := headerString(cfg.Input.Headers); h != "" {
		args = append(args, "-headers", h)
	}
	args = append(args, "-i", cfg.Input.URL)
	return args
}

// BuildAudioCommand constructs the audio-leg ffmpeg argv: PCM s16le
// segment muxer, clock-aligned, strftime filenames, reset timestamps per
// segment.
func BuildAudioCommand(cfg *config.ChannelConfig, pattern string) *exec.Cmd {
	args := inputArgs(cfg)
	args = append(args,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(cfg.Audio.SampleRate),
		"-ac", strconv.Itoa(cfg.Audio.Channels),
		"-f", "segment",
		"-segment_time", strconv.Itoa(cfg.Recording.SegmentSeconds),
		"-segment_atclocktime", "1",
		"-reset_timestamps", "1",
		"-strftime", "1",
		pattern,
	)
	return newChildCommand("ffmpeg", args)
}

// BuildVideoCommand constructs the video-leg ffmpeg argv: hardware
// encoder when configured, mp4 segment muxer.
func BuildVideoCommand(cfg *config.ChannelConfig, quality config.VideoQuality, pattern string) *exec.Cmd {
	args := inputArgs(cfg)
	args = append(args,
		"-an",
		"-c:v", cfg.Video.Encoder,
		"-preset", cfg.Video.Preset,
		"-b:v", quality.Bitrate,
		"-s", quality.Resolution,
		"-r", strconv.Itoa(quality.FPS),
	)
	if cfg.Video.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(cfg.Video.Threads))
	}
	args = append(args,
		"-f", "segment",
		"-segment_time", strconv.Itoa(cfg.Recording.SegmentSeconds),
		"-segment_atclocktime", "1",
		"-reset_timestamps", "1",
		"-strftime", "1",
		pattern,
	)
	return newChildCommand("ffmpeg", args)
}

// BuildArchiveCommand constructs the archive-leg ffmpeg argv: stream
// copy into 1-hour clock-aligned mp4 files, no re-encode.
func BuildArchiveCommand(cfg *config.ChannelConfig, pattern string) *exec.Cmd {
	args := inputArgs(cfg)
	args = append(args,
		"-c", "copy",
		"-f", "segment",
		"-segment_time", strconv.Itoa(cfg.Recording.ArchiveSegmentSeconds),
		"-segment_atclocktime", "1",
		"-reset_timestamps", "1",
		"-strftime", "1",
		pattern,
	)
	return newChildCommand("ffmpeg", args)
}

// BuildThumbnailCommand extracts a single representative frame from an
// archive segment once it closes.
func BuildThumbnailCommand(archivePath, thumbPath string) *exec.Cmd {
	args := []string{
		"-nostdin", "-loglevel", "warning",
		"-ss", "2",
		"-i", archivePath,
		"-frames:v", "1",
		"-q:v", "4",
		thumbPath,
	}
	return newChildCommand("ffmpeg", args)
}

// ProbeDuration shells out to ffprobe to read a media file's duration in
// seconds, used by the full-segment gate when size alone is ambiguous,
// and reused by internal/worker's OCR analyser to pick frame sample
// timestamps.
func ProbeDuration(path string) (time.Duration, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", string(out), err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// stopChildProcessGroup implements the shutdown contract:
// SIGTERM the group, wait up to 10s, SIGKILL if still alive.
func stopChildProcessGroup(cmd *exec.Cmd, done <-chan struct{}) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	pgid := cmd.Process.Pid
	_ = syscall.Kill(-pgid, syscall.SIGTERM)

	select {
	case <-done:
		return
	case <-time.After(10 * time.Second):
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
	}
}
