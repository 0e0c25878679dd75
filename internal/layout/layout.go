// Package layout computes and creates the on-disk directory tree for a
// channel's capture output: segments, transcripts, screenshots, and
// logs nested under a per-channel, per-day directory.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Layout resolves filesystem paths for one channel's capture output
// under a shared data root.
type Layout struct {
	DataRoot    string
	ChannelID   string
	DateFolders bool
}

// New builds a Layout for channelID rooted at dataRoot.
func New(dataRoot, channelID string, dateFolders bool) *Layout {
	return &Layout{DataRoot: dataRoot, ChannelID: channelID, DateFolders: dateFolders}
}

// subdir returns the date- or channel-keyed subdirectory name used
// beneath audio/ and video/, per storage.date_folders .
func (l *Layout) subdir(today time.Time) string {
	if l.DateFolders {
		return today.UTC().Format("2006-01-02")
	}
	return l.ChannelID
}

// AudioDir returns (and ensures) today's audio output directory.
func (l *Layout) AudioDir(today time.Time) (string, error) {
	return l.ensureDir(filepath.Join(l.DataRoot, "audio", l.subdir(today)))
}

// VideoDir returns (and ensures) today's video output directory.
func (l *Layout) VideoDir(today time.Time) (string, error) {
	return l.ensureDir(filepath.Join(l.DataRoot, "video", l.subdir(today)))
}

// ArchiveDir returns (and ensures) today's per-channel archive directory.
func (l *Layout) ArchiveDir(today time.Time) (string, error) {
	date := today.UTC().Format("2006-01-02")
	return l.ensureDir(filepath.Join(l.DataRoot, "archive", l.ChannelID, date))
}

// ScreenshotDir returns (and ensures) the flat screenshot directory.
func (l *Layout) ScreenshotDir() (string, error) {
	return l.ensureDir(filepath.Join(l.DataRoot, "screenshot"))
}

func (l *Layout) ensureDir(path string) (string, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create dir %s: %w", path, err)
	}
	return path, nil
}

// startOnlyStem formats the start-only filename stem shared by processing
// segments: `<channel>-YYYYMMDD-HHMMSS`.
func (l *Layout) startOnlyStem(startedAt time.Time) string {
	return fmt.Sprintf("%s-%s", l.ChannelID, startedAt.UTC().Format("20060102-150405"))
}

// AudioSegmentPath returns the path for a processing-segment audio file.
func (l *Layout) AudioSegmentPath(startedAt time.Time) string {
	return filepath.Join(l.DataRoot, "audio", l.subdir(startedAt), l.startOnlyStem(startedAt)+".wav")
}

// VideoSegmentPath returns the path for a processing-segment video file.
func (l *Layout) VideoSegmentPath(startedAt time.Time) string {
	return filepath.Join(l.DataRoot, "video", l.subdir(startedAt), l.startOnlyStem(startedAt)+".mp4")
}

// AudioSegmentPattern returns the strftime-style pattern ffmpeg's segment
// muxer should use for audio output filenames.
func (l *Layout) AudioSegmentPattern(today time.Time) (string, error) {
	dir, err := l.AudioDir(today)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, l.ChannelID+"-%Y%m%d-%H%M%S.wav"), nil
}

// VideoSegmentPattern returns the strftime-style pattern ffmpeg's segment
// muxer should use for video output filenames.
func (l *Layout) VideoSegmentPattern(today time.Time) (string, error) {
	dir, err := l.VideoDir(today)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, l.ChannelID+"-%Y%m%d-%H%M%S.mp4"), nil
}

// ArchiveSegmentPattern returns the strftime-style pattern ffmpeg's
// segment muxer should use for archive output filenames, per the
// `<channel>-YYYY-MM-DD-HHMMSS.mp4` convention.
func (l *Layout) ArchiveSegmentPattern(today time.Time) (string, error) {
	dir, err := l.ArchiveDir(today)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, l.ChannelID+"-%Y-%m-%d-%H%M%S.mp4"), nil
}

// ThumbnailPath returns the thumbnail sibling of an archive mp4 file:
// `<stem>-thumb.jpg`.
func ThumbnailPath(archiveMP4Path string) string {
	ext := filepath.Ext(archiveMP4Path)
	stem := archiveMP4Path[:len(archiveMP4Path)-len(ext)]
	return stem + "-thumb.jpg"
}
