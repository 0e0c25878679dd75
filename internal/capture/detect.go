package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AthbiHC/mobasher/internal/config"
	"github.com/AthbiHC/mobasher/internal/layout"
	"github.com/AthbiHC/mobasher/internal/logging"
	"github.com/AthbiHC/mobasher/internal/metrics"
)

// mediaKind classifies a file for the full-segment gate .
type mediaKind string

const (
	mediaAudio mediaKind = "audio"
	mediaVideo mediaKind = "video"
	mediaOther mediaKind = "other"
)

// candidateSegment is one file found on disk during a detection pass,
// before and after gating.
type candidateSegment struct {
	path      string
	kind      mediaKind
	startedAt time.Time
	size      int64
}

// SegmentSink receives gated segment records, implemented by
// internal/store.Store's UpsertSegment. Kept narrow so this package
// doesn't import store directly.
type SegmentSink interface {
	UpsertSegment(ctx context.Context, channelID string, kind string, path string, startedAt, endedAt time.Time, sizeBytes int64) error
}

// Detector scans one channel's audio/video output directories and emits
// canonical segment records for files that pass the full-segment gate.
// Grounded line-for-line on
// // `DualHLSRecorder._collect_segments`/`_cleanup_partials`/`_cleanup_extras`.
type Detector struct {
	cfg    *config.ChannelConfig
	layout *layout.Layout
	sink   SegmentSink

	seenInRun map[string]struct{}
}

// NewDetector builds a Detector for one channel. sink may be nil during
// tests that only exercise gating/parsing.
func NewDetector(cfg *config.ChannelConfig, l *layout.Layout) *Detector {
	return &Detector{cfg: cfg, layout: l, seenInRun: make(map[string]struct{})}
}

// WithSink attaches a persistence sink, returning the Detector for chaining.
func (d *Detector) WithSink(sink SegmentSink) *Detector {
	d.sink = sink
	return d
}

// Run performs one detection pass: list today's audio and video
// directories, gate each file, and upsert the ones that pass.
func (d *Detector) Run(ctx context.Context) error {
	log := logging.Ctx(ctx).With().Str("channel_id", d.cfg.ID).Logger()
	today := time.Now()

	var dirs []struct {
		dir  string
		kind mediaKind
	}
	if d.cfg.Recording.AudioEnabled {
		audioDir, err := d.layout.AudioDir(today)
		if err != nil {
			return err
		}
		dirs = append(dirs, struct {
			dir  string
			kind mediaKind
		}{audioDir, mediaAudio})
	}
	if d.cfg.Recording.VideoEnabled {
		videoDir, err := d.layout.VideoDir(today)
		if err != nil {
			return err
		}
		dirs = append(dirs, struct {
			dir  string
			kind mediaKind
		}{videoDir, mediaVideo})
	}

	var candidates []candidateSegment
	for _, d2 := range dirs {
		found, err := listCandidates(d2.dir, d.cfg.ID, d2.kind)
		if err != nil {
			log.Warn().Err(err).Str("dir", d2.dir).Msg("list segment candidates failed")
			continue
		}
		candidates = append(candidates, found...)
	}

	for _, c := range candidates {
		pass, err := d.passesGate(c)
		if err != nil {
			log.Warn().Err(err).Str("path", c.path).Msg("gate check failed")
			continue
		}
		if !pass {
			metrics.SegmentsRejectedTotal.WithLabelValues(d.cfg.ID, string(c.kind)).Inc()
			continue
		}
		if d.sink != nil {
			ended := c.startedAt.Add(time.Duration(d.cfg.Recording.SegmentSeconds) * time.Second)
			if err := d.sink.UpsertSegment(ctx, d.cfg.ID, string(c.kind), c.path, c.startedAt, ended, c.size); err != nil {
				log.Error().Err(err).Str("path", c.path).Msg("upsert segment failed")
				continue
			}
		}
		metrics.SegmentsDetectedTotal.WithLabelValues(d.cfg.ID, string(c.kind)).Inc()
		d.seenInRun[string(c.kind)+"|"+c.path] = struct{}{}
	}

	return nil
}

// Stop runs the partials and extras cleanup described ,
// called once by the supervisor on every exit path after all legs have
// stopped.
func (d *Detector) Stop(ctx context.Context) error {
	log := logging.Ctx(ctx).With().Str("channel_id", d.cfg.ID).Logger()
	today := time.Now()

	if d.cfg.Recording.AudioEnabled {
		if dir, err := d.layout.AudioDir(today); err == nil {
			d.cleanupPartials(dir, d.cfg.ID, mediaAudio, &log)
			d.cleanupExtras(dir, d.cfg.ID, mediaAudio, &log)
		}
	}
	if d.cfg.Recording.VideoEnabled {
		if dir, err := d.layout.VideoDir(today); err == nil {
			d.cleanupPartials(dir, d.cfg.ID, mediaVideo, &log)
			d.cleanupExtras(dir, d.cfg.ID, mediaVideo, &log)
		}
	}
	return nil
}

// cleanupPartials deletes any file for this channel/kind whose probed
// duration falls below the gate.
func (d *Detector) cleanupPartials(dir, channelID string, kind mediaKind, log *zerolog.Logger) {
	candidates, err := listCandidates(dir, channelID, kind)
	if err != nil {
		return
	}
	for _, c := range candidates {
		pass, err := d.passesGate(c)
		if err != nil || pass {
			continue
		}
		if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", c.path).Msg("remove partial segment failed")
		}
	}
}

// cleanupExtras keeps only the earliest valid segment per media type
// within the current run window, as a test aid against duplicate runs
// writing overlapping files.
func (d *Detector) cleanupExtras(dir, channelID string, kind mediaKind, log *zerolog.Logger) {
	candidates, err := listCandidates(dir, channelID, kind)
	if err != nil {
		return
	}

	var valid []candidateSegment
	for _, c := range candidates {
		if pass, err := d.passesGate(c); err == nil && pass {
			valid = append(valid, c)
		}
	}
	if len(valid) <= 1 {
		return
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].startedAt.Before(valid[j].startedAt) })
	for _, extra := range valid[1:] {
		if err := os.Remove(extra.path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", extra.path).Msg("remove extra segment failed")
		}
	}
}

// passesGate applies the full-segment gate.
func (d *Detector) passesGate(c candidateSegment) (bool, error) {
	switch c.kind {
	case mediaAudio:
		min := int64(0.85 * float64(d.cfg.Audio.SampleRate) * float64(d.cfg.Audio.Channels) * 2 * float64(d.cfg.Recording.SegmentSeconds))
		return c.size >= min, nil
	case mediaVideo:
		const fiveHundredKB = 500 * 1024
		if c.size >= fiveHundredKB {
			return true, nil
		}
		dur, err := ProbeDuration(c.path)
		if err != nil {
			return false, nil
		}
		min := time.Duration(0.92 * float64(d.cfg.Recording.SegmentSeconds) * float64(time.Second))
		return dur >= min, nil
	default:
		const hundredKB = 100 * 1024
		return c.size >= hundredKB, nil
	}
}

// listCandidates lists files under dir matching `<channelID>-*.<ext>` and
// parses their start timestamp from the filename.
func listCandidates(dir, channelID string, kind mediaKind) ([]candidateSegment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []candidateSegment
	prefix := channelID + "-"
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasSuffix(name, "-thumb.jpg") {
			continue
		}

		startedAt, ok := parseSegmentTimestamp(name)
		if !ok {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		out = append(out, candidateSegment{
			path:      filepath.Join(dir, name),
			kind:      kind,
			startedAt: startedAt,
			size:      info.Size(),
		})
	}
	return out, nil
}

// parseSegmentTimestamp implements the filename parsing: split
// on `-`, take the last two tokens as YYYYMMDD and HHMMSS, interpreted as
// UTC.
func parseSegmentTimestamp(filename string) (time.Time, bool) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	parts := strings.Split(stem, "-")
	if len(parts) < 2 {
		return time.Time{}, false
	}

	hhmmss := parts[len(parts)-1]
	yyyymmdd := parts[len(parts)-2]
	if len(yyyymmdd) != 8 || len(hhmmss) != 6 {
		return time.Time{}, false
	}
	if _, err := strconv.Atoi(yyyymmdd); err != nil {
		return time.Time{}, false
	}
	if _, err := strconv.Atoi(hhmmss); err != nil {
		return time.Time{}, false
	}

	t, err := time.Parse("20060102-150405", fmt.Sprintf("%s-%s", yyyymmdd, hhmmss))
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
