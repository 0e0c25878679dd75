package capture

import (
	"context"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AthbiHC/mobasher/internal/config"
	"github.com/AthbiHC/mobasher/internal/layout"
	"github.com/AthbiHC/mobasher/internal/logging"
	"github.com/AthbiHC/mobasher/internal/metrics"
)

// leg identifies one of the up-to-three transcoder processes a channel
// can run concurrently.
type leg string

const (
	legAudio   leg = "audio"
	legVideo   leg = "video"
	legArchive leg = "archive"
)

// legState is this leg's position in the idle -> starting -> running ->
// (exited -> starting | stopped) state machine.
type legState string

const (
	stateIdle     legState = "idle"
	stateStarting legState = "starting"
	stateRunning  legState = "running"
	stateExited   legState = "exited"
	stateStopped  legState = "stopped"
)

// RecordingStore is the narrow slice of internal/store.Store the capture
// supervisor needs, kept here so this package doesn't import store
// directly.
type RecordingStore interface {
	CreateRecording(ctx context.Context, channelID string, startedAt time.Time) (recordingID string, err error)
	CompleteRecording(ctx context.Context, recordingID string, endedAt time.Time, status string) error
}

// legRuntime tracks one leg's running process and restart bookkeeping.
type legRuntime struct {
	name           leg
	cmd            *exec.Cmd
	state          legState
	restarts       int
	restartWindow  time.Time
	lastHeartbeat  time.Time
	done           chan struct{}
}

// Supervisor is a suture.Service that owns one channel's capture legs for
// its whole lifetime. One Supervisor is created per active channel
// descriptor and added to the capture-layer suture.Supervisor.
type Supervisor struct {
	cfg    *config.ChannelConfig
	layout *layout.Layout
	store  RecordingStore
	detect *Detector

	mu           sync.Mutex
	legs         map[leg]*legRuntime
	recordingID  string
}

// NewSupervisor builds a Supervisor for one channel descriptor.
func NewSupervisor(cfg *config.ChannelConfig, dataRoot string, store RecordingStore) *Supervisor {
	return &Supervisor{
		cfg:    cfg,
		layout: layout.New(dataRoot, cfg.ID, cfg.Storage.DateFolders),
		store:  store,
		detect: NewDetector(cfg, layout.New(dataRoot, cfg.ID, cfg.Storage.DateFolders)),
		legs:   make(map[leg]*legRuntime),
	}
}

// String satisfies suture.Service; used as the service's log identity.
func (s *Supervisor) String() string {
	return "capture/" + s.cfg.ID
}

// Serve runs until ctx is cancelled, starting enabled legs and restarting
// them on exit within the hourly restart budget. Conforms to
// suture.Service: returning nil on context cancellation tells suture not
// to restart this service itself (the channel-level restart policy is
// handled internally).
func (s *Supervisor) Serve(ctx context.Context) error {
	log := logging.Ctx(ctx).With().Str("channel_id", s.cfg.ID).Logger()

	if !s.cfg.Recording.AudioEnabled && !s.cfg.Recording.VideoEnabled {
		return ErrNoLegsEnabled
	}

	recordingID, err := s.store.CreateRecording(ctx, s.cfg.ID, time.Now())
	if err != nil {
		return err
	}
	s.recordingID = recordingID

	legCtx, cancelLegs := context.WithCancel(ctx)
	defer cancelLegs()

	budgetExhausted := make(chan struct{}, 1)

	var wg sync.WaitGroup
	enabled := s.enabledLegs()
	for _, l := range enabled {
		wg.Add(1)
		go func(l leg) {
			defer wg.Done()
			if s.runLegLoop(legCtx, l, &log) {
				select {
				case budgetExhausted <- struct{}{}:
				default:
				}
			}
		}(l)
	}

	heartbeat := time.NewTicker(s.heartbeatInterval())
	defer heartbeat.Stop()

	detectTick := time.NewTicker(time.Duration(s.cfg.Recording.SegmentSeconds) * time.Second)
	defer detectTick.Stop()

	finalStatus := "completed"
	for {
		select {
		case <-ctx.Done():
			cancelLegs()
			s.stopAllLegs()
			wg.Wait()
			return s.finishRecording(ctx, finalStatus, &log)
		case <-budgetExhausted:
			finalStatus = "failed"
			cancelLegs()
			s.stopAllLegs()
			wg.Wait()
			return s.finishRecording(ctx, finalStatus, &log)
		case <-heartbeat.C:
			s.recordHeartbeats()
		case <-detectTick.C:
			if err := s.detect.Run(ctx); err != nil {
				log.Error().Err(err).Msg("segment detection pass failed")
			}
		}
	}
}

// finishRecording runs partials/extras cleanup and marks the recording
// with its terminal status the all-exit-paths contract.
func (s *Supervisor) finishRecording(ctx context.Context, status string, log *zerolog.Logger) error {
	stopCtx := context.WithoutCancel(ctx)
	if err := s.detect.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("segment cleanup failed")
	}
	return s.store.CompleteRecording(stopCtx, s.recordingID, time.Now(), status)
}

func (s *Supervisor) heartbeatInterval() time.Duration {
	secs := s.cfg.Recording.HeartbeatSeconds
	if secs <= 0 {
		secs = 10
	}
	return time.Duration(secs) * time.Second
}

func (s *Supervisor) enabledLegs() []leg {
	var legs []leg
	if s.cfg.Recording.AudioEnabled {
		legs = append(legs, legAudio)
	}
	if s.cfg.Recording.VideoEnabled {
		legs = append(legs, legVideo)
	}
	if s.cfg.Recording.ArchiveEnabled {
		legs = append(legs, legArchive)
	}
	return legs
}

// runLegLoop owns one leg's start/wait/restart cycle until ctx is done or
// the restart budget is exhausted. Returns true if it gave up because the
// restart budget ran out, signalling the caller to mark the whole
// recording failed .
func (s *Supervisor) runLegLoop(ctx context.Context, l leg, log *zerolog.Logger) bool {
	rt := &legRuntime{name: l, state: stateIdle, restartWindow: time.Now()}
	s.setLeg(l, rt)

	for {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		if !s.withinRestartBudget(rt) {
			metrics.CaptureRestartsTotal.WithLabelValues(s.cfg.ID, string(l)).Inc()
			log.Error().Str("leg", string(l)).Msg("restart budget exhausted, giving up on leg")
			s.setLegState(l, stateStopped)
			return true
		}

		cmd, err := s.buildLegCommand(l)
		if err != nil {
			log.Error().Err(err).Str("leg", string(l)).Msg("build command failed")
			return false
		}

		s.setLegState(l, stateStarting)
		rt.done = make(chan struct{})
		if err := cmd.Start(); err != nil {
			log.Error().Err(err).Str("leg", string(l)).Msg("start failed")
			s.recordRestart(rt)
			s.sleepBeforeRestart(ctx)
			continue
		}
		rt.cmd = cmd
		s.setLegState(l, stateRunning)
		metrics.CaptureRunning.WithLabelValues(s.cfg.ID, string(l)).Set(1)

		waitErr := make(chan error, 1)
		go func() { waitErr <- cmd.Wait() }()

		select {
		case <-ctx.Done():
			stopChildProcessGroup(cmd, rt.done)
			close(rt.done)
			<-waitErr
			metrics.CaptureRunning.WithLabelValues(s.cfg.ID, string(l)).Set(0)
			return false
		case err := <-waitErr:
			close(rt.done)
			metrics.CaptureRunning.WithLabelValues(s.cfg.ID, string(l)).Set(0)
			s.setLegState(l, stateExited)
			if err != nil {
				log.Warn().Err(err).Str("leg", string(l)).Msg("leg exited, restarting")
			}
			s.recordRestart(rt)
			s.sleepBeforeRestart(ctx)
		}
	}
}

func (s *Supervisor) buildLegCommand(l leg) (*exec.Cmd, error) {
	today := time.Now()
	switch l {
	case legAudio:
		pattern, err := s.layout.AudioSegmentPattern(today)
		if err != nil {
			return nil, err
		}
		return BuildAudioCommand(s.cfg, pattern), nil
	case legVideo:
		quality, err := s.cfg.VideoQualityPreset()
		if err != nil {
			return nil, err
		}
		pattern, err := s.layout.VideoSegmentPattern(today)
		if err != nil {
			return nil, err
		}
		return BuildVideoCommand(s.cfg, quality, pattern), nil
	case legArchive:
		pattern, err := s.layout.ArchiveSegmentPattern(today)
		if err != nil {
			return nil, err
		}
		return BuildArchiveCommand(s.cfg, pattern), nil
	default:
		return nil, ErrNoLegsEnabled
	}
}

// withinRestartBudget enforces the bounded 5/hour restart
// policy, resetting the counter every rolling hour.
func (s *Supervisor) withinRestartBudget(rt *legRuntime) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(rt.restartWindow) > time.Hour {
		rt.restarts = 0
		rt.restartWindow = time.Now()
	}

	limit := s.cfg.Recording.MaxRestartsPerHour
	if limit <= 0 {
		limit = 5
	}
	return rt.restarts < limit
}

func (s *Supervisor) recordRestart(rt *legRuntime) {
	s.mu.Lock()
	rt.restarts++
	s.mu.Unlock()
}

// sleepBeforeRestart gives a crash-looping leg a short cooldown before
// the next attempt, honoring context cancellation.
func (s *Supervisor) sleepBeforeRestart(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
	}
}

func (s *Supervisor) setLeg(l leg, rt *legRuntime) {
	s.mu.Lock()
	s.legs[l] = rt
	s.mu.Unlock()
}

func (s *Supervisor) setLegState(l leg, st legState) {
	s.mu.Lock()
	if rt, ok := s.legs[l]; ok {
		rt.state = st
	}
	s.mu.Unlock()
}

func (s *Supervisor) recordHeartbeats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for l, rt := range s.legs {
		if rt.state != stateRunning {
			continue
		}
		rt.lastHeartbeat = now
		metrics.CaptureHeartbeatsTotal.WithLabelValues(s.cfg.ID, string(l)).Inc()
		metrics.CaptureLastHeartbeatSeconds.WithLabelValues(s.cfg.ID, string(l)).Set(float64(now.Unix()))
	}
}

func (s *Supervisor) stopAllLegs() {
	s.mu.Lock()
	runtimes := make([]*legRuntime, 0, len(s.legs))
	for _, rt := range s.legs {
		runtimes = append(runtimes, rt)
	}
	s.mu.Unlock()

	for _, rt := range runtimes {
		if rt.cmd != nil && rt.state == stateRunning {
			stopChildProcessGroup(rt.cmd, rt.done)
		}
	}
}
