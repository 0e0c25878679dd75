// Package scheduler runs one cooperative loop per analysis stage: find
// segments missing an artifact, dedupe-then-enqueue them, and mark the
// per-stage status queued, with per-cycle throttling from
// golang.org/x/time/rate.
package scheduler

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/AthbiHC/mobasher/internal/logging"
	"github.com/AthbiHC/mobasher/internal/metrics"
	"github.com/AthbiHC/mobasher/internal/queue"
)

// Candidate is the minimal shape a scheduler needs out of a segment to
// dedupe and enqueue it.
type Candidate struct {
	ID        string
	StartedAt time.Time
}

// Lister finds segments missing this stage's artifact.
type Lister func(ctx context.Context, channelID string, since time.Time, limit int) ([]Candidate, error)

// Marker transitions a segment's per-stage status.
type Marker func(ctx context.Context, segmentID string, startedAt time.Time, status string) error

// Enqueuer is the subset of queue.Publisher a scheduler needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, task queue.TaskName, args queue.Args, dedupeKey string, ttl time.Duration) (bool, error)
}

// Config tunes one stage's loop, mirroring the parameters.
type Config struct {
	Stage              string
	Task               queue.TaskName
	ChannelID          string
	IntervalSeconds    int
	LookbackMinutes    int
	MaxIntervalSeconds int
	Limit              int
	DedupeTTL          time.Duration
	QueriesPerSecond   float64
}

// DefaultConfig returns the scheduler's default tuning for stage/task.
func DefaultConfig(stage string, task queue.TaskName) Config {
	return Config{
		Stage:              stage,
		Task:               task,
		IntervalSeconds:    30,
		LookbackMinutes:    10,
		MaxIntervalSeconds: 300,
		Limit:              200,
		DedupeTTL:          time.Hour,
		QueriesPerSecond:   2,
	}
}

// Scheduler is one stage's periodic enqueue loop.
type Scheduler struct {
	cfg     Config
	list    Lister
	mark    Marker
	enqueue Enqueuer
	limiter *rate.Limiter
}

// New builds a scheduler for one stage. list finds candidates, mark
// transitions their per-stage status to "queued", enqueue publishes the
// task.
func New(cfg Config, list Lister, mark Marker, enqueue Enqueuer) *Scheduler {
	qps := cfg.QueriesPerSecond
	if qps <= 0 {
		qps = 2
	}
	return &Scheduler{
		cfg:     cfg,
		list:    list,
		mark:    mark,
		enqueue: enqueue,
		limiter: rate.NewLimiter(rate.Limit(qps), 1),
	}
}

// Run executes the loop until ctx is canceled. On each cycle it lists
// candidates missing the stage's artifact, dedupe-gates and enqueues
// each one, then sleeps for an interval that backs off exponentially
// on error (±20% jitter, capped at MaxIntervalSeconds) and resets to
// the configured base interval on success.
func (s *Scheduler) Run(ctx context.Context) {
	current := s.baseInterval()

	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		enqueued, err := s.cycle(ctx)
		if err != nil {
			logging.Warn().Err(err).Str("stage", s.cfg.Stage).Msg("scheduler cycle failed")
			current = s.backoff(current)
			metrics.SchedulerCyclesTotal.WithLabelValues(s.cfg.Stage, "error").Inc()
		} else {
			logging.Debug().Str("stage", s.cfg.Stage).Int("enqueued", enqueued).Msg("scheduler cycle complete")
			current = s.baseInterval()
			metrics.SchedulerCyclesTotal.WithLabelValues(s.cfg.Stage, "success").Inc()
			metrics.SchedulerCandidatesFound.WithLabelValues(s.cfg.Stage).Observe(float64(enqueued))
		}

		sleepFor := jittered(current)
		metrics.SchedulerIntervalSeconds.WithLabelValues(s.cfg.Stage).Set(sleepFor.Seconds())

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleepFor):
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) (int, error) {
	since := time.Now().UTC().Add(-time.Duration(s.cfg.LookbackMinutes) * time.Minute)

	candidates, err := s.list(ctx, s.cfg.ChannelID, since, s.cfg.Limit)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, c := range candidates {
		key := queue.DedupeKey(s.cfg.Stage, c.ID, c.StartedAt)
		args := queue.Args{SegmentID: c.ID, SegmentStartedAt: c.StartedAt}

		ok, err := s.enqueue.Enqueue(ctx, s.cfg.Task, args, key, s.cfg.DedupeTTL)
		if err != nil {
			return enqueued, err
		}
		if !ok {
			continue
		}

		if err := s.mark(ctx, c.ID, c.StartedAt, "queued"); err != nil {
			logging.Warn().Err(err).Str("stage", s.cfg.Stage).Str("segment_id", c.ID).Msg("failed to mark segment queued")
		}
		enqueued++
	}
	return enqueued, nil
}

func (s *Scheduler) baseInterval() time.Duration {
	interval := s.cfg.IntervalSeconds
	if interval < 10 {
		interval = 10
	}
	return time.Duration(interval) * time.Second
}

func (s *Scheduler) backoff(current time.Duration) time.Duration {
	maxInterval := time.Duration(s.cfg.MaxIntervalSeconds) * time.Second
	if maxInterval <= 0 {
		maxInterval = 300 * time.Second
	}
	doubled := current * 2
	if doubled > maxInterval {
		return maxInterval
	}
	return doubled
}

// jittered applies ±20% jitter and a 5-second floor.
func jittered(d time.Duration) time.Duration {
	jitter := -0.2 + rand.Float64()*0.4
	out := time.Duration(float64(d) * (1 + jitter))
	if out < 5*time.Second {
		return 5 * time.Second
	}
	return out
}
