package main

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/AthbiHC/mobasher/internal/config"
	"github.com/AthbiHC/mobasher/internal/inference"
	"github.com/AthbiHC/mobasher/internal/logging"
	"github.com/AthbiHC/mobasher/internal/queue"
	"github.com/AthbiHC/mobasher/internal/scheduler"
	"github.com/AthbiHC/mobasher/internal/store"
)

// stageMarker adapts store.Store.SetStageStatus's four-argument form
// into scheduler.Marker, pinning the stage name a given scheduler loop
// owns.
func stageMarker(st *store.Store, stage string) scheduler.Marker {
	return func(ctx context.Context, segmentID string, startedAt time.Time, status string) error {
		return st.SetStageStatus(ctx, segmentID, startedAt, stage, status)
	}
}

// inferenceURLEnvVar and inferenceDefaultURL locate the model-serving
// sidecar every asr/vision subcommand talks to, mirroring
// inference.BaseURLFromEnv's env-first-then-default idiom.
const (
	inferenceURLEnvVar  = "MOBASHER_INFERENCE_URL"
	inferenceDefaultURL = "http://127.0.0.1:8600"
)

func newInferenceClient() *inference.Client {
	url := inference.BaseURLFromEnv(inferenceURLEnvVar, inferenceDefaultURL)
	return inference.New(url, 0)
}

// newDedupe opens the cluster's Badger dedupe store, used by both the
// enqueue path (Publisher) and every scheduler loop.
func newDedupe(cfg *config.ClusterConfig) (*queue.Dedupe, error) {
	return queue.NewDedupe(&cfg.Dedupe)
}

// newPublisher dials the configured (or embedded) NATS JetStream server
// and wraps it with the dedupe gate and circuit breaker every enqueue
// path shares.
func newPublisher(cfg *config.ClusterConfig, dedupe *queue.Dedupe) (*queue.Publisher, error) {
	return queue.NewPublisher(&cfg.NATS, dedupe, nil)
}

// newPoisonPublisher builds the raw message.Publisher a Consumer
// republishes malformed/exhausted deliveries through; it bypasses the
// dedupe gate entirely since poison routing is not a task enqueue.
func newPoisonPublisher(cfg *config.ClusterConfig) (message.Publisher, error) {
	return queue.NewRawPublisher(&cfg.NATS, nil)
}

// newConsumer builds a consumer for one task, durable across restarts,
// using the cluster's default retry/backoff schedule.
func newConsumer(cfg *config.ClusterConfig, task queue.TaskName, poison message.Publisher) (*queue.Consumer, error) {
	return queue.NewConsumer(&cfg.NATS, task, queue.DefaultConsumerConfig(), poison, nil)
}

// maybeStartEmbeddedNATS brings up an in-process JetStream server when
// cfg.NATS.EmbeddedServer is set. The returned stop func is a no-op
// when no server was started.
func maybeStartEmbeddedNATS(cfg *config.ClusterConfig) (stop func(), err error) {
	if !cfg.NATS.EmbeddedServer {
		return func() {}, nil
	}
	srv, err := queue.NewEmbeddedServer(&cfg.NATS)
	if err != nil {
		return nil, err
	}
	cfg.NATS.URL = srv.ClientURL()
	logging.Info().Str("url", cfg.NATS.URL).Msg("embedded NATS JetStream server ready")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
