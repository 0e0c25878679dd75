package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/AthbiHC/mobasher/internal/config"
	"github.com/AthbiHC/mobasher/internal/metrics"
)

// Publisher is the enqueue half of the task queue adapter: dedupe gate
// in front of a circuit-breaker-wrapped Watermill NATS JetStream
// publisher.
type Publisher struct {
	pub     message.Publisher
	breaker *gobreaker.CircuitBreaker[interface{}]
	dedupe  *Dedupe
}

// NewRawPublisher dials NATS JetStream with no dedupe gate or circuit
// breaker attached, the shape Consumer needs to republish poison
// messages. NewPublisher builds on top of this for the enqueue path.
func NewRawPublisher(cfg *config.NATSConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	wmCfg := wmNats.PublisherConfig{
		URL:       cfg.URL,
		Marshaler: &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create queue publisher: %w", err)
	}
	return pub, nil
}

// NewPublisher dials NATS JetStream and wraps it with a circuit breaker
// tripping after five consecutive publish failures.
func NewPublisher(cfg *config.NATSConfig, dedupe *Dedupe, logger watermill.LoggerAdapter) (*Publisher, error) {
	pub, err := NewRawPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "queue-publisher",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Publisher{pub: pub, breaker: breaker, dedupe: dedupe}, nil
}

// Enqueue implements the `enqueue(task_name, args, dedupe_key,
// ttl_seconds)`: if dedupe_key was set within the last ttl_seconds this
// is a no-op returning false; otherwise it sets the key and publishes,
// returning true.
func (p *Publisher) Enqueue(ctx context.Context, task TaskName, args Args, dedupeKey string, ttl time.Duration) (bool, error) {
	ok, err := p.dedupe.SetIfAbsent(ctx, dedupeKey, ttl)
	if err != nil {
		return false, fmt.Errorf("dedupe gate for %s: %w", task, err)
	}
	if !ok {
		metrics.QueueDedupedTotal.WithLabelValues(string(task)).Inc()
		return false, nil
	}

	payload, err := marshalArgs(args)
	if err != nil {
		return false, err
	}

	msg := message.NewMessage(dedupeKey, payload)
	msg.Metadata.Set(natsgo.MsgIdHdr, dedupeKey)

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.pub.Publish(string(task), msg)
	})
	if err != nil {
		metrics.QueueUnavailableTotal.WithLabelValues(string(task)).Inc()
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	metrics.QueueEnqueuedTotal.WithLabelValues(string(task)).Inc()
	return true, nil
}

// Close shuts down the underlying publisher. The dedupe store is owned
// by the caller and is not closed here.
func (p *Publisher) Close() error {
	return p.pub.Close()
}
