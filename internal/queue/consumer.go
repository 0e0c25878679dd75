package queue

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/AthbiHC/mobasher/internal/config"
	"github.com/AthbiHC/mobasher/internal/logging"
	"github.com/AthbiHC/mobasher/internal/metrics"
)

// Handler processes one task delivery. It receives the retry attempt
// number for this delivery (0 on first try) and returns RetryAfter to
// ask the consumer to redeliver after a delay, or any other error to
// fall through to the consumer's own backoff schedule. A nil error
// acks the message.
type Handler func(ctx context.Context, args Args, attempt int) error

// RetryAfter is returned by a Handler to request redelivery after d,
// bypassing the consumer's computed backoff.
type RetryAfter struct {
	Err error
	At  time.Duration
}

func (r *RetryAfter) Error() string { return r.Err.Error() }
func (r *RetryAfter) Unwrap() error { return r.Err }

// ConsumerConfig tunes one task subscription.
type ConsumerConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultConsumerConfig mirrors the consume() defaults:
// max_retries=3, default_retry_delay doubling per attempt with jitter.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     time.Minute,
	}
}

// Consumer subscribes to one task's subject and dispatches deliveries
// to a Handler with bounded concurrency, ack/nack driven. Watermill's
// retry middleware does not expose a stable public per-message attempt count
// across versions, so attempts are tracked here explicitly, keyed by
// watermill message UUID (preserved across NATS redelivery since the
// marshaler round-trips the full message, UUID included).
type Consumer struct {
	sub         message.Subscriber
	cfg         ConsumerConfig
	poisonTopic string
	pub         message.Publisher

	mu       sync.Mutex
	attempts map[string]int
}

// NewConsumer builds a subscriber bound to the task queue's JetStream
// stream, durable per task name so redeliveries resume after restart.
func NewConsumer(clusterCfg *config.NATSConfig, task TaskName, cfg ConsumerConfig, pub message.Publisher, logger watermill.LoggerAdapter) (*Consumer, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	wmCfg := wmNats.SubscriberConfig{
		URL:              clusterCfg.URL,
		QueueGroupPrefix: "mobasher",
		AckWaitTimeout:   30 * time.Second,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			DurablePrefix: "mobasher-" + string(task),
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.MaxDeliver(cfg.MaxRetries + 1),
				natsgo.AckExplicit(),
				natsgo.MaxAckPending(256),
			},
		},
	}

	sub, err := wmNats.NewSubscriber(wmCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create consumer for %s: %w", task, err)
	}

	return &Consumer{
		sub:         sub,
		cfg:         cfg,
		poisonTopic: clusterCfg.RouterPoisonTopic,
		pub:         pub,
		attempts:    make(map[string]int),
	}, nil
}

// Run subscribes to task's subject and dispatches each delivery to
// handler across concurrency worker goroutines until ctx is canceled.
func (c *Consumer) Run(ctx context.Context, task TaskName, handler Handler, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}

	messages, err := c.sub.Subscribe(ctx, string(task))
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", task, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range messages {
				c.process(ctx, task, handler, msg)
			}
		}()
	}
	wg.Wait()
	return nil
}

func (c *Consumer) process(ctx context.Context, task TaskName, handler Handler, msg *message.Message) {
	attempt := c.attemptFor(msg.UUID)

	args, err := unmarshalArgs(msg.Payload)
	if err != nil {
		logging.Error().Err(err).Str("task", string(task)).Msg("malformed task payload, routing to poison queue")
		c.poison(task, msg, err)
		msg.Ack()
		c.forget(msg.UUID)
		metrics.QueueConsumedTotal.WithLabelValues(string(task), "malformed").Inc()
		return
	}

	err = handler(ctx, args, attempt)
	if err == nil {
		msg.Ack()
		c.forget(msg.UUID)
		metrics.QueueConsumedTotal.WithLabelValues(string(task), "success").Inc()
		return
	}

	if attempt >= c.cfg.MaxRetries {
		logging.Warn().Err(err).Str("task", string(task)).Int("attempt", attempt).Msg("retries exhausted, routing to poison queue")
		c.poison(task, msg, err)
		msg.Ack()
		c.forget(msg.UUID)
		metrics.QueueConsumedTotal.WithLabelValues(string(task), "exhausted").Inc()
		return
	}

	delay := c.backoff(attempt)
	if ra, ok := err.(*RetryAfter); ok {
		delay = ra.At
	}
	logging.Debug().Str("task", string(task)).Int("attempt", attempt).Dur("delay", delay).Msg("retrying")

	c.bumpAttempt(msg.UUID)
	time.Sleep(delay)
	msg.Nack()
	metrics.QueueConsumedTotal.WithLabelValues(string(task), "retried").Inc()
}

func (c *Consumer) attemptFor(uuid string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts[uuid]
}

func (c *Consumer) bumpAttempt(uuid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts[uuid]++
}

func (c *Consumer) forget(uuid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attempts, uuid)
}

// backoff computes default_retry_delay * 2^attempt with +/-20% jitter,
// capped at MaxDelay.
func (c *Consumer) backoff(attempt int) time.Duration {
	base := c.cfg.InitialDelay
	for i := 0; i < attempt; i++ {
		base *= 2
		if base >= c.cfg.MaxDelay {
			base = c.cfg.MaxDelay
			break
		}
	}
	jitter := 0.8 + rand.Float64()*0.4
	d := time.Duration(float64(base) * jitter)
	if d > c.cfg.MaxDelay {
		d = c.cfg.MaxDelay
	}
	return d
}

func (c *Consumer) poison(task TaskName, msg *message.Message, cause error) {
	if c.pub == nil || c.poisonTopic == "" {
		return
	}
	poisoned := message.NewMessage(watermill.NewUUID(), msg.Payload)
	poisoned.Metadata.Set("original_task", string(task))
	poisoned.Metadata.Set("failure_reason", cause.Error())
	if err := c.pub.Publish(c.poisonTopic, poisoned); err != nil {
		logging.Error().Err(err).Str("task", string(task)).Msg("failed to publish to poison queue")
	}
}

// Close shuts down the underlying subscriber.
func (c *Consumer) Close() error {
	return c.sub.Close()
}
