package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/AthbiHC/mobasher/internal/config"
)

const streamName = "MOBASHER_TASKS"

// EnsureStream creates or updates the JetStream stream backing every
// task subject. Idempotent: safe to call on every startup.
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg *config.NATSConfig) (jetstream.Stream, error) {
	subjects := make([]string, len(TaskNames))
	for i, t := range TaskNames {
		subjects[i] = string(t)
	}

	maxAge := time.Duration(cfg.StreamRetentionDays) * 24 * time.Hour
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}

	streamCfg := jetstream.StreamConfig{
		Name:        streamName,
		Subjects:    subjects,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      maxAge,
		Storage:     jetstream.FileStorage,
		AllowDirect: true,
		Discard:     jetstream.DiscardOld,
		Duplicates:  2 * time.Minute,
	}

	_, err := js.Stream(ctx, streamName)
	if err == nil {
		updated, err := js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", streamName, err)
		}
		return updated, nil
	}
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		created, err := js.CreateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", streamName, err)
		}
		return created, nil
	}
	return nil, fmt.Errorf("check stream %s: %w", streamName, err)
}
