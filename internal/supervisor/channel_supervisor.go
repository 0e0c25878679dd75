package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/AthbiHC/mobasher/internal/capture"
	"github.com/AthbiHC/mobasher/internal/config"
	"github.com/AthbiHC/mobasher/internal/logging"
)

// Errors returned by ChannelSupervisor.
var (
	ErrChannelAlreadyRunning = errors.New("channel already running in supervisor")
	ErrChannelNotRunning     = errors.New("channel is not running")
	ErrNilSupervisorTree     = errors.New("supervisor tree cannot be nil")
)

// ChannelStatus reports one channel's capture state for the operator CLI
// and read API.
type ChannelStatus struct {
	ChannelID string
	Running   bool
	StartedAt time.Time
}

type managedChannel struct {
	token     suture.ServiceToken
	cfg       *config.ChannelConfig
	startedAt time.Time
}

// RecordingStore is the subset of internal/store.Store a capture.Supervisor
// needs to track recordings.
type RecordingStore = capture.RecordingStore

// ChannelSupervisor owns the set of currently running capture.Supervisor
// instances, one per active channel, and lets the operator CLI add,
// remove, or reload a channel's capture service without restarting the
// process: channels can be added, removed, and reloaded at runtime,
// each getting its own suture-supervised service for fault isolation.
type ChannelSupervisor struct {
	tree     *SupervisorTree
	dataRoot string
	store    RecordingStore

	mu       sync.RWMutex
	channels map[string]*managedChannel
}

// NewChannelSupervisor builds a ChannelSupervisor that adds capture
// services to tree's capture layer, rooted at dataRoot, tracking
// recordings via store.
func NewChannelSupervisor(tree *SupervisorTree, dataRoot string, store RecordingStore) (*ChannelSupervisor, error) {
	if tree == nil {
		return nil, ErrNilSupervisorTree
	}
	return &ChannelSupervisor{
		tree:     tree,
		dataRoot: dataRoot,
		store:    store,
		channels: make(map[string]*managedChannel),
	}, nil
}

// StartAll loads every channel descriptor under channelsDir and starts
// capture services for the active ones. Individual channel failures are
// logged but do not prevent the others from starting.
func (c *ChannelSupervisor) StartAll(ctx context.Context, channelsDir string) error {
	configs, err := config.ListChannelConfigs(channelsDir)
	if err != nil {
		return fmt.Errorf("load channel configs: %w", err)
	}

	logging.Info().Int("count", len(configs)).Msg("starting capture services for configured channels")

	var startErrors []error
	for _, cfg := range configs {
		if !cfg.Active {
			continue
		}
		if err := c.AddChannel(cfg); err != nil {
			logging.Warn().Str("channel_id", cfg.ID).Err(err).Msg("failed to start channel capture service")
			startErrors = append(startErrors, err)
		}
	}

	if len(startErrors) > 0 {
		return fmt.Errorf("failed to start %d channels", len(startErrors))
	}
	return nil
}

// AddChannel starts a capture service for cfg. Returns
// ErrChannelAlreadyRunning if the channel is already managed.
func (c *ChannelSupervisor) AddChannel(cfg *config.ChannelConfig) error {
	if cfg == nil {
		return errors.New("channel configuration cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.channels[cfg.ID]; exists {
		return ErrChannelAlreadyRunning
	}

	svc := capture.NewSupervisor(cfg, c.dataRoot, c.store)
	token := c.tree.AddCaptureService(svc)

	c.channels[cfg.ID] = &managedChannel{token: token, cfg: cfg, startedAt: time.Now()}

	logging.Info().Str("channel_id", cfg.ID).Str("name", cfg.Name).Msg("channel capture service added")
	return nil
}

// RemoveChannel stops and removes a channel's capture service. Returns
// ErrChannelNotRunning if the channel is not currently managed.
func (c *ChannelSupervisor) RemoveChannel(channelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	managed, exists := c.channels[channelID]
	if !exists {
		return ErrChannelNotRunning
	}

	if err := c.tree.RemoveCaptureService(managed.token); err != nil {
		return fmt.Errorf("remove capture service for %s: %w", channelID, err)
	}
	delete(c.channels, channelID)

	logging.Info().Str("channel_id", channelID).Msg("channel capture service removed")
	return nil
}

// ReloadChannel stops the old capture service for cfg.ID (if any) and
// starts a new one with the updated configuration. Used when an
// operator edits a channel descriptor and needs the change picked up
// without a full process restart.
func (c *ChannelSupervisor) ReloadChannel(cfg *config.ChannelConfig) error {
	if cfg == nil {
		return errors.New("channel configuration cannot be nil")
	}

	c.mu.RLock()
	_, exists := c.channels[cfg.ID]
	c.mu.RUnlock()

	if exists {
		if err := c.RemoveChannel(cfg.ID); err != nil {
			return fmt.Errorf("remove old capture service: %w", err)
		}
	}
	if err := c.AddChannel(cfg); err != nil {
		return fmt.Errorf("add updated capture service: %w", err)
	}

	logging.Info().Str("channel_id", cfg.ID).Msg("channel capture service reloaded")
	return nil
}

// IsChannelRunning reports whether channelID currently has a managed
// capture service.
func (c *ChannelSupervisor) IsChannelRunning(channelID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.channels[channelID]
	return exists
}

// Status returns the current state of every managed channel.
func (c *ChannelSupervisor) Status() []ChannelStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	statuses := make([]ChannelStatus, 0, len(c.channels))
	for id, managed := range c.channels {
		statuses = append(statuses, ChannelStatus{ChannelID: id, Running: true, StartedAt: managed.startedAt})
	}
	return statuses
}

// StopAll stops every managed channel's capture service. Used during
// process shutdown and by the fresh-reset sequence (internal/retention)
// before truncating tables and wiping data directories.
func (c *ChannelSupervisor) StopAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stopErrors []error
	for channelID, managed := range c.channels {
		if err := c.tree.RemoveCaptureService(managed.token); err != nil {
			logging.Warn().Str("channel_id", channelID).Err(err).Msg("failed to stop channel capture service")
			stopErrors = append(stopErrors, err)
		}
	}
	c.channels = make(map[string]*managedChannel)

	if len(stopErrors) > 0 {
		return fmt.Errorf("failed to stop %d channels", len(stopErrors))
	}
	return nil
}
