package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AthbiHC/mobasher/internal/config"
	"github.com/AthbiHC/mobasher/internal/logging"
)

// Dedupe is the SET-IF-ABSENT gate in front of the queue: a single
// badger.Txn combining a Get and a TTL'd SetEntry gives
// at-most-once-per-window semantics without a separate lock.
type Dedupe struct {
	db   *badger.DB
	stop chan struct{}
}

// NewDedupe opens (or creates) the Badger dedupe store at cfg.Path and
// starts its background GC loop.
func NewDedupe(cfg *config.DedupeConfig) (*Dedupe, error) {
	if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil, fmt.Errorf("create dedupe directory %s: %w", cfg.Path, err)
	}

	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open dedupe store: %w", err)
	}

	d := &Dedupe{db: db, stop: make(chan struct{})}

	interval := time.Duration(cfg.GCIntervalMins) * time.Minute
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go d.runGC(interval)

	return d, nil
}

// SetIfAbsent implements the dedupe gate's set-if-absent primitive: if
// key is already present and unexpired, it returns false and does
// nothing; otherwise it sets key with the given TTL and returns true.
func (d *Dedupe) SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	var set bool
	err := d.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			set = false
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		entry := badger.NewEntry([]byte(key), []byte{1}).WithTTL(ttl)
		if err := txn.SetEntry(entry); err != nil {
			return err
		}
		set = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("dedupe set-if-absent %s: %w", key, err)
	}
	return set, nil
}

func (d *Dedupe) runGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for {
				if err := d.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
		case <-d.stop:
			return
		}
	}
}

// Close stops the GC loop and closes the store.
func (d *Dedupe) Close() error {
	close(d.stop)
	if err := d.db.Close(); err != nil {
		logging.Warn().Err(err).Msg("dedupe store close failed")
		return err
	}
	return nil
}
