package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Channel is the persisted form of a channel descriptor .
type Channel struct {
	ID          string
	Name        string
	URL         string
	Headers     map[string]string
	Active      bool
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpsertChannel inserts or updates a channel row by id.
func (s *Store) UpsertChannel(ctx context.Context, id, name, url string, headers map[string]string, active bool, description string) (*Channel, error) {
	headersJSON, err := json.Marshal(headers)
	if err != nil {
		return nil, fmt.Errorf("marshal headers: %w", err)
	}

	const stmt = `
		INSERT INTO channels (id, name, url, headers, active, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			url = excluded.url,
			headers = excluded.headers,
			active = excluded.active,
			description = excluded.description,
			updated_at = CURRENT_TIMESTAMP;
	`
	err = withConflictRetry(func() error {
		_, execErr := s.conn.ExecContext(ctx, stmt, id, name, url, string(headersJSON), active, description)
		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("upsert channel %s: %w", id, err)
	}

	return s.GetChannel(ctx, id)
}

// GetChannel fetches one channel by id.
func (s *Store) GetChannel(ctx context.Context, id string) (*Channel, error) {
	const q = `SELECT id, name, url, headers, active, description, created_at, updated_at FROM channels WHERE id = ?`
	row := s.conn.QueryRowContext(ctx, q, id)
	return scanChannel(row)
}

// ListChannels returns every channel row, optionally filtered to active ones.
func (s *Store) ListChannels(ctx context.Context, activeOnly bool) ([]*Channel, error) {
	q := `SELECT id, name, url, headers, active, description, created_at, updated_at FROM channels`
	if activeOnly {
		q += ` WHERE active = true`
	}
	q += ` ORDER BY id`

	rows, err := s.conn.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []*Channel
	for rows.Next() {
		ch, err := scanChannelRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(row *sql.Row) (*Channel, error) {
	return scanChannelGeneric(row)
}

func scanChannelRows(rows *sql.Rows) (*Channel, error) {
	return scanChannelGeneric(rows)
}

func scanChannelGeneric(sc rowScanner) (*Channel, error) {
	var ch Channel
	var headersJSON string
	if err := sc.Scan(&ch.ID, &ch.Name, &ch.URL, &headersJSON, &ch.Active, &ch.Description, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan channel: %w", err)
	}
	if headersJSON != "" {
		if err := json.Unmarshal([]byte(headersJSON), &ch.Headers); err != nil {
			return nil, fmt.Errorf("unmarshal headers: %w", err)
		}
	}
	return &ch, nil
}
