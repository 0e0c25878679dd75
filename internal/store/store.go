// Package store is the DuckDB-backed persistence layer for channels,
// recordings, segments, and their derived artifacts (transcripts,
// embeddings, visual events, entities, alerts). All writes are upserts
// keyed by natural composite keys so concurrent writers converge.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/AthbiHC/mobasher/internal/config"
	"github.com/AthbiHC/mobasher/internal/logging"
)

// Store wraps the DuckDB connection used by the ingestion core.
type Store struct {
	conn *sql.DB

	stmtCache   map[string]*sql.Stmt
	stmtCacheMu sync.RWMutex
}

// Open creates (or reopens) the DuckDB database at cfg.Path, preloads
// extensions, configures the connection pool, and runs schema setup.
func Open(cfg *config.DatabaseConfig) (*Store, error) {
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dbDir, err)
		}
	}

	if err := preloadExtensions(); err != nil {
		logging.Warn().Err(err).Msg("failed to preload duckdb extensions, WAL replay may fail")
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "2GB"
	}

	connStr := fmt.Sprintf(
		"%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, maxMemory,
	)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(threads)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	st := &Store{conn: conn, stmtCache: make(map[string]*sql.Stmt)}

	if err := st.loadExtensions(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("load extensions: %w", err)
	}

	if err := st.initialize(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return st, nil
}

// loadExtensions installs (if needed) and loads the extensions the
// schema depends on directly on the main connection: icu and json are
// required by the schema and query layer, vss backs the HNSW index
// used by semantic search.
func (s *Store) loadExtensions() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, ext := range []string{"icu", "json", "vss"} {
		if _, err := s.conn.ExecContext(ctx, fmt.Sprintf("INSTALL %s;", ext)); err != nil {
			logging.Debug().Str("extension", ext).Err(err).Msg("install failed, attempting load in case it is already installed")
		}
		if _, err := s.conn.ExecContext(ctx, fmt.Sprintf("LOAD %s;", ext)); err != nil {
			if ext == "vss" {
				logging.Warn().Err(err).Msg("vss extension unavailable, semantic search will fail")
				continue
			}
			return fmt.Errorf("load %s extension: %w", ext, err)
		}
	}
	return nil
}

// Conn returns the underlying *sql.DB, for callers that need raw access
// (e.g. the operator CLI's ad-hoc query commands).
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Close flushes a checkpoint and closes the connection.
func (s *Store) Close() error {
	s.stmtCacheMu.Lock()
	for _, stmt := range s.stmtCache {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	s.stmtCache = make(map[string]*sql.Stmt)
	s.stmtCacheMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("checkpoint before close failed")
	}
	return s.conn.Close()
}

// Ping checks the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *Store) checkpoint(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, "CHECKPOINT;")
	return err
}

func (s *Store) initialize() error {
	if err := s.createTables(); err != nil {
		return err
	}
	if err := s.createIndexes(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.checkpoint(ctx)
}

// preloadExtensions loads DuckDB extensions in an in-memory database
// before opening the main file, so WAL replay of any extension-backed
// column default (e.g. TIMESTAMPTZ) does not fail.
func preloadExtensions() error {
	conn, err := sql.Open("duckdb", ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return fmt.Errorf("open in-memory preload database: %w", err)
	}
	defer func() {
		conn.SetMaxOpenConns(0)
		_ = conn.Close()
	}()

	for _, ext := range []string{"icu", "json", "vss"} {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, err := conn.ExecContext(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext))
		cancel()
		if err != nil {
			logging.Debug().Str("extension", ext).Err(err).Msg("extension preload failed, continuing")
		}
	}
	return nil
}
