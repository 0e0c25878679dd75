package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ClusterConfigPathEnvVar overrides the cluster config file location.
const ClusterConfigPathEnvVar = "MOBASHER_CONFIG_PATH"

// DefaultClusterConfigPaths lists cluster config file locations searched
// in order; the first one found is used.
var DefaultClusterConfigPaths = []string{
	"mobasher.yaml",
	"mobasher.yml",
	"/etc/mobasher/mobasher.yaml",
}

// NATSConfig configures the task queue transport: connection, the
// optional embedded server, and consumer retry/backoff tuning.
type NATSConfig struct {
	URL                 string        `koanf:"url"`
	EmbeddedServer      bool          `koanf:"embedded_server"`
	StoreDir            string        `koanf:"store_dir"`
	StreamRetentionDays int           `koanf:"stream_retention_days"`
	ConsumerConcurrency int           `koanf:"consumer_concurrency"`
	RouterRetryCount    int           `koanf:"router_retry_count"`
	RouterRetryInitial  time.Duration `koanf:"router_retry_initial"`
	RouterPoisonTopic   string        `koanf:"router_poison_topic"`
}

// DedupeConfig configures the Badger-backed SET-IF-ABSENT dedupe store.
type DedupeConfig struct {
	Path           string        `koanf:"path"`
	DefaultTTL     time.Duration `koanf:"default_ttl"`
	GCIntervalMins int           `koanf:"gc_interval_minutes"`
}

// DatabaseConfig configures the DuckDB persistence layer.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// APIConfig configures the read API.
type APIConfig struct {
	Host            string `koanf:"host"`
	Port            int    `koanf:"port"`
	DefaultPageSize int    `koanf:"default_page_size"`
	AuthMode        string `koanf:"auth_mode"` // "none" | "bearer"
	BearerToken     string `koanf:"bearer_token"`
}

// RetentionConfig configures age-based deletion.
type RetentionConfig struct {
	TranscriptDays int    `koanf:"transcript_days"`
	EmbeddingDays  int    `koanf:"embedding_days"`
	ScreenshotDays int    `koanf:"screenshot_days"`
	ScreenshotRoot string `koanf:"screenshot_root"`
}

// ClusterConfig is the deployment-wide configuration shared by every
// Mobasher process (capture supervisors, schedulers, workers, API,
// operator CLI).
type ClusterConfig struct {
	DataRoot       string          `koanf:"data_root"`
	ChannelsDir    string          `koanf:"channels_dir"`
	CredKey        string          `koanf:"cred_key"`
	LogLevel       string          `koanf:"log_level"`
	LogFormat      string          `koanf:"log_format"`
	NATS           NATSConfig      `koanf:"nats"`
	Dedupe         DedupeConfig    `koanf:"dedupe"`
	Database       DatabaseConfig  `koanf:"database"`
	API            APIConfig       `koanf:"api"`
	Retention      RetentionConfig `koanf:"retention"`
}

func defaultClusterConfig() *ClusterConfig {
	return &ClusterConfig{
		DataRoot:    "/data/mobasher",
		ChannelsDir: "/etc/mobasher/channels",
		CredKey:     "",
		LogLevel:    "info",
		LogFormat:   "json",
		NATS: NATSConfig{
			URL:                 "nats://127.0.0.1:4222",
			EmbeddedServer:      true,
			StoreDir:            "/data/mobasher/nats/jetstream",
			StreamRetentionDays: 7,
			ConsumerConcurrency: 4,
			RouterRetryCount:    3,
			RouterRetryInitial:  100 * time.Millisecond,
			RouterPoisonTopic:   "mobasher.poison",
		},
		Dedupe: DedupeConfig{
			Path:           "/data/mobasher/dedupe",
			DefaultTTL:     10 * time.Minute,
			GCIntervalMins: 30,
		},
		Database: DatabaseConfig{
			Path:      "/data/mobasher/mobasher.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		API: APIConfig{
			Host:            "0.0.0.0",
			Port:            8980,
			DefaultPageSize: 50,
			AuthMode:        "none",
		},
		Retention: RetentionConfig{
			TranscriptDays: 365,
			EmbeddingDays:  365,
			ScreenshotDays: 90,
			ScreenshotRoot: "",
		},
	}
}

// LoadClusterConfig loads the cluster configuration: defaults → optional
// YAML file → environment variables (MOBASHER_* names, e.g.
// MOBASHER_DATA_ROOT -> data_root, MOBASHER_API_PORT -> api.port).
func LoadClusterConfig() (*ClusterConfig, error) {
	k := koanf.New(".")

	defaults := defaultClusterConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load cluster config defaults: %w", err)
	}

	if path := findClusterConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load cluster config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("MOBASHER_", ".", clusterEnvTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load cluster config env: %w", err)
	}

	cfg := &ClusterConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal cluster config: %w", err)
	}

	if cfg.DataRoot == "" {
		return nil, newConfigError("data_root", "must not be empty")
	}

	return cfg, nil
}

func findClusterConfigFile() string {
	if p := os.Getenv(ClusterConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultClusterConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// clusterEnvTransform maps MOBASHER_DATA_ROOT -> data_root,
// MOBASHER_API_PORT -> api.port, MOBASHER_NATS_URL -> nats.url, etc.
func clusterEnvTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "MOBASHER_"))
	switch {
	case strings.HasPrefix(key, "api_"):
		return "api." + strings.TrimPrefix(key, "api_")
	case strings.HasPrefix(key, "nats_"):
		return "nats." + strings.TrimPrefix(key, "nats_")
	case strings.HasPrefix(key, "dedupe_"):
		return "dedupe." + strings.TrimPrefix(key, "dedupe_")
	case strings.HasPrefix(key, "database_") || strings.HasPrefix(key, "db_"):
		rest := strings.TrimPrefix(strings.TrimPrefix(key, "database_"), "db_")
		return "database." + rest
	case strings.HasPrefix(key, "retention_"):
		return "retention." + strings.TrimPrefix(key, "retention_")
	default:
		return key
	}
}
