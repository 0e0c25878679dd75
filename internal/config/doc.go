// Package config loads two distinct layers of configuration, both via
// koanf/v2: cluster-wide settings (data root, DuckDB path, NATS URL, API
// bind address — deployment concerns, overridable by environment
// variables) and per-channel descriptors (stream URL, capture
// parameters — data, not deployment config, so they live in their own
// YAML files under the channels directory).
//
// Layering follows the common koanf pattern: defaults struct → YAML
// file → env overlay, plus credential-at-rest encryption for secrets
// that live in channel descriptors.
package config
