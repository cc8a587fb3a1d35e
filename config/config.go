// Package config provides configuration loading and validation for the
// annotation core's tunable behaviors: graph validation mode, codec
// unknown-field policy and set-store connectivity.
//
// Configuration is loaded once from YAML and validated on load; there
// is no file watching and no environment-variable resolution. Every
// consumer receives an explicitly passed Config - no singletons.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/e-plus-healthcare-alliance/schemas/errors"
)

// Unknown-field policy constants for the codec.
const (
	// UnknownPreserve keeps unknown attribute-value kinds opaquely.
	UnknownPreserve = "preserve"

	// UnknownDrop removes unknown kinds with a recorded warning.
	UnknownDrop = "drop"
)

// GraphConfig tunes FeatureGraph construction.
type GraphConfig struct {
	// Partial tolerates unresolved parent references instead of
	// reporting them as dangling. Default false (strict).
	Partial bool `yaml:"partial"`

	// Exhaustive makes Validate report every violation instead of
	// stopping at the first.
	Exhaustive bool `yaml:"exhaustive"`
}

// CodecConfig tunes envelope decoding.
type CodecConfig struct {
	// UnknownFields selects the unknown-field policy: "preserve"
	// (default) or "drop".
	UnknownFields string `yaml:"unknown_fields"`

	// ValidateSchema checks envelopes against the embedded JSON
	// Schema before decoding.
	ValidateSchema bool `yaml:"validate_schema"`
}

// StoreConfig tunes set-store connectivity.
type StoreConfig struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string `yaml:"url"`

	// Bucket is the JetStream KV bucket holding encoded sets.
	Bucket string `yaml:"bucket"`
}

// Config is the complete library configuration.
type Config struct {
	Graph GraphConfig `yaml:"graph"`
	Codec CodecConfig `yaml:"codec"`
	Store StoreConfig `yaml:"store"`
}

// Default returns the documented defaults: strict first-violation
// graph validation and preserve-mode decoding.
func Default() *Config {
	return &Config{
		Codec: CodecConfig{UnknownFields: UnknownPreserve},
		Store: StoreConfig{Bucket: "annotation_sets"},
	}
}

// Load reads and validates a YAML configuration file. Fields absent
// from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "config", "Load", "read file")
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapInvalid(err, "config", "Parse", "unmarshal yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for coherence.
func (c *Config) Validate() error {
	switch c.Codec.UnknownFields {
	case UnknownPreserve, UnknownDrop:
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("codec.unknown_fields %q (want %q or %q)",
				c.Codec.UnknownFields, UnknownPreserve, UnknownDrop))
	}
	if c.Store.Bucket == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"store.bucket cannot be empty")
	}
	return nil
}
