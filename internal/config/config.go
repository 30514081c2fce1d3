// Package config loads the tool configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"routechunks/internal/chunk"
)

// Config is the complete tool configuration.
type Config struct {
	// ChunkNames is the closed list of chunkable route export names.
	ChunkNames []string `json:"chunkNames" mapstructure:"chunkNames"`

	Discovery DiscoveryConfig `json:"discovery" mapstructure:"discovery"`
	Cache     CacheConfig     `json:"cache" mapstructure:"cache"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// DiscoveryConfig controls route-module discovery.
type DiscoveryConfig struct {
	// Include globs select route modules, relative to the scanned root.
	Include []string `json:"include" mapstructure:"include"`
	// Exclude globs remove matches again.
	Exclude []string `json:"exclude" mapstructure:"exclude"`
}

// CacheConfig selects the memoization backing store.
type CacheConfig struct {
	// Backend is one of "memory", "bolt" or "sqlite".
	Backend string `json:"backend" mapstructure:"backend"`
	// Path locates the on-disk store; ignored for "memory".
	Path string `json:"path" mapstructure:"path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		ChunkNames: append([]string(nil), chunk.DefaultChunkNames...),
		Discovery: DiscoveryConfig{
			Include: []string{"**/routes/**/*.{ts,tsx,js,jsx}", "**/root.{ts,tsx,js,jsx}"},
			Exclude: []string{"**/node_modules/**", "**/.*/**"},
		},
		Cache: CacheConfig{
			Backend: "memory",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path (yaml or json). An empty path returns
// the defaults; file values override defaults field by field.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "memory", "bolt", "sqlite":
	default:
		return fmt.Errorf("unknown cache backend %q (expected memory, bolt or sqlite)", c.Cache.Backend)
	}
	if c.Cache.Backend != "memory" && c.Cache.Path == "" {
		return fmt.Errorf("cache backend %q requires cache.path", c.Cache.Backend)
	}
	if len(c.ChunkNames) == 0 {
		return fmt.Errorf("chunkNames must not be empty")
	}
	return nil
}
