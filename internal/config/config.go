// Package config provides configuration management for the groupby engine.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config represents the global configuration for engine operations
type Config struct {
	// Parallel Processing Configuration
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold"` // Minimum groups to trigger parallel kernels
	WorkerPoolSize    int `json:"worker_pool_size" yaml:"worker_pool_size"`     // Number of worker goroutines (0 = auto-detect)
	ChunkSize         int `json:"chunk_size" yaml:"chunk_size"`                 // Groups per work item for parallel kernels (0 = auto)

	// Grouping Configuration
	HashGroupingEnabled bool `json:"hash_grouping_enabled" yaml:"hash_grouping_enabled"` // Allow hash-based grouping fast path
	TDigestDelta        int  `json:"tdigest_delta" yaml:"tdigest_delta"`                 // Default t-digest compression parameter

	// Logging Configuration
	LogLevel  string `json:"log_level" yaml:"log_level"`   // debug, info, warn, error
	LogFormat string `json:"log_format" yaml:"log_format"` // console or json
}

// Default configuration values
const (
	DefaultParallelThreshold = 100
	DefaultChunkSize         = 256
	DefaultTDigestDelta      = 100
)

// Global configuration instance
var (
	globalConfig Config
	configMutex  sync.RWMutex
)

func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		ParallelThreshold:   DefaultParallelThreshold,
		WorkerPoolSize:      0, // Auto-detect
		ChunkSize:           0, // Auto-calculate
		HashGroupingEnabled: true,
		TDigestDelta:        DefaultTDigestDelta,
		LogLevel:            "info",
		LogFormat:           "console",
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("ParallelThreshold must be positive, got %d", c.ParallelThreshold)
	}
	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("ChunkSize must be non-negative, got %d", c.ChunkSize)
	}
	if c.TDigestDelta <= 0 {
		return fmt.Errorf("TDigestDelta must be positive, got %d", c.TDigestDelta)
	}
	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
	if c.TDigestDelta == 0 {
		c.TDigestDelta = defaults.TDigestDelta
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}

	return c
}

// EffectiveWorkers resolves the worker pool size, falling back to the CPU count.
func (c Config) EffectiveWorkers() int {
	if c.WorkerPoolSize > 0 {
		return c.WorkerPoolSize
	}
	return runtime.NumCPU()
}

// EffectiveChunkSize resolves the per-worker group chunk size.
func (c Config) EffectiveChunkSize(numGroups int) int {
	if c.ChunkSize > 0 {
		return c.ChunkSize
	}
	workers := c.EffectiveWorkers()
	chunk := numGroups / (workers * 4)
	if chunk < 1 {
		chunk = 1
	}
	if chunk > DefaultChunkSize {
		chunk = DefaultChunkSize
	}
	return chunk
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a file (supports JSON and YAML)
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv("VIREO_PARALLEL_THRESHOLD"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ParallelThreshold = parsed
		}
	}

	if val := os.Getenv("VIREO_WORKER_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.WorkerPoolSize = parsed
		}
	}

	if val := os.Getenv("VIREO_CHUNK_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ChunkSize = parsed
		}
	}

	if val := os.Getenv("VIREO_HASH_GROUPING"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.HashGroupingEnabled = parsed
		}
	}

	if val := os.Getenv("VIREO_TDIGEST_DELTA"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.TDigestDelta = parsed
		}
	}

	if val := os.Getenv("VIREO_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	if val := os.Getenv("VIREO_LOG_FORMAT"); val != "" {
		config.LogFormat = val
	}

	return config
}
