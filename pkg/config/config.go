// Package config handles vecluster configuration via YAML files and
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (VECLUSTER_*)
//  2. Config file (vecluster.yaml)
//  3. Built-in defaults
//
// Environment variables:
//   - VECLUSTER_PARALLEL=true|false
//   - VECLUSTER_WORKERS=8
//   - VECLUSTER_MIN_PARALLEL=64
//   - VECLUSTER_MAX_ITERATIONS=100
//   - VECLUSTER_LOG_LEVEL=debug|info|warn|error
//   - VECLUSTER_LOG_FORMAT=json|console
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veclusterhq/vecluster/pkg/compute"
)

// Config holds all vecluster settings.
type Config struct {
	// Compute controls the parallel execution backend.
	Compute compute.Config `yaml:"compute"`

	// Cluster holds clustering engine settings.
	Cluster ClusterConfig `yaml:"cluster"`

	// Log holds logging settings.
	Log LogConfig `yaml:"log"`
}

// ClusterConfig holds clustering engine settings.
type ClusterConfig struct {
	// MaxIterations bounds the k-means loop.
	MaxIterations int `yaml:"max_iterations"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is json or console.
	Format string `yaml:"format"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Compute: compute.DefaultConfig(),
		Cluster: ClusterConfig{MaxIterations: 100},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// LoadFromFile reads a YAML config file, applies environment overrides, and
// validates the result. An empty path skips the file and uses defaults plus
// environment.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from VECLUSTER_* environment variables.
func (c *Config) applyEnv() {
	if v, ok := envBool("VECLUSTER_PARALLEL"); ok {
		c.Compute.Parallel = v
	}
	if v, ok := envInt("VECLUSTER_WORKERS"); ok {
		c.Compute.Workers = v
	}
	if v, ok := envInt("VECLUSTER_MIN_PARALLEL"); ok {
		c.Compute.MinParallel = v
	}
	if v, ok := envInt("VECLUSTER_MAX_ITERATIONS"); ok {
		c.Cluster.MaxIterations = v
	}
	if v := os.Getenv("VECLUSTER_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("VECLUSTER_LOG_FORMAT"); v != "" {
		c.Log.Format = strings.ToLower(v)
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.Compute.Workers < 0 {
		return fmt.Errorf("compute.workers must be >= 0, got %d", c.Compute.Workers)
	}
	if c.Compute.MinParallel < 0 {
		return fmt.Errorf("compute.min_parallel must be >= 0, got %d", c.Compute.MinParallel)
	}
	if c.Cluster.MaxIterations <= 0 {
		return fmt.Errorf("cluster.max_iterations must be >= 1, got %d", c.Cluster.MaxIterations)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
