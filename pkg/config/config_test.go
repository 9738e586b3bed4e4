package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Compute.Parallel)
	assert.Equal(t, 100, cfg.Cluster.MaxIterations)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vecluster.yaml")
	data := `
compute:
  parallel: false
  workers: 3
  min_parallel: 10
cluster:
  max_iterations: 25
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.False(t, cfg.Compute.Parallel)
	assert.Equal(t, 3, cfg.Compute.Workers)
	assert.Equal(t, 10, cfg.Compute.MinParallel)
	assert.Equal(t, 25, cfg.Cluster.MaxIterations)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/vecluster.yaml")
	require.Error(t, err)
}

func TestEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	assert.Equal(t, Default().Cluster.MaxIterations, cfg.Cluster.MaxIterations)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VECLUSTER_PARALLEL", "false")
	t.Setenv("VECLUSTER_WORKERS", "7")
	t.Setenv("VECLUSTER_MAX_ITERATIONS", "42")
	t.Setenv("VECLUSTER_LOG_LEVEL", "WARN")

	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	assert.False(t, cfg.Compute.Parallel)
	assert.Equal(t, 7, cfg.Compute.Workers)
	assert.Equal(t, 42, cfg.Cluster.MaxIterations)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative workers", func(c *Config) { c.Compute.Workers = -1 }},
		{"negative min parallel", func(c *Config) { c.Compute.MinParallel = -5 }},
		{"zero iterations", func(c *Config) { c.Cluster.MaxIterations = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
