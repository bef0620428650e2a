package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "qnet-fleet", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Mode)
	assert.Equal(t, "info", cfg.App.LogLevel)

	assert.Equal(t, 10*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, 3*time.Second, cfg.Monitor.SampleTimeout)
	assert.Equal(t, "simulated", cfg.Monitor.Source)

	assert.Equal(t, 80.0, cfg.Scaling.Thresholds.CPUScaleUp)
	assert.Equal(t, 30.0, cfg.Scaling.Thresholds.CPUScaleDown)
	assert.Equal(t, 2, cfg.Scaling.MinNodes)
	assert.Equal(t, 20, cfg.Scaling.MaxNodes)
	assert.Equal(t, 3*time.Minute, cfg.Scaling.ScaleUpCooldown)
	assert.Equal(t, 24*time.Hour, cfg.Scaling.HistoryRetention)
	assert.Equal(t, "us-east-1", cfg.Scaling.DefaultRegion)
	assert.Equal(t, []string{"compute", "network"}, cfg.Scaling.DefaultCapabilities)

	assert.Equal(t, 50.0, cfg.Balancer.MinHealthScore)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.True(t, cfg.Metrics.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  mode: production
  log_level: warn
scaling:
  min_nodes: 3
  max_nodes: 50
api:
  port: 9000
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Mode)
	assert.Equal(t, "warn", cfg.App.LogLevel)
	assert.Equal(t, 3, cfg.Scaling.MinNodes)
	assert.Equal(t, 50, cfg.Scaling.MaxNodes)
	assert.Equal(t, 9000, cfg.API.Port)

	// untouched keys keep their defaults
	assert.Equal(t, 2, cfg.Scaling.BatchSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("QNET_SCALING_MAX_NODES", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Scaling.MaxNodes)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [not: valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults are valid", func(c *Config) {}, true},
		{"bad mode", func(c *Config) { c.App.Mode = "staging" }, false},
		{"bad log level", func(c *Config) { c.App.LogLevel = "trace" }, false},
		{"zero interval", func(c *Config) { c.Monitor.Interval = 0 }, false},
		{"timeout exceeds interval", func(c *Config) { c.Monitor.SampleTimeout = c.Monitor.Interval }, false},
		{"cpu up below down", func(c *Config) { c.Scaling.Thresholds.CPUScaleUp = 20 }, false},
		{"cpu above 100", func(c *Config) { c.Scaling.Thresholds.CPUScaleUp = 120 }, false},
		{"error rate out of range", func(c *Config) { c.Scaling.Thresholds.ErrorRate = 1.5 }, false},
		{"min nodes zero", func(c *Config) { c.Scaling.MinNodes = 0 }, false},
		{"max below min", func(c *Config) { c.Scaling.MaxNodes = 1 }, false},
		{"batch size zero", func(c *Config) { c.Scaling.BatchSize = 0 }, false},
		{"negative cooldown", func(c *Config) { c.Scaling.ScaleUpCooldown = -time.Minute }, false},
		{"zero retention", func(c *Config) { c.Scaling.HistoryRetention = 0 }, false},
		{"health score 100", func(c *Config) { c.Balancer.MinHealthScore = 100 }, false},
		{"bad api port", func(c *Config) { c.API.Port = 0 }, false},
		{"bad metrics port ignored when disabled", func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.Port = 0
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
