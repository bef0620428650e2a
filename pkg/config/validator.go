package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Monitor validation
	if c.Monitor.Interval <= 0 {
		errs = append(errs, errors.New("monitor.interval must be positive"))
	}
	if c.Monitor.SampleTimeout <= 0 {
		errs = append(errs, errors.New("monitor.sample_timeout must be positive"))
	}
	if c.Monitor.SampleTimeout >= c.Monitor.Interval {
		errs = append(errs, errors.New("monitor.sample_timeout must be less than monitor.interval"))
	}

	// Scaling validation
	t := c.Scaling.Thresholds
	if t.CPUScaleUp <= t.CPUScaleDown {
		errs = append(errs, errors.New("scaling.thresholds.cpu_scale_up must be greater than cpu_scale_down"))
	}
	if t.CPUScaleUp <= 0 || t.CPUScaleUp > 100 {
		errs = append(errs, errors.New("scaling.thresholds.cpu_scale_up must be between 0 and 100"))
	}
	if t.MemoryScaleUp <= t.MemoryScaleDown {
		errs = append(errs, errors.New("scaling.thresholds.memory_scale_up must be greater than memory_scale_down"))
	}
	if t.LatencyMs <= 0 {
		errs = append(errs, errors.New("scaling.thresholds.latency_ms must be positive"))
	}
	if t.ErrorRate < 0 || t.ErrorRate > 1 {
		errs = append(errs, errors.New("scaling.thresholds.error_rate must be between 0 and 1"))
	}
	if c.Scaling.MinNodes < 1 {
		errs = append(errs, errors.New("scaling.min_nodes must be at least 1"))
	}
	if c.Scaling.MaxNodes < c.Scaling.MinNodes {
		errs = append(errs, errors.New("scaling.max_nodes must be >= scaling.min_nodes"))
	}
	if c.Scaling.BatchSize < 1 {
		errs = append(errs, errors.New("scaling.batch_size must be at least 1"))
	}
	if c.Scaling.ScaleUpCooldown < 0 || c.Scaling.ScaleDownCooldown < 0 {
		errs = append(errs, errors.New("scaling cooldowns must not be negative"))
	}
	if c.Scaling.HistoryRetention <= 0 {
		errs = append(errs, errors.New("scaling.history_retention must be positive"))
	}

	// Balancer validation
	if c.Balancer.MinHealthScore < 0 || c.Balancer.MinHealthScore >= 100 {
		errs = append(errs, errors.New("balancer.min_health_score must be between 0 and 100"))
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		errs = append(errs, errors.New("metrics.port must be between 1 and 65535"))
	}

	return errors.Join(errs...)
}
