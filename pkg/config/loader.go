package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/qnet-fleet")
	}

	v.SetEnvPrefix("QNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "qnet-fleet")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	// Monitor defaults
	v.SetDefault("monitor.interval", "10s")
	v.SetDefault("monitor.sample_timeout", "3s")
	v.SetDefault("monitor.retry_attempts", 2)
	v.SetDefault("monitor.source", "simulated")
	v.SetDefault("monitor.pattern", "steady")
	v.SetDefault("monitor.circuit_breaker.max_failures", 5)
	v.SetDefault("monitor.circuit_breaker.timeout", "30s")

	// Scaling defaults
	v.SetDefault("scaling.thresholds.cpu_scale_up", 80.0)
	v.SetDefault("scaling.thresholds.cpu_scale_down", 30.0)
	v.SetDefault("scaling.thresholds.memory_scale_up", 85.0)
	v.SetDefault("scaling.thresholds.memory_scale_down", 40.0)
	v.SetDefault("scaling.thresholds.disk_scale_up", 90.0)
	v.SetDefault("scaling.thresholds.latency_ms", 200.0)
	v.SetDefault("scaling.thresholds.bandwidth_mbps", 800.0)
	v.SetDefault("scaling.thresholds.error_rate", 0.05)
	v.SetDefault("scaling.min_nodes", 2)
	v.SetDefault("scaling.max_nodes", 20)
	v.SetDefault("scaling.batch_size", 2)
	v.SetDefault("scaling.scale_up_cooldown", "3m")
	v.SetDefault("scaling.scale_down_cooldown", "10m")
	v.SetDefault("scaling.redistribute_cooldown", "1m")
	v.SetDefault("scaling.history_retention", "24h")
	v.SetDefault("scaling.default_region", "us-east-1")
	v.SetDefault("scaling.default_capabilities", []string{"compute", "network"})

	// Balancer defaults
	v.SetDefault("balancer.min_health_score", 50.0)

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.jwt_secret", "change-me-in-production")
	v.SetDefault("api.jwt_duration", "24h")
	v.SetDefault("api.operator_username", "operator")

	// WebSocket defaults
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.broadcast_buffer", 256)
	v.SetDefault("websocket.client_buffer", 256)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Events defaults
	v.SetDefault("events.buffer_size", 100)
}
