package config

import "time"

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Scaling   ScalingConfig   `mapstructure:"scaling"`
	Balancer  BalancerConfig  `mapstructure:"balancer"`
	API       APIConfig       `mapstructure:"api"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Events    EventsConfig    `mapstructure:"events"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MonitorConfig struct {
	Interval       time.Duration        `mapstructure:"interval"`
	SampleTimeout  time.Duration        `mapstructure:"sample_timeout"`
	RetryAttempts  int                  `mapstructure:"retry_attempts"`
	Source         string               `mapstructure:"source"`
	Pattern        string               `mapstructure:"pattern"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ScalingConfig holds the thresholds and bounds driving the autoscaling
// loop. It is process-wide and mutable; the control loop re-reads it on
// every tick, so updates take effect without a restart.
type ScalingConfig struct {
	Thresholds           ThresholdConfig `mapstructure:"thresholds"`
	MinNodes             int             `mapstructure:"min_nodes"`
	MaxNodes             int             `mapstructure:"max_nodes"`
	BatchSize            int             `mapstructure:"batch_size"`
	ScaleUpCooldown      time.Duration   `mapstructure:"scale_up_cooldown"`
	ScaleDownCooldown    time.Duration   `mapstructure:"scale_down_cooldown"`
	RedistributeCooldown time.Duration   `mapstructure:"redistribute_cooldown"`
	HistoryRetention     time.Duration   `mapstructure:"history_retention"`
	DefaultRegion        string          `mapstructure:"default_region"`
	DefaultCapabilities  []string        `mapstructure:"default_capabilities"`
}

type ThresholdConfig struct {
	CPUScaleUp      float64 `mapstructure:"cpu_scale_up"`
	CPUScaleDown    float64 `mapstructure:"cpu_scale_down"`
	MemoryScaleUp   float64 `mapstructure:"memory_scale_up"`
	MemoryScaleDown float64 `mapstructure:"memory_scale_down"`
	DiskScaleUp     float64 `mapstructure:"disk_scale_up"`
	LatencyMs       float64 `mapstructure:"latency_ms"`
	BandwidthMbps   float64 `mapstructure:"bandwidth_mbps"`
	ErrorRate       float64 `mapstructure:"error_rate"`
}

type BalancerConfig struct {
	MinHealthScore float64 `mapstructure:"min_health_score"`
}

type APIConfig struct {
	Port                 int           `mapstructure:"port"`
	ReadTimeout          time.Duration `mapstructure:"read_timeout"`
	WriteTimeout         time.Duration `mapstructure:"write_timeout"`
	RateLimit            int           `mapstructure:"rate_limit"`
	JWTSecret            string        `mapstructure:"jwt_secret"`
	JWTDuration          time.Duration `mapstructure:"jwt_duration"`
	OperatorUsername     string        `mapstructure:"operator_username"`
	OperatorPasswordHash string        `mapstructure:"operator_password_hash"`
	CORS                 CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type WebSocketConfig struct {
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	BroadcastBuffer int           `mapstructure:"broadcast_buffer"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}
