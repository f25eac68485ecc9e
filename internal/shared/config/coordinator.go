package config

import "time"

// CoordinatorConfig contains all configuration for the coordinator service.
type CoordinatorConfig struct {
	REST    RESTConfig    `mapstructure:"rest"`
	GRPC    GRPCConfig    `mapstructure:"grpc"`
	Health  HealthConfig  `mapstructure:"health"`
	Jobs    JobsConfig    `mapstructure:"jobs"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// RESTConfig contains REST API server configuration.
type RESTConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// GRPCConfig contains gRPC server configuration.
type GRPCConfig struct {
	Addr              string        `mapstructure:"addr"`
	KeepaliveMinTime  time.Duration `mapstructure:"keepalive_min_time"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	EnableReflection  bool          `mapstructure:"enable_reflection"`
}

// HealthConfig contains worker health checking configuration.
type HealthConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	StaleTimeout  time.Duration `mapstructure:"stale_timeout"`
}

// JobsConfig bounds how long a job waits for its partitions and how often
// a failed partition is retried.
type JobsConfig struct {
	CollectTimeout time.Duration `mapstructure:"collect_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
}

// TracingConfig enables OTLP trace export when Endpoint is set.
type TracingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// LoadCoordinator loads the coordinator configuration from the given path.
// If configPath is empty, it looks for coordinator.yaml in the config/ directory.
// Environment variables with LAPREDUCE_COORDINATOR_ prefix override config file values.
func LoadCoordinator(configPath string) (*CoordinatorConfig, error) {
	defaults := map[string]any{
		"rest.addr":               ":8080",
		"rest.read_timeout":       15 * time.Second,
		"rest.write_timeout":      15 * time.Second,
		"rest.idle_timeout":       60 * time.Second,
		"grpc.addr":               ":9090",
		"grpc.keepalive_min_time": 5 * time.Second,
		"grpc.heartbeat_interval": 5 * time.Second,
		"grpc.enable_reflection":  false,
		"health.check_interval":   5 * time.Second,
		"health.stale_timeout":    15 * time.Second,
		"jobs.collect_timeout":    2 * time.Minute,
		"jobs.max_attempts":       3,
		"tracing.endpoint":        "",
		"logging.level":           "info",
		"logging.format":          "json",
	}

	var cfg CoordinatorConfig
	if err := load(configPath, "coordinator", "LAPREDUCE_COORDINATOR", defaults, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
