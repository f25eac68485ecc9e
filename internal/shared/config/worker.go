package config

import "time"

// WorkerConfig contains all configuration for the worker service.
type WorkerConfig struct {
	Server      ServerConfig          `mapstructure:"server"`
	Coordinator CoordinatorConnConfig `mapstructure:"coordinator"`
	Logging     LoggingConfig         `mapstructure:"logging"`
}

// ServerConfig contains the address the worker advertises.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// CoordinatorConnConfig contains coordinator connection configuration.
type CoordinatorConnConfig struct {
	Addr string           `mapstructure:"addr"`
	GRPC WorkerGRPCConfig `mapstructure:"grpc"`
}

// WorkerGRPCConfig contains worker gRPC client configuration.
type WorkerGRPCConfig struct {
	KeepaliveTime    time.Duration `mapstructure:"keepalive_time"`
	KeepaliveTimeout time.Duration `mapstructure:"keepalive_timeout"`
}

// LoadWorker loads the worker configuration from the given path.
// If configPath is empty, it looks for worker.yaml in the config/ directory.
// Environment variables with LAPREDUCE_WORKER_ prefix override config file values.
func LoadWorker(configPath string) (*WorkerConfig, error) {
	defaults := map[string]any{
		"server.addr":                        ":50051",
		"coordinator.addr":                   "localhost:9090",
		"coordinator.grpc.keepalive_time":    30 * time.Second,
		"coordinator.grpc.keepalive_timeout": 5 * time.Second,
		"logging.level":                      "info",
		"logging.format":                     "json",
	}

	var cfg WorkerConfig
	if err := load(configPath, "worker", "LAPREDUCE_WORKER", defaults, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
