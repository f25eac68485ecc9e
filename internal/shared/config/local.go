package config

// LocalConfig configures the single-process runner.
type LocalConfig struct {
	Dataset      string             `mapstructure:"dataset"`
	Input        []string           `mapstructure:"input"`
	Topology     string             `mapstructure:"topology"`
	Tasks        int                `mapstructure:"tasks"`
	Partitioning PartitioningConfig `mapstructure:"partitioning"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// LoadLocal loads the local runner configuration. If configPath is empty,
// it looks for local.yaml in the config/ directory. Environment variables
// with LAPREDUCE_LOCAL_ prefix override config file values.
func LoadLocal(configPath string) (*LocalConfig, error) {
	defaults := map[string]any{
		"dataset":                "f1",
		"input":                  []string{},
		"topology":               "shared",
		"tasks":                  0,
		"partitioning.mode":      "even",
		"partitioning.workers":   3,
		"partitioning.remainder": "reject",
		"logging.level":          "warn",
		"logging.format":         "text",
	}

	var cfg LocalConfig
	if err := load(configPath, "local", "LAPREDUCE_LOCAL", defaults, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
