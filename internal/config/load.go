package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "NEXUS_TASKQUEUE"

// Load reads configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence. Environment
// variables use the NEXUS_TASKQUEUE_ prefix with underscores for nesting,
// e.g. NEXUS_TASKQUEUE_QUEUE_MAX_WORKERS=8.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("queue.max_workers", 4)
	v.SetDefault("queue.retry_delay", "100ms")
	v.SetDefault("queue.sweep_interval", "5m")
	v.SetDefault("queue.retention", "24h")
	v.SetDefault("storage.path", "safe_files/task_storage.json")
	v.SetDefault("log.level", "info")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configFile)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}
