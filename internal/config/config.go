package config

import "time"

// Config holds all runtime configuration for the task queue daemon.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	Queue   QueueConfig   `mapstructure:"queue" validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Log     LogConfig     `mapstructure:"log" validate:"required"`
}

// ServerConfig contains the admin HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}

// QueueConfig contains the engine settings.
type QueueConfig struct {
	MaxWorkers    int           `mapstructure:"max_workers" validate:"required,gt=0,lte=64"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" validate:"required"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"required"`
	Retention     time.Duration `mapstructure:"retention" validate:"required"`
}

// StorageConfig contains the snapshot persistence settings.
type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// LogConfig contains the logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}
