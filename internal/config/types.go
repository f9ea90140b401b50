package config

import "time"

// Config represents the taskexec configuration file structure
type Config struct {
	// Defaults contains CLI-wide settings
	Defaults DefaultsConfig `yaml:"defaults,omitempty" json:"defaults,omitempty" mapstructure:"defaults"`

	// Pool holds the worker pool settings used by `taskexec run`
	Pool PoolConfig `yaml:"pool,omitempty" json:"pool,omitempty" mapstructure:"pool"`

	// Retry configures task retries; MaxAttempts <= 1 disables them
	Retry RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" mapstructure:"retry"`

	// Metrics configures the Prometheus collectors
	Metrics MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" mapstructure:"metrics"`
}

// DefaultsConfig contains default CLI values
type DefaultsConfig struct {
	// Timeout bounds a whole command
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" mapstructure:"timeout"`

	// OutputFormat is the default output format (table, json, yaml)
	OutputFormat string `yaml:"outputFormat,omitempty" json:"outputFormat,omitempty" mapstructure:"outputFormat"`

	// NoColor disables colored output
	NoColor bool `yaml:"noColor,omitempty" json:"noColor,omitempty" mapstructure:"noColor"`

	// LogFormat selects the log handler (text, json)
	LogFormat string `yaml:"logFormat,omitempty" json:"logFormat,omitempty" mapstructure:"logFormat"`
}

// PoolConfig mirrors worker.PoolConfig in file form
type PoolConfig struct {
	Workers       int           `yaml:"workers,omitempty" json:"workers,omitempty" mapstructure:"workers"`
	QueueCapacity int           `yaml:"queueCapacity,omitempty" json:"queueCapacity,omitempty" mapstructure:"queueCapacity"`
	EnqueuePolicy string        `yaml:"enqueuePolicy,omitempty" json:"enqueuePolicy,omitempty" mapstructure:"enqueuePolicy"`
	ShutdownMode  string        `yaml:"shutdownMode,omitempty" json:"shutdownMode,omitempty" mapstructure:"shutdownMode"`
	MaxInFlight   int           `yaml:"maxInFlight,omitempty" json:"maxInFlight,omitempty" mapstructure:"maxInFlight"`
	BatchSize     int           `yaml:"batchSize,omitempty" json:"batchSize,omitempty" mapstructure:"batchSize"`
	RateLimit     float64       `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty" mapstructure:"rateLimit"`
	RateBurst     int           `yaml:"rateBurst,omitempty" json:"rateBurst,omitempty" mapstructure:"rateBurst"`
	TaskTimeout   time.Duration `yaml:"taskTimeout,omitempty" json:"taskTimeout,omitempty" mapstructure:"taskTimeout"`
}

// RetryConfig selects an exponential backoff retry policy
type RetryConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts,omitempty" json:"maxAttempts,omitempty" mapstructure:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay,omitempty" json:"initialDelay,omitempty" mapstructure:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay,omitempty" json:"maxDelay,omitempty" mapstructure:"maxDelay"`
	Multiplier   float64       `yaml:"multiplier,omitempty" json:"multiplier,omitempty" mapstructure:"multiplier"`
}

// MetricsConfig configures Prometheus naming
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled,omitempty" json:"enabled,omitempty" mapstructure:"enabled"`
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty" mapstructure:"namespace"`
}
