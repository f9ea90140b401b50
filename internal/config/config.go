package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jzx17/taskexec/internal/util"
	"github.com/jzx17/taskexec/pkg/retry"
	"github.com/jzx17/taskexec/pkg/types"
	"github.com/jzx17/taskexec/pkg/worker"
	"github.com/spf13/viper"
)

const (
	defaultConfigName = ".taskexec"
	envPrefix         = "TASKEXEC"
)

// Manager loads taskexec configuration from file, environment and defaults
type Manager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
}

// NewManager creates a new configuration manager.
// An empty configPath searches $HOME/.taskexec.yaml.
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
		viper:      viper.New(),
		config:     &Config{},
	}
}

// Viper exposes the underlying viper instance so flags can be bound to it
func (m *Manager) Viper() *viper.Viper {
	return m.viper
}

// Load reads the configuration. A missing file is not an error.
func (m *Manager) Load() (*Config, error) {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		m.viper.AddConfigPath(home)
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	// nested keys map to TASKEXEC_POOL_WORKERS and friends
	m.viper.SetEnvPrefix(envPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()
	registerDefaults(m.viper)

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	m.config = &Config{}
	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	m.applyDefaults()

	if err := m.config.Validate(); err != nil {
		return nil, err
	}
	return m.config, nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// ConfigFileUsed returns the file Load read, if any
func (m *Manager) ConfigFileUsed() string {
	return m.viper.ConfigFileUsed()
}

// registerDefaults makes every key known to viper so environment
// variables are honoured by Unmarshal
func registerDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("defaults.timeout", d.Defaults.Timeout)
	v.SetDefault("defaults.outputFormat", d.Defaults.OutputFormat)
	v.SetDefault("defaults.noColor", d.Defaults.NoColor)
	v.SetDefault("defaults.logFormat", d.Defaults.LogFormat)
	v.SetDefault("pool.workers", d.Pool.Workers)
	v.SetDefault("pool.queueCapacity", d.Pool.QueueCapacity)
	v.SetDefault("pool.enqueuePolicy", d.Pool.EnqueuePolicy)
	v.SetDefault("pool.shutdownMode", d.Pool.ShutdownMode)
	v.SetDefault("pool.maxInFlight", d.Pool.MaxInFlight)
	v.SetDefault("pool.batchSize", d.Pool.BatchSize)
	v.SetDefault("pool.rateLimit", d.Pool.RateLimit)
	v.SetDefault("pool.rateBurst", d.Pool.RateBurst)
	v.SetDefault("pool.taskTimeout", d.Pool.TaskTimeout)
	v.SetDefault("retry.maxAttempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.initialDelay", d.Retry.InitialDelay)
	v.SetDefault("retry.maxDelay", d.Retry.MaxDelay)
	v.SetDefault("retry.multiplier", d.Retry.Multiplier)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Timeout:      30 * time.Second,
			OutputFormat: "table",
			LogFormat:    "text",
		},
		Pool: PoolConfig{
			Workers:       4,
			EnqueuePolicy: types.EnqueueBlock.String(),
			ShutdownMode:  types.ShutdownGraceful.String(),
		},
		Retry: RetryConfig{
			MaxAttempts:  1,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2,
		},
		Metrics: MetricsConfig{
			Namespace: "taskexec",
		},
	}
}

// applyDefaults fills empty values a config file may have left blank.
// pool.workers is not touched: registerDefaults covers an absent key and an
// explicit 0 must fail Validate.
func (m *Manager) applyDefaults() {
	if m.config == nil {
		return
	}
	d := DefaultConfig()

	if m.config.Defaults.Timeout == 0 {
		m.config.Defaults.Timeout = d.Defaults.Timeout
	}
	if m.config.Defaults.OutputFormat == "" {
		m.config.Defaults.OutputFormat = d.Defaults.OutputFormat
	}
	if m.config.Defaults.LogFormat == "" {
		m.config.Defaults.LogFormat = d.Defaults.LogFormat
	}
	if m.config.Pool.EnqueuePolicy == "" {
		m.config.Pool.EnqueuePolicy = d.Pool.EnqueuePolicy
	}
	if m.config.Pool.ShutdownMode == "" {
		m.config.Pool.ShutdownMode = d.Pool.ShutdownMode
	}
	if m.config.Retry.MaxAttempts == 0 {
		m.config.Retry.MaxAttempts = d.Retry.MaxAttempts
	}
	if m.config.Metrics.Namespace == "" {
		m.config.Metrics.Namespace = d.Metrics.Namespace
	}
}

// Validate checks values that can be checked without building a pool
func (c *Config) Validate() error {
	var errs util.MultiError

	switch c.Defaults.OutputFormat {
	case "table", "json", "yaml":
	default:
		errs.Add(util.NewValidationError("defaults.outputFormat", c.Defaults.OutputFormat, "must be table, json or yaml"))
	}
	switch c.Defaults.LogFormat {
	case "text", "json":
	default:
		errs.Add(util.NewValidationError("defaults.logFormat", c.Defaults.LogFormat, "must be text or json"))
	}
	if _, err := types.ParseEnqueuePolicy(c.Pool.EnqueuePolicy); err != nil {
		errs.Add(util.NewValidationError("pool.enqueuePolicy", c.Pool.EnqueuePolicy, err.Error()))
	}
	if _, err := types.ParseShutdownMode(c.Pool.ShutdownMode); err != nil {
		errs.Add(util.NewValidationError("pool.shutdownMode", c.Pool.ShutdownMode, err.Error()))
	}
	if c.Pool.Workers <= 0 {
		errs.Add(util.NewValidationError("pool.workers", c.Pool.Workers, "must be positive"))
	}
	if c.Pool.QueueCapacity < 0 {
		errs.Add(util.NewValidationError("pool.queueCapacity", c.Pool.QueueCapacity, "must not be negative"))
	}
	if c.Retry.MaxAttempts < 0 {
		errs.Add(util.NewValidationError("retry.maxAttempts", c.Retry.MaxAttempts, "must not be negative"))
	}

	return errs.ErrorOrNil()
}

// RetryPolicy builds the retry policy, or nil when retries are disabled
func (c *Config) RetryPolicy() retry.RetryPolicy {
	if c.Retry.MaxAttempts <= 1 {
		return nil
	}
	opts := []retry.Option{retry.WithJitter(retry.EqualJitter)}
	if c.Retry.Multiplier >= 1 {
		opts = append(opts, retry.WithMultiplier(c.Retry.Multiplier))
	}
	if c.Retry.MaxDelay > 0 {
		opts = append(opts, retry.WithMaxDelay(c.Retry.MaxDelay))
	}
	return retry.NewExponentialBackoffRetry(c.Retry.MaxAttempts, c.Retry.InitialDelay, opts...)
}

// WorkerPoolConfig converts the file settings into a worker.PoolConfig.
// Logger, Metrics and ErrorHandler are left for the caller.
func (c *Config) WorkerPoolConfig() (*worker.PoolConfig, error) {
	policy, err := types.ParseEnqueuePolicy(c.Pool.EnqueuePolicy)
	if err != nil {
		return nil, err
	}
	mode, err := types.ParseShutdownMode(c.Pool.ShutdownMode)
	if err != nil {
		return nil, err
	}

	pc := worker.DefaultPoolConfig()
	pc.Workers = c.Pool.Workers
	pc.QueueCapacity = c.Pool.QueueCapacity
	pc.EnqueuePolicy = policy
	pc.ShutdownMode = mode
	pc.MaxInFlight = c.Pool.MaxInFlight
	pc.BatchSize = c.Pool.BatchSize
	pc.RateLimit = c.Pool.RateLimit
	pc.RateBurst = c.Pool.RateBurst
	pc.TaskTimeout = c.Pool.TaskTimeout
	pc.Retry = c.RetryPolicy()

	if err := pc.Validate(); err != nil {
		return nil, err
	}
	return pc, nil
}
