package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jzx17/taskexec/pkg/retry"
	"github.com/jzx17/taskexec/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".taskexec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestManager_Load(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantWorkers int
		wantCap     int
		wantPolicy  string
		wantTimeout time.Duration
		wantFormat  string
	}{
		{
			name: "full config",
			content: `
defaults:
  timeout: 45s
  outputFormat: json
pool:
  workers: 8
  queueCapacity: 16
  enqueuePolicy: reject
  shutdownMode: immediate
  taskTimeout: 2s
retry:
  maxAttempts: 3
`,
			wantWorkers: 8,
			wantCap:     16,
			wantPolicy:  "reject",
			wantTimeout: 45 * time.Second,
			wantFormat:  "json",
		},
		{
			name: "minimal config gets defaults",
			content: `
pool:
  queueCapacity: 4
`,
			wantWorkers: 4,
			wantCap:     4,
			wantPolicy:  "block",
			wantTimeout: 30 * time.Second,
			wantFormat:  "table",
		},
		{
			name:        "empty file",
			content:     "",
			wantWorkers: 4,
			wantPolicy:  "block",
			wantTimeout: 30 * time.Second,
			wantFormat:  "table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager(writeConfig(t, tt.content))
			cfg, err := manager.Load()
			require.NoError(t, err)

			assert.Equal(t, tt.wantWorkers, cfg.Pool.Workers)
			assert.Equal(t, tt.wantCap, cfg.Pool.QueueCapacity)
			assert.Equal(t, tt.wantPolicy, cfg.Pool.EnqueuePolicy)
			assert.Equal(t, tt.wantTimeout, cfg.Defaults.Timeout)
			assert.Equal(t, tt.wantFormat, cfg.Defaults.OutputFormat)
			assert.Same(t, cfg, manager.GetConfig())
		})
	}
}

func TestManager_LoadMissingFile(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "missing.yaml"))
	cfg, err := manager.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestManager_LoadEnvOverride(t *testing.T) {
	t.Setenv("TASKEXEC_POOL_WORKERS", "9")
	t.Setenv("TASKEXEC_DEFAULTS_TIMEOUT", "5s")

	manager := NewManager(writeConfig(t, "pool:\n  workers: 2\n"))
	cfg, err := manager.Load()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Pool.Workers)
	assert.Equal(t, 5*time.Second, cfg.Defaults.Timeout)
}

func TestManager_LoadRejectsExplicitZeroWorkers(t *testing.T) {
	t.Setenv("TASKEXEC_POOL_WORKERS", "0")

	_, err := NewManager(writeConfig(t, "")).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "pool.workers")
}

func TestManager_LoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		invalid bool
	}{
		{"malformed yaml", "pool: [workers", false},
		{"unknown policy", "pool:\n  enqueuePolicy: drop\n", true},
		{"negative workers", "pool:\n  workers: -2\n", true},
		{"zero workers", "pool:\n  workers: 0\n", true},
		{"bad output format", "defaults:\n  outputFormat: xml\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(writeConfig(t, tt.content)).Load()
			require.Error(t, err)
			if tt.invalid {
				assert.ErrorIs(t, err, types.ErrInvalidConfig)
			}
		})
	}
}

func TestConfig_WorkerPoolConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pool.Workers = 3
	cfg.Pool.QueueCapacity = 10
	cfg.Pool.EnqueuePolicy = "reject"
	cfg.Pool.ShutdownMode = "immediate"
	cfg.Pool.BatchSize = 2

	pc, err := cfg.WorkerPoolConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, pc.Workers)
	assert.Equal(t, 10, pc.QueueCapacity)
	assert.Equal(t, types.EnqueueReject, pc.EnqueuePolicy)
	assert.Equal(t, types.ShutdownImmediate, pc.ShutdownMode)
	assert.Equal(t, 2, pc.BatchSize)
	assert.Nil(t, pc.Retry)
	assert.NotNil(t, pc.Clock)

	cfg.Pool.RateLimit = -1
	_, err = cfg.WorkerPoolConfig()
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestConfig_RetryPolicy(t *testing.T) {
	cfg := DefaultConfig()
	assert.Nil(t, cfg.RetryPolicy(), "a single attempt means no retries")

	cfg.Retry.MaxAttempts = 4
	policy := cfg.RetryPolicy()
	require.NotNil(t, policy)
	assert.Equal(t, 4, policy.MaxAttempts())
	assert.IsType(t, &retry.ExponentialBackoffRetry{}, policy)
	assert.LessOrEqual(t, policy.NextDelay(10), cfg.Retry.MaxDelay)
}
