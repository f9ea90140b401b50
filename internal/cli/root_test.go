package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jzx17/taskexec/pkg/types"
	"github.com/jzx17/taskexec/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with an isolated config file
func execute(t *testing.T, configContent string, args ...string) (string, string, error) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "taskexec.yaml")
	if configContent != "" {
		require.NoError(t, os.WriteFile(path, []byte(configContent), 0644))
	}

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", path}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "taskexec", cmd.Use)

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "version")

	for _, flag := range []string{"config", "output", "verbose", "no-color", "log-format", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing persistent flag %q", flag)
	}
	assert.Equal(t, "o", cmd.PersistentFlags().Lookup("output").Shorthand)
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestRootCommandHelp(t *testing.T) {
	out, _, err := execute(t, "", "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "worker pool")
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "version")
}

func TestVersionCommand(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		out, _, err := execute(t, "", "version")
		require.NoError(t, err)
		assert.Contains(t, out, "taskexec")
		assert.Contains(t, out, version.Version)
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, "", "version", "-o", "json")
		require.NoError(t, err)

		var info version.Info
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.Equal(t, version.Get(), info)
	})

	t.Run("table", func(t *testing.T) {
		out, _, err := execute(t, "", "version", "-o", "table")
		require.NoError(t, err)
		assert.Contains(t, out, "Go Version")
	})

	t.Run("yaml", func(t *testing.T) {
		out, _, err := execute(t, "", "version", "-o", "yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "goVersion:")
	})
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	_, _, err := execute(t, "pool:\n  shutdownMode: later\n", "version")
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestSetupLogging(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		verbose bool
		want    string
	}{
		{name: "text", format: "text", verbose: true, want: "level=DEBUG"},
		{name: "json", format: "json", verbose: true, want: `"level":"DEBUG"`},
		{name: "quiet", format: "text", verbose: false, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			setupLogging(&buf, tt.verbose, tt.format)
			if tt.want == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestRootCommand_LogFormat(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantJSON bool
	}{
		{name: "default is text", args: []string{"-v", "version"}},
		{name: "no-color keeps text", args: []string{"-v", "--no-color", "version"}},
		{name: "json", args: []string{"-v", "--log-format", "json", "version"}, wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := execute(t, "", tt.args...)
			require.NoError(t, err)

			line := strings.SplitN(strings.TrimSpace(stderr), "\n", 2)[0]
			require.NotEmpty(t, line)
			assert.Equal(t, tt.wantJSON, json.Valid([]byte(line)), line)
		})
	}

	_, _, err := execute(t, "", "--log-format", "xml", "version")
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}
