package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jzx17/taskexec/internal/config"
	"github.com/spf13/cobra"
)

// flagKeys binds command line flags to configuration keys. A flag only
// overrides the file and environment when it is set explicitly.
var flagKeys = map[string]string{
	"output":         "defaults.outputFormat",
	"no-color":       "defaults.noColor",
	"log-format":     "defaults.logFormat",
	"timeout":        "defaults.timeout",
	"workers":        "pool.workers",
	"queue-capacity": "pool.queueCapacity",
	"enqueue-policy": "pool.enqueuePolicy",
	"shutdown-mode":  "pool.shutdownMode",
	"max-in-flight":  "pool.maxInFlight",
	"batch-size":     "pool.batchSize",
	"rate-limit":     "pool.rateLimit",
	"task-timeout":   "pool.taskTimeout",
	"metrics":        "metrics.enabled",
}

// rootOptions is the state shared by every subcommand
type rootOptions struct {
	cfgFile string
	manager *config.Manager
	config  *config.Config
	logger  *slog.Logger
}

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "taskexec",
		Short: "taskexec - bounded concurrent task executor",
		Long: `taskexec drives a fixed-size worker pool fed by a bounded FIFO queue.
It runs synthetic workloads to exercise enqueue policies, shutdown modes,
admission limits, batching and retries, and reports every task outcome.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.taskexec.yaml)")
	flags.StringP("output", "o", "", "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output with debug logging")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-format", "text", "log format on stderr (text, json)")
	flags.Duration("timeout", 30*time.Second, "timeout for the whole command")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newRunCmd(opts))

	return rootCmd
}

// initConfig loads configuration and sets up logging
func (o *rootOptions) initConfig(cmd *cobra.Command) error {
	o.manager = config.NewManager(o.cfgFile)

	v := o.manager.Viper()
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag %q: %w", name, err)
			}
		}
	}

	cfg, err := o.manager.Load()
	if err != nil {
		return err
	}
	o.config = cfg

	verbose, _ := cmd.Flags().GetBool("verbose")
	o.logger = setupLogging(cmd.ErrOrStderr(), verbose, cfg.Defaults.LogFormat)
	if file := o.manager.ConfigFileUsed(); file != "" {
		o.logger.Debug("loaded configuration", "file", file)
	}
	return nil
}

// setupLogging installs a slog handler as the default logger. format is
// validated by the config layer; anything but "json" logs text.
func setupLogging(w io.Writer, verbose bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	logger.Debug("verbose logging enabled")
	return logger
}
