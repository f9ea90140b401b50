package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jzx17/taskexec/internal/output"
	"github.com/jzx17/taskexec/internal/util"
	"github.com/jzx17/taskexec/pkg/result"
	"github.com/jzx17/taskexec/pkg/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// errSyntheticFailure is returned by workload tasks chosen to fail
var errSyntheticFailure = errors.New("synthetic task failure")

// workload describes the synthetic tasks submitted by `taskexec run`
type workload struct {
	tasks    int
	duration time.Duration
	failRate float64
	retries  int
	progress bool
	wide     bool
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	wl := &workload{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a synthetic workload through a worker pool",
		Long: `Submit --tasks synthetic tasks to a worker pool, shut it down with the
configured mode and print every task outcome followed by a summary.

Each task sleeps for --task-duration and fails with probability --fail-rate.
Interrupting the command or exceeding --timeout shuts the pool down immediately.`,
		Example: `  taskexec run --tasks 100 --workers 8
  taskexec run --tasks 50 --queue-capacity 5 --enqueue-policy reject -o json
  taskexec run --tasks 20 --fail-rate 0.3 --retries 2 --progress`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("retries") {
				opts.config.Retry.MaxAttempts = wl.retries + 1
			}
			return runWorkload(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, wl)
		},
	}

	f := cmd.Flags()
	f.IntVar(&wl.tasks, "tasks", 10, "number of tasks to submit")
	f.DurationVar(&wl.duration, "task-duration", 10*time.Millisecond, "how long each task sleeps")
	f.Float64Var(&wl.failRate, "fail-rate", 0, "probability in [0,1] that a task fails")
	f.IntVar(&wl.retries, "retries", 0, "retries per failed task")
	f.BoolVar(&wl.progress, "progress", false, "show a progress bar on stderr")
	f.BoolVar(&wl.wide, "wide", false, "include task values and errors in table output")

	f.Int("workers", 4, "number of workers")
	f.Int("queue-capacity", 0, "queue capacity (0 = unbounded)")
	f.String("enqueue-policy", "block", "behaviour on a full queue (block, reject)")
	f.String("shutdown-mode", "graceful", "how the pool stops (graceful, immediate)")
	f.Int("max-in-flight", 0, "maximum concurrently executing tasks (0 = workers)")
	f.Int("batch-size", 0, "tasks per worker between batch barriers (0 = no batching)")
	f.Float64("rate-limit", 0, "maximum task starts per second (0 = unlimited)")
	f.Duration("task-timeout", 0, "per-task execution timeout (0 = none)")
	f.Bool("metrics", false, "print Prometheus metrics after the run")

	return cmd
}

func (wl *workload) validate() error {
	var errs util.MultiError
	if wl.tasks < 0 {
		errs.Add(util.NewValidationError("tasks", wl.tasks, "must not be negative"))
	}
	if wl.duration < 0 {
		errs.Add(util.NewValidationError("task-duration", wl.duration, "must not be negative"))
	}
	if wl.failRate < 0 || wl.failRate > 1 {
		errs.Add(util.NewValidationError("fail-rate", wl.failRate, "must be within [0,1]"))
	}
	if wl.retries < 0 {
		errs.Add(util.NewValidationError("retries", wl.retries, "must not be negative"))
	}
	return errs.ErrorOrNil()
}

// task builds the TaskFunc for the i-th submission
func (wl *workload) task(i int) worker.TaskFunc {
	return func(ctx context.Context, scratch *worker.Scratch) (any, error) {
		if wl.duration > 0 {
			timer := time.NewTimer(wl.duration)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		runs, _ := scratch.Get("runs")
		n, _ := runs.(int)
		scratch.Set("runs", n+1)

		if wl.failRate > 0 && rand.Float64() < wl.failRate {
			return nil, fmt.Errorf("task %d: %w", i, errSyntheticFailure)
		}
		return fmt.Sprintf("item %d by worker %d (run %d)", i, scratch.WorkerID(), n+1), nil
	}
}

func runWorkload(ctx context.Context, stdout, stderr io.Writer, opts *rootOptions, wl *workload) error {
	if err := wl.validate(); err != nil {
		return err
	}
	cfg := opts.config
	logger := opts.logger

	format, err := output.ParseFormat(cfg.Defaults.OutputFormat)
	if err != nil {
		return err
	}

	poolCfg, err := cfg.WorkerPoolConfig()
	if err != nil {
		return err
	}
	poolCfg.Logger = logger

	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		poolCfg.Metrics = worker.NewMetrics(cfg.Metrics.Namespace, "pool", registry)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Defaults.Timeout)
	defer cancel()

	pool, err := worker.NewPool(poolCfg)
	if err != nil {
		return err
	}
	// a cancelled ctx (signal or --timeout) shuts the pool down immediately
	if err := pool.Start(ctx); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if wl.progress {
		bar = newProgressBar(stderr, wl.tasks)
	}

	accepted := make(chan *result.Future, wl.tasks)
	var tracked sync.WaitGroup
	if bar != nil {
		tracked.Add(1)
		go func() {
			defer tracked.Done()
			for f := range accepted {
				<-f.Done()
				_ = bar.Add(1)
			}
		}()
	}

	futures := make([]*result.Future, 0, wl.tasks)
	var rejected util.MultiError
	for i := 0; i < wl.tasks; i++ {
		f, err := pool.SubmitWithContext(ctx, wl.task(i))
		if err != nil {
			rejected.Add(err)
			if bar != nil {
				_ = bar.Add(1)
			}
			if ctx.Err() != nil {
				break
			}
			continue
		}
		futures = append(futures, f)
		if bar != nil {
			accepted <- f
		}
	}
	close(accepted)

	closeErr := pool.Close()
	tracked.Wait()
	if bar != nil {
		_ = bar.Finish()
	}
	if closeErr != nil {
		return closeErr
	}

	outcomes := collect(futures)
	formatter := output.NewFormatter(format,
		output.WithNoColor(cfg.Defaults.NoColor),
		output.WithWide(wl.wide))
	if err := formatter.FormatOutcomes(stdout, outcomes); err != nil {
		return err
	}

	if registry != nil {
		snapshot, err := metricSnapshot(registry)
		if err != nil {
			return err
		}
		if err := formatter.Format(stdout, snapshot); err != nil {
			return err
		}
	}

	if rejected.Len() > 0 {
		logger.Warn("tasks were not accepted",
			"rejected", rejected.Len(),
			"reason", util.FriendlyError(rejected.Errors[0]))
		logger.Debug("rejections", "errors", rejected.Error())
	}
	if failures := util.NewMultiError(result.Errors(outcomes)); failures.Len() > 0 {
		logger.Warn("tasks failed", "failed", failures.Len())
		logger.Debug("failures", "errors", failures.Error())
	}

	// the timeout firing is a command failure even though outcomes were reported
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ctx.Err()
	}
	return nil
}

// collect reads the outcome of every future once the pool has terminated
func collect(futures []*result.Future) []result.Outcome {
	outcomes := make([]result.Outcome, 0, len(futures))
	for _, f := range futures {
		o, ok := f.TryGet()
		if !ok {
			o = result.Outcome{TaskID: f.ID(), State: f.State(), WorkerID: -1}
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Running tasks"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// metricSnapshot flattens counters and gauges into name/value pairs.
// Histograms report their sample count.
func metricSnapshot(reg prometheus.Gatherer) (map[string]any, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	snapshot := make(map[string]any, len(families))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				snapshot[mf.GetName()] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				snapshot[mf.GetName()] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				snapshot[mf.GetName()+"_count"] = m.GetHistogram().GetSampleCount()
			}
		}
	}
	return snapshot, nil
}
