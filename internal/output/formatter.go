package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jzx17/taskexec/pkg/result"
)

// Format represents the output format type
type Format string

const (
	// FormatTable outputs data as a borderless table
	FormatTable Format = "table"
	// FormatJSON outputs data in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user supplied format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Formatter defines the interface for output formatting
type Formatter interface {
	// Format outputs a single data item to the writer
	Format(w io.Writer, data any) error

	// FormatOutcomes outputs task outcomes followed by their summary
	FormatOutcomes(w io.Writer, outcomes []result.Outcome) error
}

// Option is a functional option for configuring formatters
type Option func(*Options)

// Options holds configuration for formatters
type Options struct {
	// NoColor disables color output
	NoColor bool

	// NoHeaders disables table headers
	NoHeaders bool

	// Wide adds value and error columns
	Wide bool
}

// WithNoColor disables color output
func WithNoColor(noColor bool) Option {
	return func(o *Options) {
		o.NoColor = noColor
	}
}

// WithNoHeaders disables table headers
func WithNoHeaders(noHeaders bool) Option {
	return func(o *Options) {
		o.NoHeaders = noHeaders
	}
}

// WithWide enables wide output
func WithWide(wide bool) Option {
	return func(o *Options) {
		o.Wide = wide
	}
}

// NewFormatter creates a new formatter based on the specified format
func NewFormatter(format Format, opts ...Option) Formatter {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	switch format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	default:
		return NewTableFormatter(options)
	}
}

// outcomeRecord is the structured form of an Outcome shared by JSON and YAML
type outcomeRecord struct {
	Task     string `json:"task" yaml:"task"`
	State    string `json:"state" yaml:"state"`
	Worker   int    `json:"worker" yaml:"worker"`
	Attempts int    `json:"attempts" yaml:"attempts"`
	Duration string `json:"duration" yaml:"duration"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

type summaryRecord struct {
	Total       int    `json:"total" yaml:"total"`
	Succeeded   int    `json:"succeeded" yaml:"succeeded"`
	Failed      int    `json:"failed" yaml:"failed"`
	Cancelled   int    `json:"cancelled" yaml:"cancelled"`
	AvgDuration string `json:"avgDuration" yaml:"avgDuration"`
	MaxDuration string `json:"maxDuration" yaml:"maxDuration"`
}

type report struct {
	Tasks   []outcomeRecord `json:"tasks" yaml:"tasks"`
	Summary summaryRecord   `json:"summary" yaml:"summary"`
}

func newReport(outcomes []result.Outcome) report {
	r := report{Tasks: make([]outcomeRecord, len(outcomes))}
	for i, o := range outcomes {
		rec := outcomeRecord{
			Task:     o.TaskID,
			State:    o.State.String(),
			Worker:   o.WorkerID,
			Attempts: o.Attempts,
			Duration: o.Duration.String(),
		}
		if o.Err != nil {
			rec.Error = o.Err.Error()
		} else {
			rec.Value = o.Value
		}
		r.Tasks[i] = rec
	}

	s := result.Summarize(outcomes)
	r.Summary = summaryRecord{
		Total:       s.Total,
		Succeeded:   s.Succeeded,
		Failed:      s.Failed,
		Cancelled:   s.Cancelled,
		AvgDuration: s.AvgDuration.String(),
		MaxDuration: s.MaxDuration.String(),
	}
	return r
}
