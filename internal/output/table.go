package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/jzx17/taskexec/pkg/result"
	"github.com/olekukonko/tablewriter"
)

// maxCellWidth truncates value and error cells in wide mode
const maxCellWidth = 50

// TableFormatter formats output as a borderless table
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{options: opts}
}

// Format outputs a single data item. Maps become KEY/VALUE tables.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	m, ok := data.(map[string]any)
	if !ok {
		_, err := fmt.Fprintln(w, data)
		return err
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := f.createTable(w)
	if !f.options.NoHeaders {
		table.SetHeader([]string{"KEY", "VALUE"})
	}
	for _, k := range keys {
		table.Append([]string{k, fmt.Sprintf("%v", m[k])})
	}
	table.Render()
	return nil
}

// FormatOutcomes outputs one row per outcome followed by a summary line
func (f *TableFormatter) FormatOutcomes(w io.Writer, outcomes []result.Outcome) error {
	if len(outcomes) == 0 {
		_, err := fmt.Fprintln(w, "No tasks")
		return err
	}

	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)

	headers := []string{"TASK", "STATE", "WORKER", "ATTEMPTS", "DURATION"}
	if f.options.Wide {
		headers = append(headers, "RESULT")
	}
	if !f.options.NoHeaders {
		if !colors.Disabled {
			for i, h := range headers {
				headers[i] = colors.Header(h)
			}
		}
		table.SetHeader(headers)
	}

	for _, o := range outcomes {
		table.Append(f.formatRow(o, colors))
	}
	table.Render()

	f.printSummary(w, outcomes, colors)
	return nil
}

func (f *TableFormatter) formatRow(o result.Outcome, colors *ColorScheme) []string {
	worker := "-"
	if o.WorkerID >= 0 {
		worker = strconv.Itoa(o.WorkerID)
	}

	row := []string{
		colors.TaskID("%s", o.TaskID),
		colors.StateColor(o.State)("%s", o.State),
		worker,
		strconv.Itoa(o.Attempts),
		colors.Duration("%s", o.Duration.Round(time.Microsecond)),
	}

	if f.options.Wide {
		cell := ""
		if o.Err != nil {
			cell = o.Err.Error()
		} else if o.Value != nil {
			cell = fmt.Sprintf("%v", o.Value)
		}
		if len(cell) > maxCellWidth {
			cell = cell[:maxCellWidth-3] + "..."
		}
		row = append(row, cell)
	}
	return row
}

// createTable creates a borderless, tab padded table
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

func (f *TableFormatter) printSummary(w io.Writer, outcomes []result.Outcome, colors *ColorScheme) {
	s := result.Summarize(outcomes)

	succeeded := colors.Success("%d succeeded", s.Succeeded)
	failed := fmt.Sprintf("%d failed", s.Failed)
	if s.Failed > 0 {
		failed = colors.Error("%s", failed)
	}
	cancelled := fmt.Sprintf("%d cancelled", s.Cancelled)
	if s.Cancelled > 0 {
		cancelled = colors.Warning("%s", cancelled)
	}
	durations := colors.Duration("avg=%s max=%s",
		s.AvgDuration.Round(time.Microsecond), s.MaxDuration.Round(time.Microsecond))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d tasks, %s, %s, %s, %s\n", s.Total, succeeded, failed, cancelled, durations)
}
