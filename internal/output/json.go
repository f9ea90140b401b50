package output

import (
	"encoding/json"
	"io"

	"github.com/jzx17/taskexec/pkg/result"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	options *Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(opts *Options) *JSONFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &JSONFormatter{options: opts}
}

// Format outputs a single data item as JSON
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FormatOutcomes outputs outcomes and their summary as one JSON document
func (f *JSONFormatter) FormatOutcomes(w io.Writer, outcomes []result.Outcome) error {
	return f.Format(w, newReport(outcomes))
}
