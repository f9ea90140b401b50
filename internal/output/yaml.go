package output

import (
	"io"

	"github.com/jzx17/taskexec/pkg/result"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	options *Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(opts *Options) *YAMLFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &YAMLFormatter{options: opts}
}

// Format outputs a single data item as YAML
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(data)
}

// FormatOutcomes outputs outcomes and their summary as one YAML document
func (f *YAMLFormatter) FormatOutcomes(w io.Writer, outcomes []result.Outcome) error {
	return f.Format(w, newReport(outcomes))
}
