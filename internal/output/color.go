package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jzx17/taskexec/pkg/result"
	"github.com/mattn/go-isatty"
)

// ColorScheme provides color functions for different output elements
type ColorScheme struct {
	TaskID   func(format string, a ...any) string
	Success  func(format string, a ...any) string
	Error    func(format string, a ...any) string
	Warning  func(format string, a ...any) string
	Header   func(format string, a ...any) string
	Duration func(format string, a ...any) string

	// Disabled indicates if colors are disabled
	Disabled bool
}

// NewColorScheme creates a new color scheme.
// Colors are disabled for non-TTY outputs or when noColor is true.
func NewColorScheme(w io.Writer, noColor bool) *ColorScheme {
	if noColor || !isTTY(w) {
		plain := fmt.Sprintf
		return &ColorScheme{
			TaskID:   plain,
			Success:  plain,
			Error:    plain,
			Warning:  plain,
			Header:   plain,
			Duration: plain,
			Disabled: true,
		}
	}

	return &ColorScheme{
		TaskID:   color.New(color.FgCyan, color.Bold).Sprintf,
		Success:  color.New(color.FgGreen).Sprintf,
		Error:    color.New(color.FgRed, color.Bold).Sprintf,
		Warning:  color.New(color.FgYellow).Sprintf,
		Header:   color.New(color.FgWhite, color.Bold).Sprintf,
		Duration: color.New(color.FgBlue).Sprintf,
	}
}

func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// StateColor returns the color function for an outcome state
func (cs *ColorScheme) StateColor(s result.State) func(format string, a ...any) string {
	switch s {
	case result.StateSucceeded:
		return cs.Success
	case result.StateFailed:
		return cs.Error
	default:
		return cs.Warning
	}
}
