package cli

import (
	"fmt"

	"github.com/jzx17/taskexec/internal/output"
	"github.com/jzx17/taskexec/pkg/version"
	"github.com/spf13/cobra"
)

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display detailed version information for taskexec",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
	}
}

func runVersion(cmd *cobra.Command) error {
	info := version.Get()
	w := cmd.OutOrStdout()

	raw, _ := cmd.Flags().GetString("output")
	if raw == "" {
		_, err := fmt.Fprintln(w, info.String())
		return err
	}

	format, err := output.ParseFormat(raw)
	if err != nil {
		return err
	}
	noColor, _ := cmd.Flags().GetBool("no-color")
	formatter := output.NewFormatter(format, output.WithNoColor(noColor))

	if format == output.FormatTable {
		return formatter.Format(w, info.Map())
	}
	return formatter.Format(w, info)
}
