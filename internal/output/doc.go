// Package output renders task outcomes for the taskexec CLI.
//
// Three formats are supported: a borderless table with a colored summary,
// indented JSON and YAML. Colors are enabled only when writing to a TTY and
// can be switched off with WithNoColor.
//
//	formatter := output.NewFormatter(output.FormatTable, output.WithWide(true))
//	formatter.FormatOutcomes(os.Stdout, outcomes)
package output
