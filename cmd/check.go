package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/cottand/qualinfer/frontend/qerr"
	"github.com/cottand/qualinfer/frontend/typefactory"
	"github.com/cottand/qualinfer/qualinfer"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:          "check ./folder|file.yaml",
	Short:        "Check the qualifiers of a program",
	RunE:         runCheck,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var checkFlags runFlags

func init() {
	checkFlags.register(CheckCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := checkFlags.config(cmd)
	if err != nil {
		return err
	}
	s, err := settings(cfg, typefactory.Checking)
	if err != nil {
		return err
	}
	prog, err := loadTarget(args[0])
	if err != nil {
		return fmt.Errorf("could not load program: %w", err)
	}
	result, err := qualinfer.Run(cmd.Context(), prog, s)
	if err != nil {
		return fmt.Errorf("run aborted (this is a bug in the input or the tool, not a qualifier error): %w", err)
	}

	diags := result.Diagnostics.Errors()
	printDiagnostics(cmd.OutOrStdout(), diags, colorful(cmd.OutOrStdout()))
	if len(diags) > 0 {
		return fmt.Errorf("%d qualifier errors found", len(diags))
	}
	return nil
}

const (
	red   = "\x1b[31m"
	reset = "\x1b[0m"
)

// colorful reports whether w is a terminal
func colorful(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func printDiagnostics(w io.Writer, diags []qerr.Diagnostic, color bool) {
	for _, d := range diags {
		line := qerr.FormatWithPosition(d) + " [" + d.Key() + "]"
		if color {
			line = red + line + reset
		}
		_, _ = fmt.Fprintln(w, line)
	}
}
