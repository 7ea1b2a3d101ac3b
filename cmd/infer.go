package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/cottand/qualinfer/frontend/typefactory"
	"github.com/cottand/qualinfer/qualinfer"
	"github.com/spf13/cobra"
)

var InferCmd = &cobra.Command{
	Use:          "infer ./folder|file.yaml",
	Short:        "Generate the qualifier constraints of a program",
	RunE:         runInfer,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	inferFlags runFlags
	outPath    string
	dump       bool
)

func init() {
	inferFlags.register(InferCmd)
	InferCmd.Flags().StringVarP(&outPath, "out", "o", "", "where to write the problem; stdout when empty")
	InferCmd.Flags().BoolVar(&dump, "dump", false, "write a debugging dump of slots and constraints instead of YAML")
}

func runInfer(cmd *cobra.Command, args []string) error {
	cfg, err := inferFlags.config(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("out") {
		cfg.Output = outPath
	}
	s, err := settings(cfg, typefactory.Inference)
	if err != nil {
		return err
	}
	prog, err := loadTarget(args[0])
	if err != nil {
		return fmt.Errorf("could not load program: %w", err)
	}
	result, err := qualinfer.Run(cmd.Context(), prog, s)
	if err != nil {
		return fmt.Errorf("run aborted: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("could not create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if dump {
		result.Problem.Dump(w)
		return nil
	}
	if err := result.Problem.WriteYAML(w); err != nil {
		return fmt.Errorf("could not write problem: %w", err)
	}
	return nil
}
