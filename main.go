//go:build !(js || wasm)

package main

import (
	"os"

	"github.com/cottand/qualinfer/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "qualinfer [subcommand]",
	Short:        "qualinfer\n checks and infers type qualifiers of annotated programs",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.CheckCmd)
	rootCmd.AddCommand(cmd.InferCmd)
}
