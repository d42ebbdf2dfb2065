// Package cli wires the stressql command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "stressql",
	Short:   "Generate sustained query load against an analytic SQL engine",
	Version: version,
	Long: `stressql generates sustained, configurable query load against a remote
analytic SQL engine, measuring throughput and failure rate under bounded
concurrency. Workloads are described declaratively as weighted query
templates, or replayed from historical query logs.`,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help
		cmd.Help()
	},
}

// Execute runs the root command and reports whether it failed. Called by
// main.main().
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(runCmd)
}
