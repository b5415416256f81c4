package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openbench/swe-eval-orchestrator/internal/runner"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "swe-eval",
		Short: "SWE-bench evaluation orchestrator",
		Long: `swe-eval launches SWE-bench evaluation runs against an external
evaluator, repeats them the configured number of times, records every run
in a local database, and filters GitHub issue searches so agents under
evaluation cannot look up the issue they are being graded on.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(runner.ExitCode(err))
	}
}
