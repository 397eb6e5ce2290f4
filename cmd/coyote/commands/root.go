package commands

import (
	"github.com/spf13/cobra"
)

var (
	// configPath is the path to a YAML/JSON/TOML config file. When set,
	// the config is read from this file alone and the other flags are
	// not applied.
	configPath string

	// strategyName selects the exploration strategy for a run.
	strategyName string

	// strategyBound is the strategy-specific tuning knob (percentage for
	// probabilistic, priority-change points for prioritization).
	strategyBound int

	// iterations is the number of schedule explorations to run.
	iterations int

	// seed pins the exploration strategy's PRNG, 0 meaning "derive one".
	seed int64

	// maxSteps bounds the unfair portion of a single iteration.
	maxSteps int

	// outputFormat controls how a run's results are printed: text, json.
	outputFormat string

	// logDir is the directory file logging is written to, empty
	// disabling it (console-only).
	logDir string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "coyote",
	Short: "Deterministic controlled concurrency testing",
	Long: `coyote runs a concurrent program's actors under a controlled
scheduler, replaying the exact interleaving and nondeterministic choices
of any bug it finds so the failure can be reproduced on demand.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

// Execute runs the CLI.
func Execute() error {
	defer closeLogging()

	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", "",
		"Path to a config file (yaml, json, toml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&strategyName, "strategy", "random",
		"Exploration strategy: random, probabilistic, prioritization, fair-prioritization, replay",
	)
	rootCmd.PersistentFlags().IntVar(
		&strategyBound, "strategy-bound", 10,
		"Strategy-specific bound (probability percent or priority-change points)",
	)
	rootCmd.PersistentFlags().IntVar(
		&iterations, "iterations", 1,
		"Number of schedule explorations to run",
	)
	rootCmd.PersistentFlags().Int64Var(
		&seed, "seed", 0,
		"Exploration strategy PRNG seed (0 derives one from the iteration)",
	)
	rootCmd.PersistentFlags().IntVar(
		&maxSteps, "max-steps", 10000,
		"Maximum scheduling steps per iteration",
	)
	rootCmd.PersistentFlags().StringVar(
		&outputFormat, "format", "text",
		"Output format: text, json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logDir, "log-dir", "",
		"Directory for rotating log files (empty disables file logging)",
	)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(versionCmd)
}
