package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	coyote "github.com/pipeline-foundation/coyote-sub000/internal/coyote"
	"github.com/spf13/cobra"
)

// exitCode is set by run/replay's RunE before returning so main can give
// the process a distinct exit status for "bug found" versus "usage or
// internal error" without cobra's own error-printing path conflating them.
var exitCode int

// ExitCode returns the status main.go should exit with after Execute.
func ExitCode() int {
	return exitCode
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the built-in scenario under the controlled scheduler",
	Long: `run explores the built-in ping-pong actor scenario across the
configured number of iterations, reporting the first bug found (or every
bug, with --iterations and no early exit) along with the trace needed to
replay it.`,
	RunE: runRun,
}

func buildConfig() (coyote.Config, error) {
	if configPath != "" {
		return coyote.LoadConfig(configPath)
	}

	return coyote.NewConfig(
		coyote.WithTestingIterations(iterations),
		coyote.WithRandomSeed(seed),
		coyote.WithStrategy(strategyName, strategyBound),
		coyote.WithMaxSchedulingSteps(maxSteps, 0),
		coyote.WithDeadlockTimeout(deadlockTimeoutFlag),
	), nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		exitCode = 2
		return err
	}

	rt, err := coyote.NewRuntime(cfg)
	if err != nil {
		exitCode = 2
		return err
	}

	results := rt.RunTest(pingPongTest)

	printResults(results)

	for _, r := range results {
		if len(r.Bugs) > 0 {
			if path := traceOutputPath(r.Iteration); path != "" {
				if err := r.Trace.Save(path); err != nil {
					fmt.Fprintf(os.Stderr, "coyote: saving trace: %v\n", err)
				}
			}

			exitCode = 1
			return nil
		}
	}

	exitCode = 0

	return nil
}

// traceOutputPath names the file a failing iteration's trace is saved to,
// a relative path and so in the current working directory.
func traceOutputPath(iteration int) string {
	return fmt.Sprintf("coyote-trace-%d.txt", iteration)
}

func printResults(results []coyote.IterationResult) {
	if outputFormat == "json" {
		printResultsJSON(results)
		return
	}

	for _, r := range results {
		fmt.Printf("iteration %d: steps=%d bugs=%d\n", r.Iteration, r.StepCount, len(r.Bugs))

		for _, b := range r.Bugs {
			fmt.Printf("  %s\n", b.Error())
		}
	}
}

type jsonIterationResult struct {
	Iteration int      `json:"iteration"`
	StepCount int      `json:"stepCount"`
	Bugs      []string `json:"bugs,omitempty"`
}

func printResultsJSON(results []coyote.IterationResult) {
	out := make([]jsonIterationResult, 0, len(results))

	for _, r := range results {
		jr := jsonIterationResult{Iteration: r.Iteration, StepCount: r.StepCount}

		for _, b := range r.Bugs {
			jr.Bugs = append(jr.Bugs, b.Error())
		}

		out = append(out, jr)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "coyote: encoding results: %v\n", err)
	}
}

func init() {
	runCmd.Flags().DurationVar(&deadlockTimeoutFlag, "deadlock-timeout", 5*time.Second,
		"Wall-clock watchdog before a stuck iteration is treated as a potential deadlock")
}

var deadlockTimeoutFlag time.Duration
