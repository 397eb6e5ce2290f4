package commands

import (
	"fmt"

	coyote "github.com/pipeline-foundation/coyote-sub000/internal/coyote"
	"github.com/spf13/cobra"
)

var replayTracePath string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a previously saved trace",
	Long: `replay re-runs the built-in scenario forcing every scheduling
decision and nondeterministic choice to follow a trace file saved by a
prior failing run, reproducing the same bug deterministically.`,
	RunE: runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	if replayTracePath == "" {
		exitCode = 2
		return fmt.Errorf("coyote: replay requires --trace")
	}

	cfg := coyote.NewConfig(
		coyote.WithStrategy("replay", 0),
		coyote.WithReplayTracePath(replayTracePath),
		coyote.WithTestingIterations(1),
	)

	rt, err := coyote.NewRuntime(cfg)
	if err != nil {
		exitCode = 2
		return err
	}

	results := rt.RunTest(pingPongTest)
	printResults(results)

	for _, r := range results {
		if len(r.Bugs) > 0 {
			exitCode = 1
			return nil
		}
	}

	exitCode = 0

	return nil
}

func init() {
	replayCmd.Flags().StringVar(&replayTracePath, "trace", "", "Path to a trace file saved by run")
}
