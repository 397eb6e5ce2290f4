package main

import (
	"fmt"
	"os"

	"github.com/pipeline-foundation/coyote-sub000/cmd/coyote/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(commands.ExitCode())
	}

	os.Exit(commands.ExitCode())
}
