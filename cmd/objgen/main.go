// Command objgen compiles object-generation graphs for CUE models and
// enumerates query satisfiers in partial worlds.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/objgen/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "objgen:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
