// Command exgen generates worked exercises from parameterized templates.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/exgen/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "exgen:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
