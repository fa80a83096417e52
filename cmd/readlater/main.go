// Command readlater manages the local read-it-later store.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/readlater/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
