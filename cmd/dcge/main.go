// Command dcge turns structured intents into validated source code.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/dcge/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	root := cli.NewRootCommand()
	root.Version = version

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
