// Command dutchkbqa is the dataset creation pipeline entry point.
package main

import (
	"os"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	// Execute already reports the failure on stderr.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
