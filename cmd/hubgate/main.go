package main

import (
	"fmt"
	"os"

	"github.com/hubgate/hubgate/internal/cmd"
)

// Version information set via ldflags during build.
// Example: go build -ldflags="-X main.version=1.0.0 -X main.commit=abc123 -X main.buildDate=2026-08-01"
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)

	err := cmd.Execute()
	if err != nil && !cmd.IsExitStatus(err) {
		fmt.Fprintln(os.Stderr, "hubgate:", err)
	}
	os.Exit(cmd.ExitCode(err))
}
