// unixman is an MCP server for Unix command documentation.
//
// It exposes man pages, --help output, version probes, and local markdown
// cheatsheets to AI clients over the Model Context Protocol, with a
// companion CLI and terminal UI for the same lookups.
package main

import (
	"os"

	"unixman/internal/cli"
)

// Build information (set via ldflags during release builds)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

func main() {
	cli.SetVersionInfo(version, gitCommit, buildTime)
	os.Exit(cli.Execute())
}
