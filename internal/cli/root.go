// Package cli implements the unixman command line interface.
//
// The root command doubles as `unixman serve` so that MCP client configs
// can point at the bare binary. Everything else is a subcommand: one-shot
// documentation lookups (doc, check, list), the interactive TUI (browse),
// cheatsheet library management (library), and build metadata (version).
//
// Commands print their results to stdout; diagnostics go through the
// logging package to the log file and stderr. Lookup outcomes such as
// "command not found" are answers, not failures: they are printed and the
// process exits zero. Only operational errors (unreadable config, broken
// storage) make a command fail.
package cli

import (
	"fmt"
	"os"

	"unixman/internal/config"
	"unixman/internal/logging"
	"unixman/internal/manual"

	"github.com/spf13/cobra"
)

// Build metadata, overridden through ldflags by the release build.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

// SetVersionInfo installs build metadata from the main package.
func SetVersionInfo(v, commit, built string) {
	if v != "" {
		version = v
	}
	if commit != "" {
		gitCommit = commit
	}
	if built != "" {
		buildTime = built
	}
}

// Execute runs the CLI and returns a process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCmd assembles the unixman command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "unixman",
		Short: "Unix command documentation over MCP",
		Long: `unixman serves Unix command documentation (man pages, --help output,
version info) to AI clients over the Model Context Protocol, and offers
the same lookups directly from the command line.

Run without arguments it starts the MCP stdio server, so an MCP client
configuration can simply point at the binary.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "config file (default $XDG_CONFIG_HOME/unixman/config.yaml)")

	root.AddCommand(
		newServeCmd(),
		newDocCmd(),
		newCheckCmd(),
		newListCmd(),
		newBrowseCmd(),
		newLibraryCmd(),
		newVersionCmd(),
	)
	return root
}

// activeConfig loads the configuration the command should run with,
// honoring the --config flag over the standard lookup.
func activeConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, err := cmd.Flags().GetString("config"); err == nil && path != "" {
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return nil, fmt.Errorf("cannot load config %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.Load()
}

// newEngine builds the documentation engine from configuration.
func newEngine(cfg *config.Config, logger *logging.AppLogger) *manual.Engine {
	return manual.NewEngine(manual.Options{
		Shell:          cfg.Shell,
		HelpTimeout:    cfg.HelpTimeout.Std(),
		ManTimeout:     cfg.ManTimeout.Std(),
		ResolveTimeout: cfg.ResolveTimeout.Std(),
	}, logger)
}
