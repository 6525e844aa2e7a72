package cli

import (
	"fmt"
	"strings"

	"unixman/internal/catalog"
	"unixman/internal/logging"
	"unixman/internal/manual"

	"github.com/spf13/cobra"
)

func newDocCmd() *cobra.Command {
	var manOnly bool
	var section int

	cmd := &cobra.Command{
		Use:   "doc <command> [subcommand]",
		Short: "Print documentation for a command",
		Long: `Looks up documentation for a command, trying the command's own --help
style output first and falling back to the man page. A second bare word
is probed as a subcommand, as in "unixman doc git commit".`,
		Example: `  unixman doc grep
  unixman doc git commit
  unixman doc --man --section 5 crontab`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := activeConfig(cmd)
			if err != nil {
				return err
			}

			engine := newEngine(cfg, logging.GetDefault())
			result, err := engine.Documentation(cmd.Context(), manual.DocRequest{
				Command:        strings.Join(args, " "),
				PreferEconomic: !manOnly,
				ManSection:     section,
			})
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), manual.ErrorMessage(err))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Message())
			return nil
		},
	}

	cmd.Flags().BoolVar(&manOnly, "man", false, "go straight to the man page, skipping the --help probes")
	cmd.Flags().IntVar(&section, "section", 0, "man section 1-9 (0 means no section)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <command>",
		Short: "Check whether a command exists",
		Long: `Resolves a command name through the login shell and reports whether it
exists, where it lives, and what its version probe printed.`,
		Example: `  unixman check rg
  unixman check not-a-real-cmd-123`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := activeConfig(cmd)
			if err != nil {
				return err
			}

			engine := newEngine(cfg, logging.GetDefault())
			result, err := engine.Check(cmd.Context(), args[0])
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), manual.ErrorMessage(err))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Message())
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the common commands installed on this system",
		Long: `Scans the configured binary directories and prints the well-known
commands found there, grouped by category.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := activeConfig(cmd)
			if err != nil {
				return err
			}

			lister := catalog.NewLister(cfg.CommandDirs, logging.GetDefault())
			fmt.Fprintln(cmd.OutOrStdout(), lister.Report())
			return nil
		},
	}
}
