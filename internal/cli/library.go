package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"unixman/internal/config"
	"unixman/internal/library"
	"unixman/internal/logging"
	"unixman/internal/manual"
	"unixman/internal/repository"
	"unixman/internal/validation"

	"github.com/spf13/cobra"
)

func newLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the local cheatsheet library",
		Long: `The cheatsheet library holds markdown notes about commands, stored
locally and optionally synced from GitHub repositories. Sheets are
served through the get-command-cheatsheet MCP tool and browsable in
the terminal UI.`,
	}

	cmd.AddCommand(
		newLibraryListCmd(),
		newLibraryShowCmd(),
		newLibraryImportCmd(),
		newLibraryEditCmd(),
		newLibrarySyncCmd(),
		newAuthCmd(),
	)
	return cmd
}

func newLibraryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored cheatsheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := activeConfig(cmd)
			if err != nil {
				return err
			}

			mgr := library.NewManager(cfg.Library.StorageDir, logging.GetDefault())
			sheets, err := mgr.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sheets) == 0 {
				fmt.Fprintf(out, "No cheatsheets in %s.\n", mgr.StorageDir())
				fmt.Fprintln(out, "Add one with 'unixman library import <file.md>'.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COMMAND\tDESCRIPTION\tTAGS")
			for _, sheet := range sheets {
				fmt.Fprintf(w, "%s\t%s\t%s\n", sheet.Command, sheet.Description, strings.Join(sheet.Tags, ", "))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "\n%d cheatsheet(s) in %s\n", len(sheets), mgr.StorageDir())
			return nil
		},
	}
}

func newLibraryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <command>",
		Short: "Print a cheatsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := activeConfig(cmd)
			if err != nil {
				return err
			}

			name, err := validation.CommandName(args[0])
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), manual.ErrorMessage(err))
				return nil
			}

			mgr := library.NewManager(cfg.Library.StorageDir, logging.GetDefault())
			sheet, err := mgr.Lookup(name)
			if err != nil {
				var notFound *library.NotFoundError
				if errors.As(err, &notFound) {
					fmt.Fprintln(cmd.OutOrStdout(), notFound.Message())
					return nil
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(sheet.Content))
			return nil
		},
	}
}

func newLibraryImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.md>",
		Short: "Import a cheatsheet file into the library",
		Long: `Copies a markdown file into the cheatsheet store. The file must carry
YAML frontmatter with at least a "command" field.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := activeConfig(cmd)
			if err != nil {
				return err
			}

			mgr := library.NewManager(cfg.Library.StorageDir, logging.GetDefault())
			sheet, err := mgr.Import(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported cheatsheet for '%s' as %s\n", sheet.Command, sheet.FileName)
			return nil
		},
	}
}

func newLibraryEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <command>",
		Short: "Open a cheatsheet in your editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := activeConfig(cmd)
			if err != nil {
				return err
			}

			name, err := validation.CommandName(args[0])
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), manual.ErrorMessage(err))
				return nil
			}

			mgr := library.NewManager(cfg.Library.StorageDir, logging.GetDefault())
			if err := mgr.Edit(name); err != nil {
				var notFound *library.NotFoundError
				if errors.As(err, &notFound) {
					fmt.Fprintln(cmd.OutOrStdout(), notFound.Message())
					return nil
				}
				return err
			}
			return nil
		},
	}
}

func newLibrarySyncCmd() *cobra.Command {
	var repoName string
	var branch string

	cmd := &cobra.Command{
		Use:   "sync [github-url]",
		Short: "Sync cheatsheet repositories",
		Long: `Without arguments, fetches updates for every configured cheatsheet
repository. With a GitHub URL, clones that repository into the
cheatsheet store and registers it for future syncs; if the URL is
already registered, only that repository is updated.

Private repositories need a GitHub token, stored with
'unixman library auth set'. Repositories with uncommitted local
changes are skipped, never overwritten.`,
		Example: `  unixman library sync
  unixman library sync https://github.com/owner/cheatsheets
  unixman library sync git@github.com:owner/cheatsheets.git --branch main`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetDefault()

			cfg, err := activeConfig(cmd)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return syncOneURL(cmd, cfg, args[0], repoName, branch, logger)
			}
			return syncConfigured(cmd, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&repoName, "name", "", "display name for a newly registered repository (default: the repository name)")
	cmd.Flags().StringVar(&branch, "branch", "", "branch to track (default: the remote's default branch)")
	return cmd
}

// syncOneURL updates the repository registered for url, registering and
// cloning it first when it is new.
func syncOneURL(cmd *cobra.Command, cfg *config.Config, url, name, branch string, logger *logging.AppLogger) error {
	if entry, ok := findByRemoteURL(cfg, url); ok {
		return reportSyncResults(cmd, cfg, repository.SyncAll([]repository.RepositoryEntry{*entry}, logger))
	}

	entry, err := registerRepository(cfg, url, name, branch, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Registered '%s' and cloned into %s\n", entry.Name, entry.Path)
	return nil
}

// syncConfigured updates every configured repository.
func syncConfigured(cmd *cobra.Command, cfg *config.Config, logger *logging.AppLogger) error {
	repos := cfg.Library.Repositories
	if len(repos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No repositories configured. Register one with 'unixman library sync <github-url>'.")
		return nil
	}

	return reportSyncResults(cmd, cfg, repository.SyncAll(repos, logger))
}

// findByRemoteURL matches url against the configured repositories,
// tolerating SSH/HTTPS and .git suffix differences.
func findByRemoteURL(cfg *config.Config, url string) (*repository.RepositoryEntry, bool) {
	want := repository.NormalizeGitURL(url)
	for i := range cfg.Library.Repositories {
		entry := &cfg.Library.Repositories[i]
		if entry.IsRemote() && repository.NormalizeGitURL(entry.GetRemoteURL()) == want {
			return entry, true
		}
	}
	return nil, false
}

// registerRepository clones url under the cheatsheet store and persists
// the new entry. Nothing is written to the config when the clone fails.
func registerRepository(cfg *config.Config, url, name, branch string, logger *logging.AppLogger) (*repository.RepositoryEntry, error) {
	info, err := repository.ParseGitURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid repository URL: %w", err)
	}
	if name == "" {
		name = info.Repo
	}

	clonePath, err := repository.DeriveClonePath(cfg.Library.StorageDir, url)
	if err != nil {
		return nil, err
	}

	entry, err := repository.NewRepositoryEntry(name, url, branch, clonePath)
	if err != nil {
		return nil, err
	}

	source := repository.NewGitSource(entry.GetRemoteURL(), entry.Branch, entry.Path)
	if _, err := source.Prepare(logger); err != nil {
		return nil, err
	}

	if err := cfg.AddRepository(entry); err != nil {
		return nil, err
	}
	cfg.RecordSyncTime(entry.ID, time.Now())
	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("repository cloned but config not saved: %w", err)
	}

	return &entry, nil
}

// reportSyncResults prints one line per repository, stamps the sync time
// of the successful ones, and fails when any repository failed.
func reportSyncResults(cmd *cobra.Command, cfg *config.Config, results []repository.SyncResult) error {
	out := cmd.OutOrStdout()
	now := time.Now()

	var failed int
	var synced int
	for _, result := range results {
		fmt.Fprintf(out, "%s: %s\n", result.RepositoryName, result.Message())
		switch result.Status {
		case repository.SyncStatusSuccess:
			synced++
			cfg.RecordSyncTime(result.RepositoryID, now)
		case repository.SyncStatusFailed:
			failed++
		}
	}

	if synced > 0 {
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("sync finished but config not saved: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d repositories failed to sync", failed, len(results))
	}
	return nil
}
