package cli

import (
	"fmt"

	"unixman/internal/logging"
	"unixman/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse commands and cheatsheets interactively",
		Long: `Opens the full-screen terminal UI: a filterable browser over the
installed commands with live documentation previews, the cheatsheet
library, and repository sync.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetDefault()

			cfg, err := activeConfig(cmd)
			if err != nil {
				return err
			}

			model := tui.NewMainModel(cfg, logger)
			program := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("terminal UI failed: %w", err)
			}
			return nil
		},
	}
}
