package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"unixman/internal/repository"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the GitHub token for private repositories",
		Long: `Cheatsheet repositories are cloned anonymously first; a GitHub
Personal Access Token from the system keychain is used only when
anonymous access is denied. The token needs the "repo" scope for
private repositories.`,
	}

	cmd.AddCommand(
		newAuthSetCmd(),
		newAuthStatusCmd(),
		newAuthClearCmd(),
	)
	return cmd
}

func newAuthSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Store a GitHub token in the system keychain",
		Long: `Reads a GitHub Personal Access Token from stdin and stores it in the
system keychain under the unixman service. The token never touches the
config file or the process argument list.`,
		Example: `  unixman library auth set < token.txt
  pass show github/pat | unixman library auth set`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), "Paste your GitHub Personal Access Token: ")

			token, err := readLine(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("cannot read token: %w", err)
			}

			creds := repository.NewCredentialManager()
			if err := creds.StoreGitHubToken(token); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "GitHub token stored in the system keychain.")
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show credential store status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := repository.NewCredentialManager().GetCredentialStoreStatus()
			out := cmd.OutOrStdout()

			if status.Available {
				fmt.Fprintln(out, "Credential store: available")
			} else {
				fmt.Fprintf(out, "Credential store: unavailable (%s)\n", status.Detail)
			}
			if status.TokenStored {
				fmt.Fprintln(out, "GitHub token: stored")
			} else {
				fmt.Fprintln(out, "GitHub token: not stored")
			}
			return nil
		},
	}
}

func newAuthClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored GitHub token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := repository.NewCredentialManager().DeleteGitHubToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "GitHub token removed from the system keychain.")
			return nil
		},
	}
}

// readLine reads a single line, tolerating a missing trailing newline.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
