package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "unixman %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", gitCommit)
			fmt.Fprintf(out, "  built:  %s\n", buildTime)
		},
	}
}
