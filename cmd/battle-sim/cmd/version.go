package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MJE43/rune-ration-replay-go/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the engine version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "battle-sim %s\n", version.Get())
		},
	}
}
