package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

func newGhostsCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ghosts",
		Short: "List the ghost armies that can be challenged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := root.loadCatalog()
			if err != nil {
				return err
			}
			ghosts := cat.Ghosts()
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), ghosts)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tSEED\tUNITS\tDECK")
			for _, g := range ghosts {
				counts := g.UnitCounts()
				units := make([]string, 0, len(counts))
				for _, id := range slices.Sorted(maps.Keys(counts)) {
					units = append(units, fmt.Sprintf("%s=%d", id, counts[id]))
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d cards\n", g.ID, g.Name, g.Seed, strings.Join(units, ","), len(g.Deck))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the ghosts as JSON")
	return cmd
}
