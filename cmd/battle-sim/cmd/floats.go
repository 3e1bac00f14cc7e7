package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MJE43/rune-ration-replay-go/internal/engine"
)

func newFloatsCmd() *cobra.Command {
	var (
		seed  string
		count int
	)

	cmd := &cobra.Command{
		Use:   "floats",
		Short: "Print the first draws of the battle RNG for a seed",
		Long: `Print the normalized seed and the first draws of the mulberry32 stream.

Useful for checking the engine against recorded traces.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed == "" {
				return fmt.Errorf("--seed is required")
			}
			if count <= 0 || count > 100_000 {
				return fmt.Errorf("--count must be between 1 and 100000")
			}
			normalized := engine.NormalizeSeed(engine.ParseSeed(seed))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seed %q -> %d\n", seed, normalized)
			for i, f := range engine.Floats(normalized, count) {
				fmt.Fprintf(out, "%d\t%s\n", i, strconv.FormatFloat(f, 'f', -1, 64))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&seed, "seed", "s", "", "seed, number or string")
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of draws")
	return cmd
}
