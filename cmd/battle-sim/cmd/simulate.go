package cmd

import (
	"bytes"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
	"github.com/MJE43/rune-ration-replay-go/internal/signing"
	"github.com/MJE43/rune-ration-replay-go/internal/version"
)

// copyToClipboard is swapped out in tests.
var copyToClipboard = clipboard.WriteAll

func newSimulateCmd(root *rootOptions) *cobra.Command {
	var (
		flags      battleFlags
		seed       string
		jsonOutput bool
		record     bool
		copyResult bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Fight one battle against a ghost army",
		Long: `Fight one battle against a catalog ghost and print the round table.

Without --seed the ghost's own seed is used, so the same army and deck always
replay the same battle.

Examples:
  battle-sim simulate --ghost feral-swarm --seed 42
  battle-sim simulate --seed abc --army sanctumGuard=4,wildRangers=2 --event blood-moon
  battle-sim simulate --seed 7 --record > battle.json   # a record for "battle-sim verify"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := root.loadCatalog()
			if err != nil {
				return err
			}
			req, ghost, err := flags.request(cat, engine.ParseSeed(seed))
			if err != nil {
				return err
			}
			res := battle.Simulate(cat, req)

			var payload any = res
			if record {
				payload = signing.NewRecord(version.EngineVersion, req, res)
			}

			var buf bytes.Buffer
			if jsonOutput || record {
				if err := writeJSON(&buf, payload); err != nil {
					return err
				}
			} else if err := printBattle(&buf, "Battle vs "+ghost.Name, res); err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
				return err
			}

			if copyResult {
				var js bytes.Buffer
				if err := writeJSON(&js, payload); err != nil {
					return err
				}
				if err := copyToClipboard(js.String()); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "result copied to clipboard")
			}
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&seed, "seed", "s", "", "battle seed, number or string (default: the ghost's seed)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&record, "record", false, "print a replayable record as JSON")
	cmd.Flags().BoolVar(&copyResult, "copy", false, "copy the JSON result to the clipboard")
	return cmd
}
