// Package cmd implements the battle-sim command line: one-off simulations,
// seed scans, batch reports and record verification against the local engine.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
)

// options shared by every subcommand
type rootOptions struct {
	catalogDir string
	fs         afero.Fs
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{fs: afero.NewOsFs()}

	root := &cobra.Command{
		Use:   "battle-sim",
		Short: "Deterministic Rune Ration battle simulator",
		Long: `battle-sim runs the Rune Ration battle engine locally.

Every battle is a pure function of its seed, armies, decks and modifiers, so
any result can be reproduced from its inputs.

Use "battle-sim [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.catalogDir, "catalog-dir", "", "directory of catalog JSON overlays (default: built-in catalog)")

	root.AddCommand(
		newSimulateCmd(opts),
		newGhostsCmd(opts),
		newScanCmd(opts),
		newFloatsCmd(),
		newVerifyCmd(opts),
		newKeyCmd(),
		newReportCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute executes the root command
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (o *rootOptions) loadCatalog() (*catalog.Catalog, error) {
	if o.catalogDir == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadDir(o.fs, o.catalogDir)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}
