package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MJE43/rune-ration-replay-go/internal/signing"
)

var errResetNotConfirmed = errors.New("key reset invalidates every existing signature; rerun with --yes")

type keyFlags struct {
	keyringService string
	keyFallback    string
}

func (f *keyFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.keyringService, "keyring-service", "", "keyring service holding the signing key")
	pf.StringVar(&f.keyFallback, "key-file", "", "JSON key file used when no OS keyring is available")
}

func (f *keyFlags) store() *signing.KeyStore {
	return signing.NewKeyStore(f.keyringService, f.keyFallback)
}

func newKeyCmd() *cobra.Command {
	var flags keyFlags

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Inspect or rotate the replay signing key",
	}
	flags.register(cmd)

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the fingerprint of the signing key, creating it if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := flags.store().Key()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fingerprint %s\n", fingerprint(key))
			return nil
		},
	}

	var confirmed bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Delete the signing key and generate a new one",
		Long: `Delete the signing key from the keyring and the fallback file, then
generate a fresh key. Battles signed with the old key no longer verify.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errResetNotConfirmed
			}
			ks := flags.store()
			if err := ks.Delete(); err != nil {
				return err
			}
			key, err := ks.Key()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "new fingerprint %s\n", fingerprint(key))
			return nil
		},
	}
	reset.Flags().BoolVar(&confirmed, "yes", false, "confirm the reset")

	cmd.AddCommand(show, reset)
	return cmd
}

func fingerprint(key []byte) string {
	sum := sha256.Sum256(key)
	return hex.EncodeToString(sum[:8])
}
