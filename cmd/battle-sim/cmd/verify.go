package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/MJE43/rune-ration-replay-go/internal/signing"
)

// errReplayMismatch makes verify exit non-zero without printing usage.
var errReplayMismatch = errors.New("replay does not match the record")

func newVerifyCmd(root *rootOptions) *cobra.Command {
	var (
		signature      string
		keyringService string
		keyFallback    string
		jsonOutput     bool
	)

	cmd := &cobra.Command{
		Use:   "verify <record.json|->",
		Short: "Re-run a battle record and check it reproduces",
		Long: `Re-simulate the request of a battle record and compare the rounds, winner
and remaining hp with the recorded result. With --signature the record's
digest is also checked against the local signing key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := root.loadCatalog()
			if err != nil {
				return err
			}
			record, err := readRecord(root.fs, args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			report := signing.Replay(cat, record)
			digest, err := signing.Digest(record)
			if err != nil {
				return err
			}

			var sigErr error
			if signature != "" {
				signer, err := signing.LoadSigner(signing.NewKeyStore(keyringService, keyFallback))
				if err != nil {
					return err
				}
				sigErr = signer.Verify(record, signature)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "digest   %s\n", digest)
				fmt.Fprintf(out, "seed     %d\n", record.Seed)
				if report.Match {
					fmt.Fprintln(out, "replay   match")
				} else {
					fmt.Fprintf(out, "replay   MISMATCH %v\n", report.Mismatches)
				}
				if signature != "" {
					if sigErr == nil {
						fmt.Fprintln(out, "signature valid")
					} else {
						fmt.Fprintln(out, "signature INVALID")
					}
				}
			}

			if !report.Match {
				return errReplayMismatch
			}
			return sigErr
		},
	}
	f := cmd.Flags()
	f.StringVar(&signature, "signature", "", "hex signature to check")
	f.StringVar(&keyringService, "keyring-service", "", "keyring service holding the signing key")
	f.StringVar(&keyFallback, "key-file", "", "JSON key file used when no OS keyring is available")
	f.BoolVar(&jsonOutput, "json", false, "print the replay report as JSON")
	return cmd
}

func readRecord(fsys afero.Fs, path string, stdin io.Reader) (signing.Record, error) {
	var record signing.Record
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = afero.ReadFile(fsys, path)
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return record, fmt.Errorf("record %s not found", path)
		}
		return record, err
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("decode record: %w", err)
	}
	return record, nil
}
