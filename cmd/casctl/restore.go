package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kenneth/git-cas/internal/cas/engine"
)

func newRestoreCmd() *cobra.Command {
	var (
		passphrase string
		keyHex     string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "restore <tree-oid-or-ref>",
		Short: "Reassemble the original bytes from a manifest tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			treeOID := resolveRef(refsPath, args[0])

			eng, err := buildEngine(cfg, appMetrics)
			if err != nil {
				return err
			}

			ctx := context.Background()
			manifest, err := eng.ReadManifest(ctx, treeOID)
			if err != nil {
				return fmt.Errorf("readManifest: %w", err)
			}

			in := engine.RestoreInput{Manifest: manifest, Passphrase: passphrase}
			if keyHex != "" {
				key, err := decodeKeyHex(keyHex)
				if err != nil {
					return err
				}
				in.EncryptionKey = key
			}

			result, err := eng.Restore(ctx, in)
			if err != nil {
				return fmt.Errorf("restore: %w", err)
			}

			if outPath == "" || outPath == "-" {
				_, err = os.Stdout.Write(result.Buffer)
				return err
			}
			return os.WriteFile(outPath, result.Buffer, 0o644)
		},
	}

	cmd.Flags().StringVar(&passphrase, "passphrase", "", "derive the decryption key from this passphrase")
	cmd.Flags().StringVar(&keyHex, "key", "", "hex-encoded 32-byte decryption key")
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path, or - for stdout")
	return cmd
}

func decodeKeyHex(keyHex string) ([]byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid --key: not hex: %w", err)
	}
	return key, nil
}
