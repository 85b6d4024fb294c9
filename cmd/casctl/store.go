package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kenneth/git-cas/internal/cas/engine"
)

func newStoreCmd() *cobra.Command {
	var (
		slug       string
		passphrase string
		keyHex     string
		compress   bool
		ref        string
	)

	cmd := &cobra.Command{
		Use:   "store <file>",
		Short: "Chunk, optionally encrypt/compress, and persist a file as a manifest tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			eng, err := buildEngine(cfg, appMetrics)
			if err != nil {
				return err
			}

			in := engine.StoreInput{
				Source:     f,
				Slug:       slug,
				Filename:   args[0],
				Passphrase: passphrase,
				Compress:   compress,
			}
			if keyHex != "" {
				key, err := decodeKeyHex(keyHex)
				if err != nil {
					return err
				}
				in.EncryptionKey = key
			}

			ctx := context.Background()
			manifest, err := eng.Store(ctx, in)
			if err != nil {
				return fmt.Errorf("store: %w", err)
			}
			treeOID, err := eng.CreateTree(ctx, manifest)
			if err != nil {
				return fmt.Errorf("createTree: %w", err)
			}

			fmt.Printf("tree %s\nslug %s\nsize %d\nchunks %d\nencrypted %v\n",
				treeOID, manifest.Slug(), manifest.Size(), manifest.ChunkCount(), manifest.Encryption() != nil)

			if ref != "" {
				if err := setRef(refsPath, ref, treeOID); err != nil {
					return fmt.Errorf("save ref %s: %w", ref, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&slug, "slug", "", "logical slug recorded in the manifest")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "derive an encryption key from this passphrase")
	cmd.Flags().StringVar(&keyHex, "key", "", "hex-encoded 32-byte encryption key")
	cmd.Flags().BoolVar(&compress, "compress", false, "gzip the content before chunking")
	cmd.Flags().StringVar(&ref, "ref", "", "record the resulting tree OID under this local ref name")
	return cmd
}
