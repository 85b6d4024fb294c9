package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <tree-oid-or-ref>",
		Short: "Re-digest every chunk in a manifest tree and report pass/fail",
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

			ok, err := eng.VerifyIntegrity(ctx, manifest)
			if err != nil {
				return fmt.Errorf("verifyIntegrity: %w", err)
			}
			if !ok {
				fmt.Println("FAIL")
				os.Exit(1)
			}
			fmt.Println("PASS")
			return nil
		},
	}
}
