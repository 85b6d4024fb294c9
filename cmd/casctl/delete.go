package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tree-oid-or-ref>",
		Short: "Report how many chunks would become orphaned by removing a tree (no destructive action)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			treeOID := resolveRef(refsPath, args[0])

			eng, err := buildEngine(cfg, appMetrics)
			if err != nil {
				return err
			}

			result, err := eng.DeleteAsset(context.Background(), treeOID)
			if err != nil {
				return fmt.Errorf("deleteAsset: %w", err)
			}

			fmt.Printf("slug %s\nchunks_orphaned %d\n", result.Slug, result.ChunksOrphaned)
			return nil
		},
	}
}
