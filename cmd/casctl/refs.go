package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/ryanuber/go-glob"
	"github.com/spf13/cobra"
)

// loadRefs reads the ref-name -> tree-OID JSON file at path, returning an
// empty map if it does not yet exist.
func loadRefs(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	refs := map[string]string{}
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("parse refs file %s: %w", path, err)
	}
	return refs, nil
}

func saveRefs(path string, refs map[string]string) error {
	data, err := json.MarshalIndent(refs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func setRef(path, name, treeOID string) error {
	refs, err := loadRefs(path)
	if err != nil {
		return err
	}
	refs[name] = treeOID
	return saveRefs(path, refs)
}

// resolveRef returns refs[nameOrOID] when it is a known ref name, otherwise
// treats the argument as a literal tree OID.
func resolveRef(path, nameOrOID string) string {
	refs, err := loadRefs(path)
	if err != nil {
		return nameOrOID
	}
	if oid, ok := refs[nameOrOID]; ok {
		return oid
	}
	return nameOrOID
}

func newRefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refs",
		Short: "Manage the local ref-name -> tree-OID mapping",
	}

	cmd.AddCommand(newRefsListCmd(), newRefsSetCmd(), newRefsGetCmd())
	return cmd
}

func newRefsListCmd() *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List refs, optionally filtered by a glob pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := loadRefs(refsPath)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(refs))
			for name := range refs {
				if pattern == "" || glob.Glob(pattern, name) {
					names = append(names, name)
				}
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("%s\t%s\n", name, refs[name])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "glob", "", "glob pattern to filter ref names, e.g. 'release-*'")
	return cmd
}

func newRefsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <tree-oid>",
		Short: "Record a tree OID under a ref name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setRef(refsPath, args[0], args[1])
		},
	}
}

func newRefsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print the tree OID a ref name resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := loadRefs(refsPath)
			if err != nil {
				return err
			}
			oid, ok := refs[args[0]]
			if !ok {
				return fmt.Errorf("no such ref: %s", args[0])
			}
			fmt.Println(oid)
			return nil
		},
	}
}
