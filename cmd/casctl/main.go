// Command casctl is a small operator CLI around the CAS engine: store a
// file, restore it back from a tree OID, verify its chunk integrity, and
// keep a local glob-filterable ref file mapping human-readable names to
// tree OIDs (the engine itself has no notion of refs; that bookkeeping is
// the CLI's, not the library's).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kenneth/git-cas/internal/config"
	"github.com/kenneth/git-cas/internal/metrics"
)

var (
	configPath string
	refsPath   string
	cfg        config.Config
	appMetrics = metrics.NewMetrics()
)

func main() {
	root := &cobra.Command{
		Use:   "casctl",
		Short: "Operate a git-cas content-addressable store",
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a casctl config file (yaml/json/toml); defaults are used if omitted")
	root.PersistentFlags().StringVar(&refsPath, "refs", defaultRefsPath(), "path to the local ref-name -> tree-OID mapping file")

	cobra.OnInitialize(loadConfig)

	root.AddCommand(
		newStoreCmd(),
		newRestoreCmd(),
		newVerifyCmd(),
		newDeleteCmd(),
		newRefsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() {
	if configPath == "" {
		cfg = config.DefaultConfig()
		return
	}
	loader, err := config.NewLoader(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "casctl: failed to load config %s: %v\n", configPath, err)
		os.Exit(1)
	}
	cfg = loader.Current()
}

func defaultRefsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".casctl-refs.json"
	}
	return home + "/.casctl-refs.json"
}
