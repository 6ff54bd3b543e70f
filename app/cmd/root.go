package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lexcodex/srcmap/app/config"
	"github.com/lexcodex/srcmap/persistence"
)

// ExtractorVersion identifies the running extraction logic. Release builds
// override it with -ldflags "-X github.com/lexcodex/srcmap/app/cmd.ExtractorVersion=...".
var ExtractorVersion = "dev"

var (
	cfgFile          string
	workspace        string
	extractorVersion string

	globalCfg *config.Config
)

// Execute is the entry point for the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd wires the cobra tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "srcmap",
		Short:         "Discover, classify and track extraction caches for a source tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if workspace == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				workspace = wd
			}
			abs, err := filepath.Abs(workspace)
			if err != nil {
				return err
			}
			workspace = abs
			if cfgFile == "" {
				cfgFile = config.DefaultPath(workspace)
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				if !usesRawConfig(cmd) {
					return fmt.Errorf("load config %s: %w", cfgFile, err)
				}
				cfg = config.Default()
			}
			globalCfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&workspace, "workspace", "", "Repository root (defaults to the working directory)")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to the srcmap config file")
	root.PersistentFlags().StringVar(&extractorVersion, "extractor-version", "", "Override the running extractor version")

	root.AddCommand(
		newDiscoverCmd(),
		newClassifyCmd(),
		newMetaCmd(),
		newPlanCmd(),
		newConfigCmd(),
	)
	return root
}

// runningVersion resolves the extractor version: flag, then config, then
// the build value.
func runningVersion() string {
	if extractorVersion != "" {
		return extractorVersion
	}
	return globalCfg.VersionOr(ExtractorVersion)
}

func openStore() (*persistence.MetaStore, error) {
	return persistence.OpenMetaStore(globalCfg.ResolveCachePath(workspace))
}
