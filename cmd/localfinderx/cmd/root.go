// Package cmd provides the CLI commands for LocalFinderX.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ryan-gw-park/local-file-search/internal/config"
	"github.com/Ryan-gw-park/local-file-search/internal/paths"
	"github.com/Ryan-gw-park/local-file-search/pkg/version"
)

var dataDir string

// NewRootCmd creates the root command for the localfinderx CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "localfinderx",
		Short: "Fully local, offline hybrid file search",
		Long: `LocalFinderX indexes files on disk and answers natural-language
queries with a hybrid of dense (semantic) and BM25 (lexical) retrieval.

Everything runs on-device: indexing, embedding, and querying never touch
the network. Run 'localfinderx init <path>' to get started.`,
		Version:      version.Version,
		SilenceUsage: true,
	}

	cmd.SetVersionTemplate("localfinderx version {{.Version}}\n")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "App data directory (default: OS-appropriate application data dir)")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// resolveLayout resolves the app-data Layout from the --data-dir flag, or
// the OS default if unset.
func resolveLayout() (paths.Layout, error) {
	if dataDir != "" {
		return paths.New(dataDir), nil
	}
	layout, err := paths.Default()
	if err != nil {
		return paths.Layout{}, fmt.Errorf("resolve default data directory: %w", err)
	}
	return layout, nil
}

// loadConfig loads the layered configuration for layout, falling back to
// defaults if no .localfinderx.yaml is present.
func loadConfig(layout paths.Layout) (*config.Config, error) {
	return config.Load(layout.Root)
}
