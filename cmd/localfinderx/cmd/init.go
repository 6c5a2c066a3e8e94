package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ryan-gw-park/local-file-search/configs"
)

func newInitCmd() *cobra.Command {
	var (
		configOnly    bool
		includeHidden bool
		backend       string
	)

	cmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Set up the data directory and run the first index",
		Long: `Init prepares the app-data directory (creating it if needed),
writes a commented .localfinderx.yaml template alongside it if one doesn't
already exist, and then indexes the given path unless --config-only is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runInit(ctx, cmd, args[0], configOnly, includeHidden, backend)
		},
	}

	cmd.Flags().BoolVar(&configOnly, "config-only", false, "Write the config template but skip indexing")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "Include dotfiles and dotdirs when indexing")
	cmd.Flags().StringVar(&backend, "backend", "", "Embedding backend: native (default) or static")

	return cmd
}

func runInit(ctx context.Context, cmd *cobra.Command, root string, configOnly, includeHidden bool, backend string) error {
	out := cmd.OutOrStdout()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	layout, err := resolveLayout()
	if err != nil {
		return err
	}
	if err := layout.EnsureDirs(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	fmt.Fprintf(out, "Data directory: %s\n", layout.Root)

	configPath := filepath.Join(layout.Root, ".localfinderx.yaml")
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintln(out, "Existing .localfinderx.yaml preserved")
	} else {
		if err := os.WriteFile(configPath, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
			return fmt.Errorf("write .localfinderx.yaml: %w", err)
		}
		fmt.Fprintf(out, "Created %s\n", configPath)
	}

	if configOnly {
		fmt.Fprintln(out, "Skipping indexing (--config-only)")
		return nil
	}

	fmt.Fprintf(out, "Indexing %s...\n", absRoot)
	return runIndex(ctx, cmd, []string{absRoot}, includeHidden, backend)
}
