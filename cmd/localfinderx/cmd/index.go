package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ryan-gw-park/local-file-search/internal/chunk"
	"github.com/Ryan-gw-park/local-file-search/internal/embed"
	"github.com/Ryan-gw-park/local-file-search/internal/orchestrator"
)

func newIndexCmd() *cobra.Command {
	var (
		includeHidden bool
		backend       string
	)

	cmd := &cobra.Command{
		Use:   "index <path>...",
		Short: "Index one or more directories for searching",
		Long: `Index scans the given directories, classifies each file as
content-indexed or metadata-only, chunks and embeds content-indexed files,
and persists the result to the manifest, file, chunk, vector, and lexical
stores.

Indexing is incremental: files unchanged since the last run (by mtime and
size fingerprint) are skipped; removed files are purged from every store.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIndex(ctx, cmd, args, includeHidden, backend)
		},
	}

	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "Include dotfiles and dotdirs")
	cmd.Flags().StringVar(&backend, "backend", "", "Embedding backend: native (default) or static")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, roots []string, includeHidden bool, backend string) error {
	layout, err := resolveLayout()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(layout)
	if err != nil {
		return err
	}

	provider := embed.ParseProvider(backend)
	if backend == "" && cfg.Embeddings.Provider != "" {
		provider = embed.ParseProvider(cfg.Embeddings.Provider)
	}
	embedder, err := embed.NewEmbedder(ctx, provider, cfg.Embeddings.Model)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}
	defer func() { _ = embedder.Close() }()

	orch, err := orchestrator.New(layout, embedder)
	if err != nil {
		return fmt.Errorf("open orchestrator: %w", err)
	}
	defer orch.Close()

	handle := orch.Index(ctx, orchestrator.Options{
		Roots:          roots,
		IncludeHidden:  includeHidden,
		MaxConcurrency: cfg.Performance.IndexWorkers,
		Chunk: chunk.Options{
			MaxChars:     cfg.Search.ChunkSize,
			OverlapChars: cfg.Search.ChunkOverlap,
		},
	})

	out := cmd.OutOrStdout()
	for ev := range handle.Progress() {
		fmt.Fprintf(out, "\r%d/%d indexed (%d failed) - %s", ev.Done, ev.FilesTotal, ev.Failed, ev.CurrentPath)
	}

	summary, err := handle.Wait()
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Fprintf(out, "Indexed %d files: %d content-indexed, %d metadata-only, %d failed\n",
		summary.Total, summary.ContentIndexed, summary.MetadataOnly, summary.Failed)
	return nil
}
