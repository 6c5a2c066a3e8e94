package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ryan-gw-park/local-file-search/internal/chunkstore"
	"github.com/Ryan-gw-park/local-file-search/internal/embed"
	"github.com/Ryan-gw-park/local-file-search/internal/filestore"
	"github.com/Ryan-gw-park/local-file-search/internal/lexstore"
	"github.com/Ryan-gw-park/local-file-search/internal/schema"
	"github.com/Ryan-gw-park/local-file-search/internal/search"
	"github.com/Ryan-gw-park/local-file-search/internal/vectorstore"
)

func newSearchCmd() *cobra.Command {
	var (
		mode       string
		limit      int
		extensions []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the index",
		Long: `Search runs a hybrid dense+BM25 query over a previously built index
and prints the fused, file-granular results with evidence snippets.

Mode trades recall/latency for evidence depth:
  fast    - fewer candidates, 2 evidences per file, no reranking
  smart   - balanced (default)
  assist  - widest candidate pool, 5 evidences per file, reranked`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, args[0], mode, limit, extensions, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "smart", "Query mode: fast, smart, or assist")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of file results (0 uses the mode default)")
	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "Restrict to file extensions (e.g. .md,.pdf)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query, mode string, limit int, extensions []string, jsonOutput bool) error {
	layout, err := resolveLayout()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(layout)
	if err != nil {
		return err
	}

	fileStore, err := filestore.Load(layout)
	if err != nil {
		return fmt.Errorf("load file store: %w", err)
	}
	chunkStore, err := chunkstore.Load(layout)
	if err != nil {
		return fmt.Errorf("load chunk store: %w", err)
	}

	provider := embed.ParseProvider(cfg.Embeddings.Provider)
	embedder, err := embed.NewEmbedder(ctx, provider, cfg.Embeddings.Model)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}
	defer func() { _ = embedder.Close() }()

	vecStore, err := vectorstore.New(vectorstore.DefaultConfig(embedder.Dimensions()))
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}
	defer func() { _ = vecStore.Close() }()
	vecPath := filepath.Join(layout.VectorStoreDir(), "index.hnsw")
	_ = vecStore.Load(vecPath) // missing on first run; degrades to empty

	lexStore, err := lexstore.Open(layout.BM25IndexPath())
	if err != nil {
		return fmt.Errorf("open lexical store: %w", err)
	}
	defer func() { _ = lexStore.Close() }()

	engine := search.New(embedder, vecStore, lexStore, fileStore, chunkStore, search.NewNativeReranker())

	opts := search.Options{
		Mode:    parseMode(mode, cfg.Search.DefaultMode),
		Limit:   limit,
		Filters: search.Filters{Extensions: extensions},
	}

	resp, err := engine.Search(ctx, query, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	printResults(out, resp)
	return nil
}

func parseMode(flagMode, configDefault string) search.Mode {
	m := flagMode
	if m == "" {
		m = configDefault
	}
	switch m {
	case "fast":
		return search.ModeFast
	case "assist":
		return search.ModeAssist
	default:
		return search.ModeSmart
	}
}

func printResults(w io.Writer, resp schema.SearchResponse) {
	fmt.Fprintf(w, "%q - %d result(s) in %dms\n\n", resp.Query, len(resp.Results), resp.ElapsedMS)
	for i, r := range resp.Results {
		fmt.Fprintf(w, "%d. %s  [%s, score %.4f]\n", i+1, r.Path, r.MatchType, r.FinalFileScore)
		for _, ev := range r.Evidences {
			fmt.Fprintf(w, "     %s\n", ev.Summary)
			fmt.Fprintf(w, "     %q\n", ev.Snippet)
		}
	}
}
