package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ryan-gw-park/local-file-search/internal/chunkstore"
	"github.com/Ryan-gw-park/local-file-search/internal/filestore"
	"github.com/Ryan-gw-park/local-file-search/internal/manifest"
	"github.com/Ryan-gw-park/local-file-search/internal/paths"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report index health and on-disk size",
		Long: `Status reports counts from the manifest, file, and chunk stores,
plus the on-disk size of each persisted store, without acquiring the
orchestrator's write lock.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	layout, err := resolveLayout()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Data directory: %s\n\n", layout.Root)

	manifestStore, err := manifest.Load(layout)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	fileStore, err := filestore.Load(layout)
	if err != nil {
		return fmt.Errorf("load file store: %w", err)
	}
	chunkStore, err := chunkstore.Load(layout)
	if err != nil {
		return fmt.Errorf("load chunk store: %w", err)
	}

	fmt.Fprintf(out, "Manifest entries: %d\n", manifestStore.Len())
	fmt.Fprintf(out, "Files tracked:    %d\n", fileStore.Count())
	fmt.Fprintf(out, "Chunks tracked:   %d\n", chunkStore.Count())

	settings, err := paths.LoadSettings(layout)
	if err == nil {
		fmt.Fprintf(out, "Embedder model:   %s (%d dims)\n", settings.EmbedderModel, settings.EmbedderDimensions)
		gpu := settings.GPUBackend
		if gpu == "" {
			gpu = "cpu"
		}
		fmt.Fprintf(out, "GPU backend:      %s\n", gpu)
	}

	fmt.Fprintln(out, "\nOn-disk store sizes:")
	printSize(out, "manifest.json", layout.ManifestPath())
	printSize(out, "files.json", filestore.Path(layout))
	printSize(out, "chunks.json", chunkstore.Path(layout))
	printSize(out, "bm25.bin", layout.BM25IndexPath())
	printDirSize(out, "lancedb/", layout.VectorStoreDir())

	return nil
}

func printSize(w interface{ Write([]byte) (int, error) }, label, path string) {
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(w, "  %-16s (missing)\n", label)
		return
	}
	fmt.Fprintf(w, "  %-16s %s\n", label, humanBytes(info.Size()))
}

func printDirSize(w interface{ Write([]byte) (int, error) }, label, dir string) {
	var total int64
	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(w, "  %-16s (missing)\n", label)
		return
	}
	fmt.Fprintf(w, "  %-16s %s\n", label, humanBytes(total))
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
