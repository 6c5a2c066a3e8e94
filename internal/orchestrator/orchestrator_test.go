package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ryan-gw-park/local-file-search/internal/embed"
	"github.com/Ryan-gw-park/local-file-search/internal/paths"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, paths.Layout) {
	t.Helper()
	layout := paths.New(t.TempDir())
	o, err := New(layout, embed.NewStaticEmbedder768())
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o, layout
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestIndex_ContentAndMetadataClassification(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.md", "# Title\n\nSome searchable body text about quarterly results.")
	writeFile(t, root, "photo.jpg", "not indexed content")

	o, _ := newTestOrchestrator(t)

	h := o.Index(context.Background(), Options{Roots: []string{root}})
	summary, err := h.Wait()
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.ContentIndexed)
	assert.Equal(t, 1, summary.MetadataOnly)
	assert.Equal(t, 0, summary.Failed)

	assert.Equal(t, 2, o.fileStore.Count())
	assert.Greater(t, o.chunkStore.Count(), 0)
}

func TestIndex_SecondRunWithNoChangesIsANoop(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.md", "# Title\n\nBody text.")

	o, _ := newTestOrchestrator(t)

	h := o.Index(context.Background(), Options{Roots: []string{root}})
	_, err := h.Wait()
	require.NoError(t, err)

	h2 := o.Index(context.Background(), Options{Roots: []string{root}})
	summary, err := h2.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
}

func TestIndex_ChangedFileReindexesUnderSameFileID(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "notes.md", "# Title\n\nOriginal body.")

	o, _ := newTestOrchestrator(t)

	h := o.Index(context.Background(), Options{Roots: []string{root}})
	_, err := h.Wait()
	require.NoError(t, err)

	entryBefore, ok := o.manifestStore.Get(path)
	require.True(t, ok)
	originalFileID := entryBefore.FileID

	// Force a distinct fingerprint (mtime-resolution-safe) before rewriting.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\nCompletely different body now."), 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	h2 := o.Index(context.Background(), Options{Roots: []string{root}})
	summary, err := h2.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)

	entryAfter, ok := o.manifestStore.Get(path)
	require.True(t, ok)
	assert.Equal(t, originalFileID, entryAfter.FileID)
}

func TestIndex_RemovedFileClearsAllStores(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "notes.md", "# Title\n\nBody.")

	o, _ := newTestOrchestrator(t)

	h := o.Index(context.Background(), Options{Roots: []string{root}})
	_, err := h.Wait()
	require.NoError(t, err)

	entry, ok := o.manifestStore.Get(path)
	require.True(t, ok)
	require.NoError(t, os.Remove(path))

	h2 := o.Index(context.Background(), Options{Roots: []string{root}})
	_, err = h2.Wait()
	require.NoError(t, err)

	_, ok = o.manifestStore.Get(path)
	assert.False(t, ok)
	_, ok = o.fileStore.Get(entry.FileID)
	assert.False(t, ok)
	assert.Len(t, o.chunkStore.ByFileID(entry.FileID), 0)
}

func TestIndex_ProgressEventsReportCompletion(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "content a")
	writeFile(t, root, "b.md", "content b")

	o, _ := newTestOrchestrator(t)

	h := o.Index(context.Background(), Options{Roots: []string{root}, MaxConcurrency: 1})

	var last ProgressEvent
	for ev := range h.Progress() {
		last = ev
	}
	summary, err := h.Wait()
	require.NoError(t, err)

	assert.Equal(t, summary.Total, last.FilesTotal)
	assert.Equal(t, summary.Total, last.Done)
}

func TestIndex_CancelStopsCooperatively(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, root, filepathName(i), "body text for cancellation test")
	}

	o, _ := newTestOrchestrator(t)

	h := o.Index(context.Background(), Options{Roots: []string{root}, MaxConcurrency: 1})
	h.Cancel()
	_, err := h.Wait()
	// Either it raced to completion before the cancel landed, or it
	// surfaces a cancellation error; both leave stores consistent.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func filepathName(i int) string {
	return "doc" + string(rune('a'+i)) + ".md"
}

// flakyEmbedder always fails EmbedBatch (forcing the per-item fallback) and
// then fails the per-item Embed call itself for any text containing "drop".
type flakyEmbedder struct {
	embed.Embedder
}

func (f *flakyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, assert.AnError
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(text, "drop") {
		return nil, assert.AnError
	}
	return f.Embedder.Embed(ctx, text)
}

func TestIndex_PartialEmbedFailureLeavesChunkIndexGapFree(t *testing.T) {
	root := t.TempDir()
	// Headings force the Markdown chunker to split on each header, giving one
	// chunk per paragraph so the middle one can be made to fail alone.
	writeFile(t, root, "notes.md", "# keep-one\n\nfirst kept paragraph.\n\n# drop-me\n\nsecond paragraph will drop.\n\n# keep-two\n\nthird kept paragraph.")

	layout := paths.New(t.TempDir())
	o, err := New(layout, &flakyEmbedder{Embedder: embed.NewStaticEmbedder768()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })

	h := o.Index(context.Background(), Options{Roots: []string{root}})
	summary, err := h.Wait()
	require.NoError(t, err)
	require.Equal(t, 0, summary.Failed)

	entry, ok := o.manifestStore.Get(filepath.Join(root, "notes.md"))
	require.True(t, ok)

	records := o.chunkStore.ByFileID(entry.FileID)
	require.Greater(t, len(records), 0)

	indexes := make([]int, len(records))
	for i, rec := range records {
		indexes[i] = rec.ChunkIndex
	}
	sort.Ints(indexes)
	for i, idx := range indexes {
		assert.Equal(t, i, idx, "chunk_index must be 0..N-1 without gaps after a dropped chunk")
	}
}
