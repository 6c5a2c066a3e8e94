// Package search's Engine composes the query-time pipeline: Query Processor
// -> (Dense Retriever || Lexical Retriever) -> RRF Fusion -> File Aggregator
// -> Evidence Builder, returning a schema.SearchResponse.
package search

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Ryan-gw-park/local-file-search/internal/chunkstore"
	"github.com/Ryan-gw-park/local-file-search/internal/embed"
	"github.com/Ryan-gw-park/local-file-search/internal/errs"
	"github.com/Ryan-gw-park/local-file-search/internal/filestore"
	"github.com/Ryan-gw-park/local-file-search/internal/lexstore"
	"github.com/Ryan-gw-park/local-file-search/internal/schema"
	"github.com/Ryan-gw-park/local-file-search/internal/tokenize"
	"github.com/Ryan-gw-park/local-file-search/internal/vectorstore"
)

// maxQueryLen is the Query Processor's truncation bound (§4.9).
const maxQueryLen = 512

// Engine is the query-time Search Engine (§4.16).
type Engine struct {
	embedder  embed.Embedder
	vecStore  *vectorstore.Store
	lexStore  *lexstore.Store
	fileStore *filestore.Store
	chunks    *chunkstore.Store
	reranker  Reranker
	log       *slog.Logger
}

// New builds a Search Engine over the given stores. A nil reranker defaults
// to NoOpReranker; callers that want ASSIST mode's reranking pass to do
// anything should pass a NativeReranker (or another Reranker) instead.
func New(embedder embed.Embedder, vecStore *vectorstore.Store, lexStore *lexstore.Store, fileStore *filestore.Store, chunks *chunkstore.Store, reranker Reranker) *Engine {
	if reranker == nil {
		reranker = &NoOpReranker{}
	}
	return &Engine{
		embedder:  embedder,
		vecStore:  vecStore,
		lexStore:  lexStore,
		fileStore: fileStore,
		chunks:    chunks,
		reranker:  reranker,
		log:       slog.Default().With("component", "search.Engine"),
	}
}

// Search runs the full retrieval pipeline and returns a SearchResponse with
// at most opts.Limit results sorted by final_file_score descending. A
// failure in one or both retrievers degrades gracefully to fewer (or zero)
// results rather than returning an error (§4.16); only a Query Processor
// failure (empty query) returns one.
func (e *Engine) Search(ctx context.Context, query string, opts Options) (schema.SearchResponse, error) {
	start := time.Now()
	opts = opts.withDefaults()

	processed, err := processQuery(query)
	if err != nil {
		return schema.SearchResponse{}, err
	}
	modeCfg := ConfigFor(opts.Mode)

	queryTokens, tokErr := tokenize.Tokenize(processed)
	if tokErr != nil {
		e.log.Warn("query tokenization degraded", "error", tokErr)
	}

	dense, lexical := e.retrieve(ctx, processed, modeCfg, opts.Filters)

	items := fuseItems(dense, lexical)
	files := aggregateFiles(items, e.isContentIndexed)
	files = e.applyFilters(files, opts.Filters)

	if modeCfg.RerankerEnabled && e.reranker.Available(ctx) {
		files = e.rerank(ctx, processed, files)
	}

	if len(files) > opts.Limit {
		files = files[:opts.Limit]
	}

	results := make([]schema.SearchResult, 0, len(files))
	for _, af := range files {
		rec, ok := e.fileStore.Get(af.FileID)
		if !ok {
			continue
		}
		var evidences []schema.Evidence
		if rec.ContentIndexed {
			evidences = buildEvidences(af, modeCfg.EvidencesPerFile, queryTokens, e.chunks.Get)
		} else {
			evidences = []schema.Evidence{}
		}
		results = append(results, schema.SearchResult{
			FileID:           af.FileID,
			Path:             rec.Path,
			Filename:         rec.Filename,
			ContentAvailable: rec.ContentIndexed,
			FinalFileScore:   af.FinalScore,
			MatchType:        af.MatchType,
			Evidences:        evidences,
		})
	}

	return schema.SearchResponse{
		SchemaVersion: schema.CurrentSchemaVersion,
		Query:         processed,
		ElapsedMS:     time.Since(start).Milliseconds(),
		Results:       results,
	}, nil
}

// processQuery truncates an over-length query to maxQueryLen and rejects an
// empty one (§4.9).
func processQuery(query string) (string, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "", errs.QueryError("query must not be empty")
	}
	if len(trimmed) > maxQueryLen {
		trimmed = trimmed[:maxQueryLen]
	}
	return trimmed, nil
}

// retrieve fans the dense and lexical retrievers out in parallel (grounded
// on the teacher's parallelSearch pattern) and degrades to an empty slice
// for whichever retriever fails, rather than failing the whole search.
func (e *Engine) retrieve(ctx context.Context, query string, modeCfg ModeConfig, filters Filters) ([]retrievalItem, []retrievalItem) {
	var dense, lexical []retrievalItem

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := e.retrieveDense(gctx, query, modeCfg.DenseTopN)
		if err != nil {
			e.log.Warn("dense retrieval failed", "error", err)
			return nil
		}
		dense = items
		return nil
	})
	g.Go(func() error {
		items, err := e.retrieveLexical(gctx, query, modeCfg.BM25TopN, filters)
		if err != nil {
			e.log.Warn("lexical retrieval failed", "error", err)
			return nil
		}
		lexical = items
		return nil
	})
	_ = g.Wait()

	return dense, lexical
}

// retrieveDense embeds the query and searches the vector store. Only
// content-indexed files have chunk vectors, so the vector store's contents
// already satisfy the content_indexed=true filter (§4.10) without an
// explicit flag.
func (e *Engine) retrieveDense(ctx context.Context, query string, topN int) ([]retrievalItem, error) {
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errs.EmbeddingError("embed query", err)
	}
	results, err := e.vecStore.Search(ctx, vec, topN)
	if err != nil {
		return nil, errs.StoreReadError("vector store search", err)
	}
	out := make([]retrievalItem, 0, len(results))
	for _, r := range results {
		fileID := ""
		if rec, ok := e.chunks.Get(r.ChunkID); ok {
			fileID = rec.FileID
		}
		out = append(out, retrievalItem{DocID: r.ChunkID, FileID: fileID, IsChunk: true})
	}
	return out, nil
}

// retrieveLexical runs a BM25 search across both chunk and file documents
// (§4.11): chunk hits carry real passage text, file hits let a filename
// match surface a metadata-only file that has no chunks at all.
func (e *Engine) retrieveLexical(ctx context.Context, query string, topN int, filters Filters) ([]retrievalItem, error) {
	results, err := e.lexStore.Search(ctx, query, "", topN)
	if err != nil {
		return nil, errs.StoreReadError("lexical store search", err)
	}
	out := make([]retrievalItem, 0, len(results))
	for _, r := range results {
		out = append(out, retrievalItem{
			DocID:   r.DocID,
			FileID:  r.FileID,
			IsChunk: r.DocKind == lexstore.DocKindChunk,
		})
	}
	return out, nil
}

// isContentIndexed backs aggregateFiles' decay decision.
func (e *Engine) isContentIndexed(fileID string) bool {
	rec, ok := e.fileStore.Get(fileID)
	return ok && rec.ContentIndexed
}

// applyFilters drops files that don't satisfy opts.Filters, applied
// uniformly regardless of which retriever surfaced them (§6).
func (e *Engine) applyFilters(files []*aggregatedFile, filters Filters) []*aggregatedFile {
	if len(filters.Extensions) == 0 && filters.ModifiedFrom.IsZero() && filters.ModifiedTo.IsZero() && len(filters.PathPrefixes) == 0 {
		return files
	}

	extSet := make(map[string]bool, len(filters.Extensions))
	for _, ext := range filters.Extensions {
		extSet[strings.ToLower(ext)] = true
	}

	out := make([]*aggregatedFile, 0, len(files))
	for _, af := range files {
		rec, ok := e.fileStore.Get(af.FileID)
		if !ok {
			continue
		}
		if len(extSet) > 0 && !extSet[strings.ToLower(rec.Extension)] {
			continue
		}
		if !filters.ModifiedFrom.IsZero() && rec.ModifiedAt < float64(filters.ModifiedFrom.Unix()) {
			continue
		}
		if !filters.ModifiedTo.IsZero() && rec.ModifiedAt > float64(filters.ModifiedTo.Unix()) {
			continue
		}
		if len(filters.PathPrefixes) > 0 && !matchesAnyPrefix(rec.Path, filters.PathPrefixes) {
			continue
		}
		out = append(out, af)
	}
	return out
}

func matchesAnyPrefix(path string, prefixes []string) bool {
	clean := filepath.Clean(path)
	for _, p := range prefixes {
		if strings.HasPrefix(clean, filepath.Clean(p)) {
			return true
		}
	}
	return false
}

// rerank reorders files by running their best-scoring evidence text through
// the reranker. With the default NoOpReranker this is a no-op that
// preserves the incoming order.
func (e *Engine) rerank(ctx context.Context, query string, files []*aggregatedFile) []*aggregatedFile {
	if len(files) == 0 {
		return files
	}
	docs := make([]string, len(files))
	for i, af := range files {
		docs[i] = e.bestChunkText(af)
	}
	ranked, err := e.reranker.Rerank(ctx, query, docs, len(docs))
	if err != nil {
		e.log.Warn("rerank failed, keeping fusion order", "error", err)
		return files
	}
	out := make([]*aggregatedFile, 0, len(ranked))
	for _, r := range ranked {
		if r.Index < 0 || r.Index >= len(files) {
			continue
		}
		out = append(out, files[r.Index])
	}
	return out
}

func (e *Engine) bestChunkText(af *aggregatedFile) string {
	for _, it := range af.Items {
		if !it.IsChunk {
			continue
		}
		if rec, ok := e.chunks.Get(it.DocID); ok {
			return rec.Text
		}
	}
	return ""
}
