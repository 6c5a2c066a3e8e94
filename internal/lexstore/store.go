// Package lexstore implements the Lexical (BM25) Store (§4.9) on top of
// bleve, indexing two kinds of document per §3: a "chunk" document per
// ChunkRecord (content-indexed files only) and a "file" document per
// FileRecord carrying just its filename/path (every file, including
// metadata-only ones, so a filename match still surfaces them lexically).
package lexstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Ryan-gw-park/local-file-search/internal/tokenize"
)

const (
	// DocKindChunk marks a chunk-granular document (body = chunk text).
	DocKindChunk = "chunk"
	// DocKindFile marks a file-granular document (body = filename/path),
	// present for every file regardless of content_indexed (§3).
	DocKindFile = "file"

	analyzerName  = "localfinderx_text"
	tokenizerName = "localfinderx_tokenizer"
	stopName      = "localfinderx_stop"
)

func init() {
	_ = registry.RegisterTokenizer(tokenizerName, tokenizerConstructor)
	_ = registry.RegisterTokenFilter(stopName, stopFilterConstructor)
}

// Document is one unit handed to Index. Content is tokenized with the
// Korean/English Tokenizer (§4.7); DocID is the chunk_id or file_id.
type Document struct {
	DocID   string
	FileID  string
	DocKind string
	Content string
}

type bleveDoc struct {
	Content string `json:"content"`
	DocKind string `json:"doc_kind"`
	FileID  string `json:"file_id"`
}

// Result is a single lexical hit.
type Result struct {
	DocID        string
	FileID       string
	DocKind      string
	Score        float64
	MatchedTerms []string
}

// Store wraps a bleve index with the LocalFinderX document/analyzer setup.
type Store struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// Open creates or opens the BM25 index at path. An empty path opens an
// in-memory index (used by tests).
func Open(path string) (*Store, error) {
	indexMapping, err := buildMapping()
	if err != nil {
		return nil, fmt.Errorf("build bleve mapping: %w", err)
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("create lexical store directory: %w", mkErr)
		}
		if validErr := validateIntegrity(path); validErr != nil {
			slog.Warn("lexical index corrupted, rebuilding", "path", path, "error", validErr)
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return nil, fmt.Errorf("lexical index corrupted and could not be removed: %w", rmErr)
			}
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		} else if err != nil && isCorruptionError(err) {
			slog.Warn("lexical index open failed, rebuilding", "path", path, "error", err)
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return nil, fmt.Errorf("lexical index corrupted, cannot clear: %w", rmErr)
			}
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create/open lexical index: %w", err)
	}

	return &Store{index: idx, path: path}, nil
}

func buildMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	if err := im.AddCustomAnalyzer(analyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     tokenizerName,
		"token_filters": []string{lowercase.Name, stopName},
	}); err != nil {
		return nil, fmt.Errorf("add custom analyzer: %w", err)
	}
	im.DefaultAnalyzer = analyzerName

	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = analyzerName
	docMapping.AddFieldMappingsAt("content", contentField)

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt("doc_kind", keywordField)
	docMapping.AddFieldMappingsAt("file_id", keywordField)

	im.DefaultMapping = docMapping
	return im, nil
}

// Index upserts documents into the index.
func (s *Store) Index(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("lexical store is closed")
	}

	batch := s.index.NewBatch()
	for _, d := range docs {
		if err := batch.Index(d.DocID, bleveDoc{Content: d.Content, DocKind: d.DocKind, FileID: d.FileID}); err != nil {
			return fmt.Errorf("index document %s: %w", d.DocID, err)
		}
	}
	return s.index.Batch(batch)
}

// Search runs a BM25 match query against content, optionally restricted to
// one doc_kind (pass "" to search both chunk and file documents).
func (s *Store) Search(ctx context.Context, queryStr string, kind string, limit int) ([]*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("lexical store is closed")
	}
	if strings.TrimSpace(queryStr) == "" {
		return []*Result{}, nil
	}

	match := bleve.NewMatchQuery(queryStr)
	match.SetField("content")

	finalQuery := buildQuery(match, kind)

	req := bleve.NewSearchRequest(finalQuery)
	req.Size = limit
	req.IncludeLocations = true
	req.Fields = []string{"file_id", "doc_kind"}

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	out := make([]*Result, 0, len(result.Hits))
	for _, hit := range result.Hits {
		out = append(out, &Result{
			DocID:        hit.ID,
			FileID:       stringField(hit.Fields, "file_id"),
			DocKind:      stringField(hit.Fields, "doc_kind"),
			Score:        hit.Score,
			MatchedTerms: matchedTerms(hit),
		})
	}
	return out, nil
}

func buildQuery(match *query.MatchQuery, kind string) query.Query {
	if kind == "" {
		return match
	}
	kindQuery := bleve.NewTermQuery(kind)
	kindQuery.SetField("doc_kind")
	return bleve.NewConjunctionQuery(match, kindQuery)
}

func stringField(fields map[string]interface{}, key string) string {
	if v, ok := fields[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func matchedTerms(hit *search.DocumentMatch) []string {
	seen := make(map[string]struct{})
	for field, locations := range hit.Locations {
		if field != "content" {
			continue
		}
		for term := range locations {
			seen[term] = struct{}{}
		}
	}
	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	return terms
}

// Delete removes documents by doc ID (chunk_id or file_id).
func (s *Store) Delete(ctx context.Context, docIDs []string) error {
	if len(docIDs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("lexical store is closed")
	}
	batch := s.index.NewBatch()
	for _, id := range docIDs {
		batch.Delete(id)
	}
	return s.index.Batch(batch)
}

// DeleteByFileID removes the file-kind document and every chunk-kind
// document carrying file_id, used before a reindex or on file removal.
func (s *Store) DeleteByFileID(ctx context.Context, fileID string) error {
	s.mu.RLock()
	q := bleve.NewTermQuery(fileID)
	q.SetField("file_id")
	req := bleve.NewSearchRequest(q)
	req.Size = 10000
	result, err := s.index.Search(req)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("find documents for file %s: %w", fileID, err)
	}

	ids := make([]string, 0, len(result.Hits)+1)
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	ids = append(ids, fileID) // the file-kind doc itself uses file_id as DocID
	return s.Delete(ctx, ids)
}

// AllIDs returns every document ID currently indexed.
func (s *Store) AllIDs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("lexical store is closed")
	}
	count, _ := s.index.DocCount()
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	req.Fields = nil
	result, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("list all documents: %w", err)
	}
	ids := make([]string, len(result.Hits))
	for i, hit := range result.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// Close closes the underlying bleve index. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.index.Close()
}

func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing")
	}
	if err != nil {
		return fmt.Errorf("stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json empty")
	}
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json unparsable: %w", err)
	}
	return nil
}

func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unexpected end of JSON") ||
		strings.Contains(msg, "error parsing mapping JSON") ||
		strings.Contains(msg, "failed to load segment") ||
		strings.Contains(msg, "error opening bolt") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// tokenizerConstructor adapts the Tokenizer package into a bleve Tokenizer.
func tokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &bleveTokenizer{}, nil
}

type bleveTokenizer struct{}

func (bleveTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	tokens, _ := tokenize.Tokenize(text) // a degrade-warning is non-fatal here; content is still indexed

	result := make(analysis.TokenStream, 0, len(tokens))
	offset := 0
	for pos, tok := range tokens {
		start := strings.Index(strings.ToLower(text[offset:]), strings.ToLower(tok))
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(tok)
		result = append(result, &analysis.Token{
			Term:     []byte(tok),
			Start:    start,
			End:      end,
			Position: pos + 1,
			Type:     analysis.AlphaNumeric,
		})
		if end <= len(text) {
			offset = end
		}
	}
	return result
}

// stopFilterConstructor removes empty/degenerate tokens post-lowercase.
func stopFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &minLengthFilter{min: 1}, nil
}

type minLengthFilter struct{ min int }

func (f minLengthFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	out := make(analysis.TokenStream, 0, len(input))
	for _, tok := range input {
		if len(tok.Term) >= f.min {
			out = append(out, tok)
		}
	}
	return out
}
