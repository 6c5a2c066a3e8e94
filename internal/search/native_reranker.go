package search

import (
	"context"
	"sort"

	"github.com/Ryan-gw-park/local-file-search/internal/tokenize"
)

// NativeReranker rescans each candidate's best evidence text against the
// query in-process, the same substitution embed.nativeEmbedder makes for
// embeddings: no cross-encoder weights ship in this module, so rather than
// calling out to a model server it scores query/document term overlap
// directly. It is always available and never fails, so ASSIST mode's
// "Optional reranker: on" knob has a real effect instead of being a
// permanent no-op behind NoOpReranker.
type NativeReranker struct{}

var _ Reranker = (*NativeReranker)(nil)

// NewNativeReranker constructs a NativeReranker. It takes no configuration
// because there is no endpoint, model alias, or timeout to hold — the
// scoring runs in this process.
func NewNativeReranker() *NativeReranker {
	return &NativeReranker{}
}

// Rerank scores each document by the fraction of its tokens that match a
// query term, a crude term-frequency-with-length-normalization stand-in
// for a trained cross-encoder's joint query/document relevance head.
// Results are sorted by score descending; ties keep their incoming order.
func (r *NativeReranker) Rerank(_ context.Context, query string, documents []string, topK int) ([]RerankResult, error) {
	if len(documents) == 0 {
		return []RerankResult{}, nil
	}

	queryTerms, _ := tokenize.Tokenize(query)
	queryTermSet := make(map[string]struct{}, len(queryTerms))
	for _, t := range queryTerms {
		queryTermSet[t] = struct{}{}
	}

	results := make([]RerankResult, len(documents))
	for i, doc := range documents {
		results[i] = RerankResult{
			Index:    i,
			Score:    termOverlapScore(queryTermSet, doc),
			Document: doc,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// termOverlapScore returns the fraction of doc's tokens that appear in
// queryTermSet, in [0, 1]. An empty query or document scores 0 rather than
// dividing by zero.
func termOverlapScore(queryTermSet map[string]struct{}, doc string) float64 {
	if len(queryTermSet) == 0 {
		return 0
	}
	docTerms, _ := tokenize.Tokenize(doc)
	if len(docTerms) == 0 {
		return 0
	}
	var matched float64
	for _, t := range docTerms {
		if _, ok := queryTermSet[t]; ok {
			matched++
		}
	}
	return matched / float64(len(docTerms))
}

// Available always returns true: NativeReranker has no external dependency
// to be unavailable.
func (r *NativeReranker) Available(_ context.Context) bool {
	return true
}

// Close is a no-op; NativeReranker holds no resources.
func (r *NativeReranker) Close() error {
	return nil
}
