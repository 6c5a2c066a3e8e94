package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNativeReranker_Rerank_PrefersHigherTermOverlap(t *testing.T) {
	reranker := NewNativeReranker()
	documents := []string{
		"quarterly revenue report for the northeast region",
		"a recipe for chocolate chip cookies",
		"revenue and expenses for the quarterly report",
	}

	results, err := reranker.Rerank(context.Background(), "quarterly revenue report", documents, 0)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Contains(t, results[0].Document, "revenue")
	assert.Equal(t, "a recipe for chocolate chip cookies", results[2].Document)
}

func TestNativeReranker_Rerank_RespectsTopK(t *testing.T) {
	reranker := NewNativeReranker()
	documents := []string{"alpha beta", "alpha beta gamma", "gamma delta"}

	results, err := reranker.Rerank(context.Background(), "alpha beta", documents, 2)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestNativeReranker_Rerank_EmptyDocuments(t *testing.T) {
	reranker := NewNativeReranker()

	results, err := reranker.Rerank(context.Background(), "query", []string{}, 0)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNativeReranker_Rerank_EmptyQueryScoresZero(t *testing.T) {
	reranker := NewNativeReranker()
	documents := []string{"some document text"}

	results, err := reranker.Rerank(context.Background(), "", documents, 0)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0.0, results[0].Score)
}

func TestNativeReranker_Available(t *testing.T) {
	reranker := NewNativeReranker()
	assert.True(t, reranker.Available(context.Background()))
}

func TestNativeReranker_Close(t *testing.T) {
	reranker := NewNativeReranker()
	assert.NoError(t, reranker.Close())
}

func TestNativeReranker_InterfaceCompliance(t *testing.T) {
	var _ Reranker = (*NativeReranker)(nil)
}
