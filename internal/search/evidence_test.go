package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ryan-gw-park/local-file-search/internal/schema"
)

func TestBuildEvidences_MetadataOnlyFileReturnsEmpty(t *testing.T) {
	af := &aggregatedFile{
		FileID: "f1",
		Items:  []*fusedItem{{retrievalItem: retrievalItem{DocID: "f1", FileID: "f1", IsChunk: false}}},
	}

	ev := buildEvidences(af, 3, nil, func(string) (schema.ChunkRecord, bool) { return schema.ChunkRecord{}, false })

	assert.Empty(t, ev)
}

func TestBuildEvidences_RespectsPerFileLimit(t *testing.T) {
	chunks := map[string]schema.ChunkRecord{
		"c1": {ChunkID: "c1", FileID: "f1", ChunkIndex: 0, Text: "alpha beta gamma delta"},
		"c2": {ChunkID: "c2", FileID: "f1", ChunkIndex: 1, Text: "epsilon zeta eta theta"},
		"c3": {ChunkID: "c3", FileID: "f1", ChunkIndex: 2, Text: "iota kappa lambda mu"},
	}
	af := &aggregatedFile{
		FileID:    "f1",
		MatchType: schema.MatchHybrid,
		Items: []*fusedItem{
			{retrievalItem: retrievalItem{DocID: "c1", FileID: "f1", IsChunk: true}, RRFScore: 0.9},
			{retrievalItem: retrievalItem{DocID: "c2", FileID: "f1", IsChunk: true}, RRFScore: 0.8},
			{retrievalItem: retrievalItem{DocID: "c3", FileID: "f1", IsChunk: true}, RRFScore: 0.7},
		},
	}

	ev := buildEvidences(af, 2, []string{"alpha"}, func(id string) (schema.ChunkRecord, bool) {
		rec, ok := chunks[id]
		return rec, ok
	})

	assert.Len(t, ev, 2)
	for _, e := range ev {
		assert.Equal(t, "f1", e.FileID)
		assert.NotEmpty(t, e.EvidenceID)
	}
}

func TestBuildEvidences_PopulatesPerSourceScores(t *testing.T) {
	chunks := map[string]schema.ChunkRecord{
		"c1": {ChunkID: "c1", FileID: "f1", ChunkIndex: 0, Text: "alpha beta gamma"},
	}
	af := &aggregatedFile{
		FileID:     "f1",
		FinalScore: 0.42,
		Items: []*fusedItem{
			{
				retrievalItem: retrievalItem{DocID: "c1", FileID: "f1", IsChunk: true},
				DenseRank:     1,
				LexicalRank:   2,
				DenseScore:    1.0 / 61.0,
				LexicalScore:  1.0 / 62.0,
				RRFScore:      1.0/61.0 + 1.0/62.0,
			},
		},
	}

	ev := buildEvidences(af, 1, []string{"alpha"}, func(id string) (schema.ChunkRecord, bool) {
		rec, ok := chunks[id]
		return rec, ok
	})

	require.Len(t, ev, 1)
	assert.Equal(t, 0.42, ev[0].Scores.Final)
	assert.InDelta(t, 1.0/61.0, ev[0].Scores.Dense, 1e-9)
	assert.InDelta(t, 1.0/62.0, ev[0].Scores.Lexical, 1e-9)
}

func TestSelectDiverseChunks_PrefersDistinctLocations(t *testing.T) {
	p1, p2 := 1, 2
	chunks := map[string]schema.ChunkRecord{
		"c1": {ChunkID: "c1", ChunkIndex: 0, Metadata: schema.ChunkMetadata{Page: &p1}},
		"c2": {ChunkID: "c2", ChunkIndex: 1, Metadata: schema.ChunkMetadata{Page: &p1}}, // same page as c1
		"c3": {ChunkID: "c3", ChunkIndex: 2, Metadata: schema.ChunkMetadata{Page: &p2}},
	}
	items := []*fusedItem{
		{retrievalItem: retrievalItem{DocID: "c1", IsChunk: true}, RRFScore: 0.9},
		{retrievalItem: retrievalItem{DocID: "c2", IsChunk: true}, RRFScore: 0.8},
		{retrievalItem: retrievalItem{DocID: "c3", IsChunk: true}, RRFScore: 0.5},
	}

	lookup := func(id string) (schema.ChunkRecord, bool) {
		rec, ok := chunks[id]
		return rec, ok
	}

	selected := selectDiverseChunks(items, 2, lookup)

	require.Len(t, selected, 2)
	ids := []string{selected[0].DocID, selected[1].DocID}
	assert.Contains(t, ids, "c1")
	assert.NotContains(t, ids, "c2", "c2 shares c1's location and should be skipped while a distinct-location candidate remains")
}

func TestBuildSnippet_ShortTextReturnedWhole(t *testing.T) {
	text := "a short passage about searching files"
	snippet, highlights := buildSnippet(text, []string{"searching"})

	assert.Equal(t, text, snippet)
	require.Len(t, highlights, 1)
	assert.Equal(t, "searching", snippet[highlights[0].Start:highlights[0].End])
}

func TestBuildSnippet_LongTextWindowsAroundDenseMatchRegion(t *testing.T) {
	filler := strings.Repeat("x ", 400)
	text := filler + "needle needle needle " + strings.Repeat("y ", 400)

	snippet, highlights := buildSnippet(text, []string{"needle"})

	assert.LessOrEqual(t, len(snippet), maxSnippetLen)
	assert.Contains(t, snippet, "needle")
	assert.NotEmpty(t, highlights)
}

func TestBuildSnippet_EmptyTextReturnsEmpty(t *testing.T) {
	snippet, highlights := buildSnippet("   ", []string{"x"})
	assert.Empty(t, snippet)
	assert.Empty(t, highlights)
}

func TestLocationFor_CopiesPointerFieldsByValue(t *testing.T) {
	page := 4
	meta := schema.ChunkMetadata{Page: &page}

	loc := locationFor(meta)
	page = 99 // mutate original; loc.Page must not change

	require.NotNil(t, loc.Page)
	assert.Equal(t, 4, *loc.Page)
}

func TestBuildSummary_VariesByMatchType(t *testing.T) {
	rec := schema.ChunkRecord{ChunkIndex: 2}

	assert.Contains(t, buildSummary(rec, schema.MatchSemantic), "Semantically")
	assert.Contains(t, buildSummary(rec, schema.MatchLexical), "Keyword")
	assert.Contains(t, buildSummary(rec, schema.MatchHybrid), "Matches")
}
