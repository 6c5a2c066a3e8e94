package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ryan-gw-park/local-file-search/internal/schema"
)

const (
	minSnippetLen = 200
	maxSnippetLen = 500
)

// chunkLookup fetches the ChunkRecord behind a chunk_id, as stored by
// internal/chunkstore.
type chunkLookup func(chunkID string) (schema.ChunkRecord, bool)

// buildEvidences selects up to perFile chunks from af's items by descending
// chunk-level RRF score, preferring distinct location metadata, and builds
// one Evidence per selected chunk (§4.15). A metadata-only file (no chunk
// hits at all) gets an empty slice.
func buildEvidences(af *aggregatedFile, perFile int, queryTokens []string, getChunk chunkLookup) []schema.Evidence {
	chunkItems := make([]*fusedItem, 0, len(af.Items))
	for _, it := range af.Items {
		if it.IsChunk {
			chunkItems = append(chunkItems, it)
		}
	}
	if len(chunkItems) == 0 {
		return []schema.Evidence{}
	}

	selected := selectDiverseChunks(chunkItems, perFile, getChunk)

	out := make([]schema.Evidence, 0, len(selected))
	for _, it := range selected {
		rec, ok := getChunk(it.DocID)
		if !ok {
			continue
		}
		snippet, highlights := buildSnippet(rec.Text, queryTokens)
		out = append(out, schema.Evidence{
			EvidenceID: schema.NewEvidenceID(),
			FileID:     af.FileID,
			Summary:    buildSummary(rec, af.MatchType),
			Snippet:    snippet,
			Highlights: highlights,
			Scores: schema.Scores{
				Final:   af.FinalScore,
				Dense:   it.DenseScore,
				Lexical: it.LexicalScore,
			},
			Location: locationFor(rec.Metadata),
		})
	}
	return out
}

// selectDiverseChunks returns up to n items from chunkItems (already
// descending-RRF-ordered), preferring chunks whose location metadata
// differs from chunks already picked, tie-broken by chunk_index.
func selectDiverseChunks(chunkItems []*fusedItem, n int, getChunk chunkLookup) []*fusedItem {
	if n <= 0 {
		return nil
	}

	type candidate struct {
		item     *fusedItem
		locKey   string
		chunkIdx int
	}
	cands := make([]candidate, 0, len(chunkItems))
	for _, it := range chunkItems {
		rec, ok := getChunk(it.DocID)
		locKey := ""
		idx := 0
		if ok {
			locKey = locationKey(rec.Metadata)
			idx = rec.ChunkIndex
		}
		cands = append(cands, candidate{item: it, locKey: locKey, chunkIdx: idx})
	}

	seenLoc := make(map[string]bool)
	var picked []*fusedItem
	var leftover []candidate

	// First pass: highest-RRF chunk per distinct location.
	for _, c := range cands {
		if len(picked) >= n {
			break
		}
		if c.locKey != "" && seenLoc[c.locKey] {
			leftover = append(leftover, c)
			continue
		}
		seenLoc[c.locKey] = true
		picked = append(picked, c.item)
	}

	// Second pass: fill remaining slots from leftovers, tie-break by
	// chunk_index for determinism.
	if len(picked) < n {
		sort.SliceStable(leftover, func(i, j int) bool {
			if leftover[i].item.RRFScore != leftover[j].item.RRFScore {
				return leftover[i].item.RRFScore > leftover[j].item.RRFScore
			}
			return leftover[i].chunkIdx < leftover[j].chunkIdx
		})
		for _, c := range leftover {
			if len(picked) >= n {
				break
			}
			picked = append(picked, c.item)
		}
	}

	return picked
}

func locationKey(m schema.ChunkMetadata) string {
	switch {
	case m.Page != nil:
		return fmt.Sprintf("page:%d", *m.Page)
	case m.Slide != nil:
		return fmt.Sprintf("slide:%d", m.Slide.SlideNumber)
	case m.Sheet != nil:
		return fmt.Sprintf("sheet:%s:%s", m.Sheet.SheetName, m.Sheet.RowRange)
	case len(m.HeaderPath) > 0:
		return "header:" + strings.Join(m.HeaderPath, "/")
	default:
		return ""
	}
}

func locationFor(m schema.ChunkMetadata) schema.Location {
	loc := schema.Location{HeaderPath: m.HeaderPath}
	if m.Page != nil {
		p := *m.Page
		loc.Page = &p
	}
	if m.Slide != nil {
		n := m.Slide.SlideNumber
		loc.Slide = &n
	}
	if m.Sheet != nil {
		loc.Sheet = m.Sheet.SheetName
		loc.RowRange = m.Sheet.RowRange
	}
	return loc
}

// buildSnippet extracts a 200-500 char window around the densest
// query-token match region in text and highlights each matched token.
func buildSnippet(text string, queryTokens []string) (string, []schema.HighlightSpan) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if len(text) <= maxSnippetLen {
		return text, highlightsIn(text, 0, queryTokens)
	}

	lower := strings.ToLower(text)
	center := densestMatchCenter(lower, queryTokens)

	start := center - minSnippetLen/2
	if start < 0 {
		start = 0
	}
	end := start + maxSnippetLen
	if end > len(text) {
		end = len(text)
		start = end - maxSnippetLen
		if start < 0 {
			start = 0
		}
	}
	snippet := text[start:end]
	return snippet, highlightsIn(snippet, start, queryTokens)
}

// densestMatchCenter finds the byte offset with the most query-token hits
// within a maxSnippetLen window, via a sliding count over match positions.
func densestMatchCenter(lowerText string, queryTokens []string) int {
	var positions []int
	for _, tok := range queryTokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		for i := 0; i+len(tok) <= len(lowerText); {
			idx := strings.Index(lowerText[i:], tok)
			if idx < 0 {
				break
			}
			positions = append(positions, i+idx)
			i += idx + len(tok)
		}
	}
	if len(positions) == 0 {
		return 0
	}
	sort.Ints(positions)

	bestStart, bestCount := positions[0], 1
	j := 0
	for i := range positions {
		for positions[i]-positions[j] > maxSnippetLen {
			j++
		}
		if count := i - j + 1; count > bestCount {
			bestCount = count
			bestStart = positions[j]
		}
	}
	return bestStart
}

func highlightsIn(snippet string, baseOffset int, queryTokens []string) []schema.HighlightSpan {
	lower := strings.ToLower(snippet)
	var spans []schema.HighlightSpan
	for _, tok := range queryTokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		for i := 0; i+len(tok) <= len(lower); {
			idx := strings.Index(lower[i:], tok)
			if idx < 0 {
				break
			}
			pos := i + idx
			spans = append(spans, schema.HighlightSpan{Start: pos, End: pos + len(tok)})
			i = pos + len(tok)
		}
	}
	_ = baseOffset // spans are relative to the returned snippet, not the full text
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

func buildSummary(rec schema.ChunkRecord, matchType schema.MatchType) string {
	switch matchType {
	case schema.MatchSemantic:
		return fmt.Sprintf("Semantically similar passage in chunk %d", rec.ChunkIndex)
	case schema.MatchLexical:
		return fmt.Sprintf("Keyword match in chunk %d", rec.ChunkIndex)
	default:
		return fmt.Sprintf("Matches query terms and meaning in chunk %d", rec.ChunkIndex)
	}
}
