package search

import (
	"sort"

	"github.com/Ryan-gw-park/local-file-search/internal/schema"
)

// aggregationAlpha weights the top-3 mean term in the file score (§4.14).
// Frozen by the aggregation design, not exposed through Config.
const aggregationAlpha = 0.2

// metadataOnlyDecay discounts a metadata-only file's aggregated score
// (§4.14), applied after aggregation, not before.
const metadataOnlyDecay = 0.4

// aggregatedFile is one file's result after RRF fusion and aggregation,
// still missing its Evidence slice.
type aggregatedFile struct {
	FileID         string
	FileScore      float64 // pre-decay: max + alpha*mean(top3)
	FinalScore     float64 // post-decay
	MatchType      schema.MatchType
	ContentIndexed bool
	Items          []*fusedItem // this file's items, descending RRF score
}

// aggregateFiles groups fused items by file and computes each file's score
// (§4.14): file_score = max(chunk_rrf_scores) + alpha*mean(top_3(scores)).
// contentIndexed reports whether a file_id is content-indexed, used to
// decide the metadata-only decay. match_type comes from the items alone, so
// a file whose only hit was a doc_kind=file lexical match is "lexical".
func aggregateFiles(items []*fusedItem, contentIndexed func(fileID string) bool) []*aggregatedFile {
	groups := groupByFile(items)

	out := make([]*aggregatedFile, 0, len(groups))
	for fileID, groupItems := range groups {
		sort.SliceStable(groupItems, func(i, j int) bool {
			return groupItems[i].RRFScore > groupItems[j].RRFScore
		})

		scores := make([]float64, len(groupItems))
		for i, it := range groupItems {
			scores[i] = it.RRFScore
		}

		maxScore := scores[0]
		top := scores
		if len(top) > 3 {
			top = top[:3]
		}
		var sum float64
		for _, s := range top {
			sum += s
		}
		mean := sum / float64(len(top))

		fileScore := maxScore + aggregationAlpha*mean

		contentIdx := contentIndexed(fileID)
		final := fileScore
		if !contentIdx {
			final = fileScore * metadataOnlyDecay
		}

		out = append(out, &aggregatedFile{
			FileID:         fileID,
			FileScore:      fileScore,
			FinalScore:     final,
			MatchType:      matchTypeFor(groupItems),
			ContentIndexed: contentIdx,
			Items:          groupItems,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].FinalScore > out[j].FinalScore })
	return out
}

// matchTypeFor derives a file's match_type from which source(s) contributed
// across its items: semantic if every contribution was dense-only, lexical
// if every contribution was lexical-only, hybrid if both sources
// contributed (either within one item or across different items).
func matchTypeFor(items []*fusedItem) schema.MatchType {
	var sawDense, sawLexical bool
	for _, it := range items {
		if it.inDense() {
			sawDense = true
		}
		if it.inLexical() {
			sawLexical = true
		}
	}
	switch {
	case sawDense && sawLexical:
		return schema.MatchHybrid
	case sawDense:
		return schema.MatchSemantic
	default:
		return schema.MatchLexical
	}
}
