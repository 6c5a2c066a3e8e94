package search

import "sort"

// rrfConstant is the RRF k constant (§4.13). Frozen by the fusion design,
// not exposed through Config.
const rrfConstant = 60.0

// retrievalItem is one chunk-or-file-doc hit from a single retriever,
// normalized to the fields fusion needs regardless of source.
type retrievalItem struct {
	DocID   string // chunk_id, or file_id for a doc_kind=file lexical hit
	FileID  string
	IsChunk bool // false for a doc_kind=file lexical hit (no ChunkRecord)
}

// fusedItem is one retrieval item after RRF scoring, still file-less until
// grouped by FileID.
type fusedItem struct {
	retrievalItem
	DenseRank    int // 1-based; 0 means absent from the dense list
	LexicalRank  int // 1-based; 0 means absent from the lexical list
	DenseScore   float64 // this item's dense-source RRF contribution alone
	LexicalScore float64 // this item's lexical-source RRF contribution alone
	RRFScore     float64 // DenseScore + LexicalScore
}

func (f *fusedItem) inDense() bool  { return f.DenseRank > 0 }
func (f *fusedItem) inLexical() bool { return f.LexicalRank > 0 }

// fuseItems computes per-item RRF scores (§4.13): rrf(item) = sum over the
// sources the item appears in of 1/(k+rank), rank 1-based, a missing source
// contributing 0. dense and lexical are each assumed already ranked best
// first. An item present in both sources is merged into one fusedItem keyed
// by DocID.
func fuseItems(dense []retrievalItem, lexical []retrievalItem) []*fusedItem {
	byID := make(map[string]*fusedItem, len(dense)+len(lexical))
	order := make([]string, 0, len(dense)+len(lexical))

	get := func(item retrievalItem) *fusedItem {
		f, ok := byID[item.DocID]
		if !ok {
			f = &fusedItem{retrievalItem: item}
			byID[item.DocID] = f
			order = append(order, item.DocID)
		}
		if f.FileID == "" {
			f.FileID = item.FileID
		}
		return f
	}

	for i, item := range dense {
		f := get(item)
		f.DenseRank = i + 1
	}
	for i, item := range lexical {
		f := get(item)
		f.LexicalRank = i + 1
	}

	out := make([]*fusedItem, 0, len(order))
	for _, id := range order {
		f := byID[id]
		if f.inDense() {
			f.DenseScore = 1.0 / (rrfConstant + float64(f.DenseRank))
		}
		if f.inLexical() {
			f.LexicalScore = 1.0 / (rrfConstant + float64(f.LexicalRank))
		}
		f.RRFScore = f.DenseScore + f.LexicalScore
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RRFScore > out[j].RRFScore })
	return out
}

// groupByFile buckets fused items by FileID, preserving each bucket's
// descending-RRF-score order (the File Aggregator's "chunk_rrf_scores").
func groupByFile(items []*fusedItem) map[string][]*fusedItem {
	groups := make(map[string][]*fusedItem)
	for _, it := range items {
		groups[it.FileID] = append(groups[it.FileID], it)
	}
	return groups
}
