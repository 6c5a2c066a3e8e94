// Package search implements the query-time retrieval pipeline: Query
// Processor -> (Dense Retriever || Lexical Retriever) -> RRF Fusion (file
// granularity) -> File Aggregator -> Evidence Builder -> Search Engine.
package search

import (
	"time"

	"github.com/Ryan-gw-park/local-file-search/internal/schema"
)

// Mode selects a preset of retrieval pipeline knobs. Functionality is
// identical across modes; only the knob values differ.
type Mode string

const (
	ModeFast   Mode = "fast"
	ModeSmart  Mode = "smart"
	ModeAssist Mode = "assist"
)

// ModeConfig holds the per-mode pipeline knobs.
type ModeConfig struct {
	DenseTopN        int
	BM25TopN         int
	EvidencesPerFile int
	RerankerEnabled  bool
}

var modeConfigs = map[Mode]ModeConfig{
	ModeFast:   {DenseTopN: 20, BM25TopN: 20, EvidencesPerFile: 2, RerankerEnabled: false},
	ModeSmart:  {DenseTopN: 50, BM25TopN: 50, EvidencesPerFile: 3, RerankerEnabled: false},
	ModeAssist: {DenseTopN: 50, BM25TopN: 50, EvidencesPerFile: 5, RerankerEnabled: true},
}

// ConfigFor returns the knob preset for a mode, defaulting to ModeSmart for
// an unrecognized or empty mode.
func ConfigFor(m Mode) ModeConfig {
	if cfg, ok := modeConfigs[m]; ok {
		return cfg
	}
	return modeConfigs[ModeSmart]
}

// Filters restrict retrieval uniformly across both retrievers.
type Filters struct {
	Extensions   []string // empty = no filter
	ModifiedFrom time.Time
	ModifiedTo   time.Time
	PathPrefixes []string // empty = no filter
}

// Options configures a single search call.
type Options struct {
	Mode    Mode
	Filters Filters
	Limit   int // max results returned; defaults to 20, capped at 50
}

const maxResults = 50
const defaultLimit = 20

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeSmart
	}
	if o.Limit <= 0 {
		o.Limit = defaultLimit
	}
	if o.Limit > maxResults {
		o.Limit = maxResults
	}
	return o
}

// Response aliases schema.SearchResponse so the engine's public surface
// matches the wire shape returned verbatim to callers.
type Response = schema.SearchResponse
