// Package chunk implements the Structural Chunker (§4.6): it turns a file's
// extracted Units into chunk-ready text plus the ChunkMetadata the matching
// schema.ChunkRecord needs, applying the 1000-char/100-char-overlap budget
// and the per-format splitting rules. A chunk whose required metadata can't
// be populated is dropped rather than ever persisted invalid.
package chunk

import "github.com/Ryan-gw-park/local-file-search/internal/schema"

const (
	// MaxChars is the hard ceiling on a chunk's text length (§4.6).
	MaxChars = 1000
	// OverlapChars is carried from the tail of one split chunk into the
	// head of the next, within a single oversized unit (§4.6).
	OverlapChars = 100
)

// Options configures the chunker. Zero value uses the spec defaults.
type Options struct {
	MaxChars     int
	OverlapChars int
}

func (o Options) withDefaults() Options {
	if o.MaxChars <= 0 {
		o.MaxChars = MaxChars
	}
	if o.OverlapChars <= 0 {
		o.OverlapChars = OverlapChars
	}
	return o
}

// Draft is a chunk ready to become a schema.ChunkRecord, short of the
// chunk_id/file_id/embedding/tokens the Orchestrator fills in after tokenize
// and embed run (§4.9).
type Draft struct {
	Text     string
	Metadata schema.ChunkMetadata
}
