// Package orchestrator implements the Indexing Orchestrator (§4.9): the
// state machine that turns a set of root directories into persisted
// FileRecords, ChunkRecords, vector entries, and lexical documents,
// incrementally, with per-file failure isolation and cooperative
// cancellation (§5).
package orchestrator

import "github.com/Ryan-gw-park/local-file-search/internal/chunk"

// Options configures one Index run.
type Options struct {
	// Roots is the set of directories to enumerate.
	Roots []string
	// IncludeHidden overrides the default exclusion of dotfiles/dotdirs.
	IncludeHidden bool
	// MaxConcurrency bounds parallel file processing (§5). Zero uses the
	// package default (GOMAXPROCS).
	MaxConcurrency int
	// Chunk overrides the Structural Chunker's size/overlap budget. Zero
	// value uses the spec defaults (§4.6).
	Chunk chunk.Options
}

// ProgressEvent reports incremental progress of a running Index call.
type ProgressEvent struct {
	FilesTotal  int
	Done        int
	Failed      int
	CurrentPath string
}

// Summary is the terminal report of one Index run (§4.9): counts over the
// files touched this run (added + changed). A file counts toward Failed
// when it suffered an extraction/embedding failure even though it was
// still recovered as metadata-only — Failed and MetadataOnly are not
// mutually exclusive.
type Summary struct {
	Total          int
	ContentIndexed int
	MetadataOnly   int
	Failed         int
}
