// Package schema defines the wire/record types shared across the indexing
// and search pipelines: FileRecord, ChunkRecord, Evidence, SearchResponse,
// and Manifest. FileRecord, ChunkRecord, SearchResponse and Manifest carry
// SchemaVersion "2.0"; Evidence, which is never persisted, has no such field.
package schema

import "github.com/google/uuid"

// CurrentSchemaVersion is the discriminator every persisted record and
// on-disk file carries. A mismatch on load means refuse-to-open + reindex.
const CurrentSchemaVersion = "2.0"

// Source identifies where a FileRecord's bytes came from. Only "local" is
// populated by this module; the other values are reserved for the
// out-of-scope cloud connectors (§1) so the field's domain matches a future
// FileRecord produced by those external collaborators.
type Source string

const (
	SourceLocal      Source = "local"
	SourceOutlook    Source = "outlook"
	SourceOneDrive   Source = "onedrive"
	SourceSharePoint Source = "sharepoint"
	SourceGDrive     Source = "gdrive"
)

// Fingerprint is the tuple used to detect change for incremental indexing.
type Fingerprint struct {
	SizeBytes  int64   `json:"size_bytes"`
	ModifiedAt float64 `json:"modified_at"` // UTC epoch seconds
	Hash       string  `json:"hash,omitempty"`
}

// Equal reports whether two fingerprints are identical, i.e. the file has
// not "changed" per the Manifest Store's diff rule (§4.1).
func (f Fingerprint) Equal(other Fingerprint) bool {
	if f.SizeBytes != other.SizeBytes || f.ModifiedAt != other.ModifiedAt {
		return false
	}
	if f.Hash != "" && other.Hash != "" {
		return f.Hash == other.Hash
	}
	return true
}

// IndexStats summarizes a file's last successful indexing pass.
type IndexStats struct {
	ChunkCount    int     `json:"chunk_count"`
	LastIndexedAt float64 `json:"last_indexed_at"`
	IndexError    string  `json:"index_error,omitempty"`
}

// FileRecord is one per file, the root entity (§3).
type FileRecord struct {
	SchemaVersion string      `json:"schema_version"`
	FileID        string      `json:"file_id"`
	Source        Source      `json:"source"`
	ContentIndexed bool       `json:"content_indexed"`
	Path          string      `json:"path"`
	Filename      string      `json:"filename"`
	Extension     string      `json:"extension"`
	SizeBytes     int64       `json:"size_bytes"`
	CreatedAt     float64     `json:"created_at"`
	ModifiedAt    float64     `json:"modified_at"`
	Author        string      `json:"author,omitempty"`
	Fingerprint   Fingerprint `json:"fingerprint"`
	IndexStats    IndexStats  `json:"index_stats"`
}

// NewFileID generates a fresh, stable file_id. Per §3, a path change must
// produce a new file_id — callers never reuse an old one across a rename.
func NewFileID() string {
	return uuid.NewString()
}

// ChunkMetadata is a tagged-union-like struct: exactly one of these pointer
// fields is populated, matching the file's extraction type, per DESIGN NOTES
// §9 ("Metadata whose shape varies by file type should be a tagged union
// keyed on the file's extraction type").
type ChunkMetadata struct {
	HeaderPath []string        `json:"header_path,omitempty"` // Word, Markdown
	Slide      *SlideLocation  `json:"slide,omitempty"`       // PowerPoint
	Sheet      *SheetLocation  `json:"sheet,omitempty"`       // Excel
	Page       *int            `json:"page,omitempty"`        // PDF
}

type SlideLocation struct {
	SlideNumber int    `json:"slide_number"`
	SlideTitle  string `json:"slide_title"`
}

type SheetLocation struct {
	SheetName string `json:"sheet_name"`
	RowRange  string `json:"row_range"` // "\d+-\d+"
}

// ChunkRecord exists only for content-indexed files (§3).
type ChunkRecord struct {
	SchemaVersion string        `json:"schema_version"`
	ChunkID       string        `json:"chunk_id"`
	FileID        string        `json:"file_id"`
	ChunkIndex    int           `json:"chunk_index"`
	Text          string        `json:"text"`
	Embedding     []float32     `json:"embedding"`
	Tokens        []string      `json:"tokens"`
	Metadata      ChunkMetadata `json:"metadata"`
}

// NewChunkID generates a fresh chunk_id.
func NewChunkID() string {
	return uuid.NewString()
}

// Scores carries the per-source and final contribution to a file's rank, as
// surfaced on an Evidence record.
type Scores struct {
	Final  float64 `json:"final"`
	Dense  float64 `json:"dense"`
	Lexical float64 `json:"lexical"`
}

// Location mirrors ChunkMetadata for UI display on an Evidence record.
type Location struct {
	Page       *int     `json:"page,omitempty"`
	Slide      *int     `json:"slide,omitempty"`
	Sheet      string   `json:"sheet,omitempty"`
	RowRange   string   `json:"row_range,omitempty"`
	HeaderPath []string `json:"header_path,omitempty"`
}

// HighlightSpan marks a matched-token region within a snippet.
type HighlightSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Evidence is a query-time, non-persistent explanation attached to a file
// result (§3). Never written to disk.
type Evidence struct {
	EvidenceID string          `json:"evidence_id"`
	FileID     string          `json:"file_id"`
	Summary    string          `json:"summary"`
	Snippet    string          `json:"snippet"`
	Highlights []HighlightSpan `json:"highlights"`
	Scores     Scores          `json:"scores"`
	Location   Location        `json:"location"`
}

// NewEvidenceID generates a fresh evidence_id.
func NewEvidenceID() string {
	return uuid.NewString()
}

// MatchType records which retriever(s) contributed to a file's result.
type MatchType string

const (
	MatchSemantic MatchType = "semantic"
	MatchLexical  MatchType = "lexical"
	MatchHybrid   MatchType = "hybrid"
)

// SearchResult is one file's entry in a SearchResponse.
type SearchResult struct {
	FileID           string     `json:"file_id"`
	Path             string     `json:"path"`
	Filename         string     `json:"filename"`
	ContentAvailable bool       `json:"content_available"`
	FinalFileScore   float64    `json:"final_file_score"`
	MatchType        MatchType  `json:"match_type"`
	Evidences        []Evidence `json:"evidences"`
}

// SearchResponse is returned verbatim to the UI, §6.
type SearchResponse struct {
	SchemaVersion string         `json:"schema_version"`
	Query         string         `json:"query"`
	ElapsedMS     int64          `json:"elapsed_ms"`
	Results       []SearchResult `json:"results"`
	Error         string         `json:"error,omitempty"`
}

// ManifestEntry is the per-path record kept by the Manifest Store (§4.1).
type ManifestEntry struct {
	FileID        string      `json:"file_id"`
	Fingerprint   Fingerprint `json:"fingerprint"`
	LastIndexedAt float64     `json:"last_indexed_at"`
}

// Manifest is the authoritative incremental-indexing state: absolute path to
// ManifestEntry, plus its own schema version (§3).
type Manifest struct {
	SchemaVersion string                   `json:"schema_version"`
	Entries       map[string]ManifestEntry `json:"entries"`
}

// NewManifest returns an empty Manifest at the current schema version.
func NewManifest() Manifest {
	return Manifest{SchemaVersion: CurrentSchemaVersion, Entries: make(map[string]ManifestEntry)}
}
