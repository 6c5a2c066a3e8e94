// Package chunkstore holds the chunk_id-keyed table of schema.ChunkRecord
// text and location metadata (§3) that the Vector Store and BM25 Store
// don't carry themselves: vectorstore.Store keys embeddings by chunk_id but
// stores no text or location, and lexstore.Store indexes chunk text for
// BM25 scoring but not its structured location. The Evidence Builder
// (§4.15) needs both, so this store is their shared source of truth,
// following the same flat-JSON, atomic-write shape as the Manifest and File
// Record stores (no SQL engine is wired into this module).
package chunkstore

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Ryan-gw-park/local-file-search/internal/paths"
	"github.com/Ryan-gw-park/local-file-search/internal/schema"
)

type document struct {
	SchemaVersion string                        `json:"schema_version"`
	Records       map[string]schema.ChunkRecord `json:"records"` // keyed by chunk_id
}

// Store is the Chunk Record Store.
type Store struct {
	path string

	mu        sync.RWMutex
	records   map[string]schema.ChunkRecord
	fileIndex map[string]map[string]struct{} // file_id -> set of chunk_id
}

// Path derives the Chunk Record Store's on-disk location: it lives beside
// manifest.json and files.json in data/.
func Path(l paths.Layout) string {
	return filepath.Join(l.DataDir(), "chunks.json")
}

// Load reads the chunk record store. A missing or corrupt file degrades to
// empty, matching the Manifest Store's degrade-not-abort stance (§4.1).
func Load(l paths.Layout) (*Store, error) {
	s := &Store{
		path:      Path(l),
		records:   make(map[string]schema.ChunkRecord),
		fileIndex: make(map[string]map[string]struct{}),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		slog.Warn("chunk record store unreadable, starting empty", "path", s.path, "error", err)
		return s, nil
	}

	var doc document
	if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil {
		slog.Warn("chunk record store corrupt, starting empty", "path", s.path, "error", jsonErr)
		return s, nil
	}
	if doc.SchemaVersion != "" && doc.SchemaVersion != schema.CurrentSchemaVersion {
		slog.Warn("chunk record store schema mismatch, starting empty",
			"path", s.path, "found", doc.SchemaVersion, "want", schema.CurrentSchemaVersion)
		return s, nil
	}
	for id, rec := range doc.Records {
		s.records[id] = rec
		s.indexFile(rec.FileID, id)
	}
	return s, nil
}

// Save atomically persists every chunk record.
func (s *Store) Save() error {
	s.mu.RLock()
	doc := document{SchemaVersion: schema.CurrentSchemaVersion, Records: s.records}
	data, err := json.MarshalIndent(doc, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return paths.AtomicWriteFile(s.path, data)
}

// Put inserts or replaces a chunk's record.
func (s *Store) Put(rec schema.ChunkRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ChunkID] = rec
	s.indexFile(rec.FileID, rec.ChunkID)
}

func (s *Store) indexFile(fileID, chunkID string) {
	set, ok := s.fileIndex[fileID]
	if !ok {
		set = make(map[string]struct{})
		s.fileIndex[fileID] = set
	}
	set[chunkID] = struct{}{}
}

// Get returns the record for a chunk_id, if present.
func (s *Store) Get(chunkID string) (schema.ChunkRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[chunkID]
	return r, ok
}

// ByFileID returns every chunk record belonging to a file, in no
// particular order.
func (s *Store) ByFileID(fileID string) []schema.ChunkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.fileIndex[fileID]
	recs := make([]schema.ChunkRecord, 0, len(ids))
	for id := range ids {
		if r, ok := s.records[id]; ok {
			recs = append(recs, r)
		}
	}
	return recs
}

// DeleteByFileID removes every chunk belonging to a file (reindex/removal
// path, §4.1).
func (s *Store) DeleteByFileID(fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.fileIndex[fileID] {
		delete(s.records, id)
	}
	delete(s.fileIndex, fileID)
}

// Count returns the number of tracked chunks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
