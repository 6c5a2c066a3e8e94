// Package filestore is the File Record Store: the file_id-keyed table of
// schema.FileRecord the Orchestrator persists alongside the Manifest, Vector
// Store, and BM25 Store (§3, §9 DESIGN NOTES: no SQL engine is wired into
// this module, so metadata persistence follows the same flat-JSON,
// atomic-write shape as the Manifest Store rather than introducing one).
package filestore

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
	SchemaVersion string                       `json:"schema_version"`
	Records       map[string]schema.FileRecord `json:"records"` // keyed by file_id
}

// Store is the File Record Store. Readers may proceed concurrently; writes
// are serialized by the Orchestrator the same way Manifest writes are
// (§5 shared-resource policy).
type Store struct {
	path string

	mu      sync.RWMutex
	records map[string]schema.FileRecord
}

// Path derives the File Record Store's on-disk location from the shared
// app-data layout: it lives beside manifest.json in data/.
func Path(l paths.Layout) string {
	return filepath.Join(l.DataDir(), "files.json")
}

// Load reads the file record store. A missing or corrupt file degrades to
// empty, exactly like the Manifest Store (§4.1's degrade-not-abort stance
// generalizes to every on-disk record in data/).
func Load(l paths.Layout) (*Store, error) {
	s := &Store{path: Path(l), records: make(map[string]schema.FileRecord)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		slog.Warn("file record store unreadable, starting empty", "path", s.path, "error", err)
		return s, nil
	}

	var doc document
	if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil {
		slog.Warn("file record store corrupt, starting empty", "path", s.path, "error", jsonErr)
		return s, nil
	}
	if doc.Records == nil {
		doc.Records = make(map[string]schema.FileRecord)
	}
	if doc.SchemaVersion != "" && doc.SchemaVersion != schema.CurrentSchemaVersion {
		slog.Warn("file record store schema mismatch, starting empty",
			"path", s.path, "found", doc.SchemaVersion, "want", schema.CurrentSchemaVersion)
		return s, nil
	}
	s.records = doc.Records
	return s, nil
}

// Save atomically persists every record (write-to-temp, rename).
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

// Put inserts or replaces a file's record, keyed by its file_id.
func (s *Store) Put(rec schema.FileRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.FileID] = rec
}

// Get returns the record for a file_id, if present.
func (s *Store) Get(fileID string) (schema.FileRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[fileID]
	return r, ok
}

// Delete removes a file's record.
func (s *Store) Delete(fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, fileID)
}

// Count returns the number of tracked files.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
