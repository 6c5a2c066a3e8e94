// Package manifest implements the Manifest Store (§4.1): a persistent map
// from absolute path to {file_id, fingerprint, last_indexed_at}, with a
// diff operation that drives the Indexing Orchestrator's incremental pass.
package manifest

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	"github.com/Ryan-gw-park/local-file-search/internal/paths"
	"github.com/Ryan-gw-park/local-file-search/internal/schema"
)

// ScannedFile is what the Enumerator hands to Diff: enough to compute a
// fingerprint without re-reading the manifest's own bookkeeping.
type ScannedFile struct {
	Path        string
	Fingerprint schema.Fingerprint
}

// Diff is the {added, changed, removed} classification of a scan against
// the current manifest (§4.1).
type Diff struct {
	Added   []string // paths with no manifest entry
	Changed []string // paths whose fingerprint differs from the manifest
	Removed []string // manifest paths absent from the scan
}

// Store is the Manifest Store. Not safe for concurrent Save calls from
// multiple processes; callers serialize writes through the Orchestrator and
// hold the file-lock described in §5's shared-resource policy.
type Store struct {
	path string

	mu       sync.RWMutex
	manifest schema.Manifest
}

// Load reads the manifest file at layout.ManifestPath(). A missing file is
// treated as an empty manifest (first run). A corrupt file is treated as
// empty too, forcing a full reindex, with a non-fatal warning logged —
// exactly the degrade-not-abort behavior §4.1 requires.
func Load(layout paths.Layout) (*Store, error) {
	s := &Store{path: layout.ManifestPath(), manifest: schema.NewManifest()}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		slog.Warn("manifest unreadable, forcing full reindex", "path", s.path, "error", err)
		return s, nil
	}

	var m schema.Manifest
	if jsonErr := json.Unmarshal(data, &m); jsonErr != nil {
		slog.Warn("manifest corrupt, forcing full reindex", "path", s.path, "error", jsonErr)
		return s, nil
	}
	if m.Entries == nil {
		m.Entries = make(map[string]schema.ManifestEntry)
	}
	if m.SchemaVersion != schema.CurrentSchemaVersion {
		slog.Warn("manifest schema version mismatch, forcing full reindex",
			"path", s.path, "found", m.SchemaVersion, "want", schema.CurrentSchemaVersion)
		return s, nil
	}
	s.manifest = m
	return s, nil
}

// Save atomically persists the manifest (write-to-temp, rename), mirroring
// the Save pattern in the vector and BM25 stores.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.manifest, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return paths.AtomicWriteFile(s.path, data)
}

// Get returns the manifest entry for path, if any.
func (s *Store) Get(path string) (schema.ManifestEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.manifest.Entries[path]
	return e, ok
}

// Put records or updates the manifest entry for path. The Orchestrator calls
// this only after both store writes for that file have succeeded (§5
// ordering guarantee) — the manifest entry is the commit point.
func (s *Store) Put(path string, entry schema.ManifestEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest.Entries[path] = entry
}

// Delete removes the manifest entry for path (used on file removal).
func (s *Store) Delete(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.manifest.Entries, path)
}

// Diff computes {added, changed, removed} against the current manifest.
// "changed" iff any of {size_bytes, modified_at, hash?} differs (§4.1).
func (s *Store) Diff(scanned []ScannedFile) Diff {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var d Diff
	seen := make(map[string]struct{}, len(scanned))

	for _, f := range scanned {
		seen[f.Path] = struct{}{}
		entry, ok := s.manifest.Entries[f.Path]
		if !ok {
			d.Added = append(d.Added, f.Path)
			continue
		}
		if !entry.Fingerprint.Equal(f.Fingerprint) {
			d.Changed = append(d.Changed, f.Path)
		}
	}

	for path := range s.manifest.Entries {
		if _, ok := seen[path]; !ok {
			d.Removed = append(d.Removed, path)
		}
	}

	return d
}

// Empty reports whether the manifest currently holds no entries (used to
// decide whether a corrupt-load forced a full reindex).
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.manifest.Entries) == 0
}

// Len returns the number of tracked paths.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.manifest.Entries)
}
