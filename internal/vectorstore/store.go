// Package vectorstore implements the Vector Store (§4.9): a cosine-similarity
// nearest-neighbor index over chunk embeddings, backed by a pure-Go HNSW
// graph so the module carries no CGO dependency.
//
// Only content-indexed files ever produce chunk vectors (§3), so unlike the
// Lexical Store this package never needs a content_indexed filter at query
// time — everything it holds is eligible.
package vectorstore

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	"github.com/Ryan-gw-park/local-file-search/internal/errs"
)

// Config configures the vector store.
type Config struct {
	Dimensions     int
	Metric         string // "cos" (default) or "l2"
	M              int    // HNSW max connections per layer
	EfConstruction int
	EfSearch       int
}

// DefaultConfig returns sensible defaults for the given embedding dimension.
func DefaultConfig(dimensions int) Config {
	return Config{
		Dimensions:     dimensions,
		Metric:         "cos",
		M:              16,
		EfConstruction: 128,
		EfSearch:       20,
	}
}

// Result is a single nearest-neighbor hit.
type Result struct {
	ChunkID  string
	Distance float32
	Score    float32
}

// Store is a chunk_id-keyed HNSW index with a file_id -> chunk_ids side
// index, so the Orchestrator can delete every chunk belonging to a changed
// or removed file in one call (§4.1's delete-before-insert reindex rule).
type Store struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config Config

	idMap   map[string]uint64 // chunk_id -> internal key
	keyMap  map[uint64]string // internal key -> chunk_id
	nextKey uint64

	fileIndex map[string]map[string]struct{} // file_id -> set of chunk_id

	closed bool
}

// persistedMeta is what Save/Load round-trip alongside the raw HNSW graph.
type persistedMeta struct {
	IDMap     map[string]uint64
	NextKey   uint64
	Config    Config
	FileIndex map[string]map[string]struct{}
}

// New creates an empty vector store.
func New(cfg Config) (*Store, error) {
	if cfg.Metric == "" {
		cfg.Metric = "cos"
	}
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	graph := hnsw.NewGraph[uint64]()
	switch cfg.Metric {
	case "l2":
		graph.Distance = hnsw.EuclideanDistance
	default:
		graph.Distance = hnsw.CosineDistance
	}
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &Store{
		graph:     graph,
		config:    cfg,
		idMap:     make(map[string]uint64),
		keyMap:    make(map[uint64]string),
		fileIndex: make(map[string]map[string]struct{}),
	}, nil
}

// Add inserts chunk vectors belonging to fileID. Re-adding a chunk_id
// replaces its vector (lazy delete + insert, matching coder/hnsw's
// recommended update pattern — deleting the graph's last node is unreliable).
func (s *Store) Add(ctx context.Context, fileID string, chunkIDs []string, vectors [][]float32) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	if len(chunkIDs) != len(vectors) {
		return fmt.Errorf("chunk ids and vectors length mismatch: %d vs %d", len(chunkIDs), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for _, v := range vectors {
		if len(v) != s.config.Dimensions {
			return errs.New(errs.ErrCodeDimensionMismatch,
				fmt.Sprintf("expected %d dimensions, got %d", s.config.Dimensions, len(v)), nil)
		}
	}

	fileSet := s.fileIndex[fileID]
	if fileSet == nil {
		fileSet = make(map[string]struct{})
		s.fileIndex[fileID] = fileSet
	}

	for i, chunkID := range chunkIDs {
		if existingKey, exists := s.idMap[chunkID]; exists {
			delete(s.keyMap, existingKey)
			delete(s.idMap, chunkID)
		}

		key := s.nextKey
		s.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		if s.config.Metric == "cos" {
			normalizeInPlace(vec)
		}

		s.graph.Add(hnsw.MakeNode(key, vec))

		s.idMap[chunkID] = key
		s.keyMap[key] = chunkID
		fileSet[chunkID] = struct{}{}
	}

	return nil
}

// Search returns the k nearest chunk vectors to query.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("vector store is closed")
	}
	if len(query) != s.config.Dimensions {
		return nil, errs.New(errs.ErrCodeDimensionMismatch,
			fmt.Sprintf("expected %d dimensions, got %d", s.config.Dimensions, len(query)), nil)
	}
	if s.graph.Len() == 0 {
		return []*Result{}, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	if s.config.Metric == "cos" {
		normalizeInPlace(q)
	}

	nodes := s.graph.Search(q, k)
	results := make([]*Result, 0, len(nodes))
	for _, node := range nodes {
		chunkID, ok := s.keyMap[node.Key]
		if !ok {
			continue // lazily-deleted orphan
		}
		distance := s.graph.Distance(q, node.Value)
		results = append(results, &Result{
			ChunkID:  chunkID,
			Distance: distance,
			Score:    distanceToScore(distance, s.config.Metric),
		})
	}
	return results, nil
}

// Delete removes vectors by chunk_id (lazy: mapping only, node stays in graph).
func (s *Store) Delete(ctx context.Context, chunkIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for _, chunkID := range chunkIDs {
		if key, exists := s.idMap[chunkID]; exists {
			delete(s.keyMap, key)
			delete(s.idMap, chunkID)
		}
	}
	return nil
}

// DeleteByFileID removes every chunk vector belonging to fileID. The
// Orchestrator calls this before re-inserting a changed file's chunks, and
// on file removal (§4.1, §7's delete-before-insert ordering).
func (s *Store) DeleteByFileID(ctx context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for chunkID := range s.fileIndex[fileID] {
		if key, exists := s.idMap[chunkID]; exists {
			delete(s.keyMap, key)
			delete(s.idMap, chunkID)
		}
	}
	delete(s.fileIndex, fileID)
	return nil
}

// AllIDs returns all live chunk IDs (for consistency checks against the
// Lexical Store).
func (s *Store) AllIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	ids := make([]string, 0, len(s.idMap))
	for id := range s.idMap {
		ids = append(ids, id)
	}
	return ids
}

// Contains reports whether chunkID currently has a live vector.
func (s *Store) Contains(chunkID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	_, ok := s.idMap[chunkID]
	return ok
}

// Count returns the number of live chunk vectors.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	return len(s.idMap)
}

// Stats reports graph size versus live vectors, for deciding when a
// background compaction (rebuild without orphans) would help.
type Stats struct {
	ValidIDs   int
	GraphNodes int
	Orphans    int
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Stats{}
	}
	valid := len(s.idMap)
	nodes := s.graph.Len()
	return Stats{ValidIDs: valid, GraphNodes: nodes, Orphans: nodes - valid}
}

// Save persists the graph and ID mappings with atomic write semantics
// (temp file + rename), per §6's on-disk layout.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create vector store directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create vector index file: %w", err)
	}
	if err := s.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("export hnsw graph: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close vector index file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename vector index file: %w", err)
	}

	return s.saveMeta(path + ".meta")
}

func (s *Store) saveMeta(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp vector meta file: %w", err)
	}

	meta := persistedMeta{IDMap: s.idMap, NextKey: s.nextKey, Config: s.config, FileIndex: s.fileIndex}
	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("failed to close temp vector meta file", "error", closeErr)
		}
		os.Remove(tmpPath)
		return fmt.Errorf("encode vector meta: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close vector meta file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Load restores the graph and ID mappings from disk.
func (s *Store) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	if err := s.loadMeta(path + ".meta"); err != nil {
		return fmt.Errorf("load vector meta: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open vector index file: %w", err)
	}
	defer file.Close()

	if err := s.graph.Import(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("import hnsw graph: %w", err)
	}
	return nil
}

func (s *Store) loadMeta(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open vector meta file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Warn("failed to close vector meta file", "error", err)
		}
	}()

	var meta persistedMeta
	if err := gob.NewDecoder(file).Decode(&meta); err != nil {
		return fmt.Errorf("decode vector meta: %w", err)
	}

	s.idMap = meta.IDMap
	s.keyMap = make(map[uint64]string, len(meta.IDMap))
	s.nextKey = meta.NextKey
	s.config = meta.Config
	s.fileIndex = meta.FileIndex
	if s.fileIndex == nil {
		s.fileIndex = make(map[string]map[string]struct{})
	}
	for id, key := range s.idMap {
		s.keyMap[key] = id
	}
	return nil
}

// Close releases resources. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.graph = nil
	return nil
}

func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}

func distanceToScore(distance float32, metric string) float32 {
	switch metric {
	case "l2":
		return 1.0 / (1.0 + distance)
	default:
		return 1.0 - distance/2.0
	}
}
