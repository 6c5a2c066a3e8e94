package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// IndexingErrorEntry is one line of logs/indexing_errors.log: a record of a
// single per-file downgrade or failure during an indexing run.
type IndexingErrorEntry struct {
	Time    time.Time `json:"time"`
	Path    string    `json:"path"`
	Stage   string    `json:"stage"` // e.g. "extract", "embed", "chunk"
	Error   string    `json:"error"`
	FileID  string    `json:"file_id,omitempty"`
}

// IndexingErrorLog is an append-only JSONL sink for per-file indexing
// failures, independent of the general debug logger so it survives even
// when --debug is off.
type IndexingErrorLog struct {
	mu   sync.Mutex
	file *os.File
}

// OpenIndexingErrorLog opens (creating if necessary) the indexing error log
// at path, appending to any existing content.
func OpenIndexingErrorLog(path string) (*IndexingErrorLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create indexing error log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open indexing error log: %w", err)
	}
	return &IndexingErrorLog{file: f}, nil
}

// Record appends one entry as a single JSON line.
func (l *IndexingErrorLog) Record(entry IndexingErrorEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = l.file.Write(data)
}

// Close closes the underlying file.
func (l *IndexingErrorLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
