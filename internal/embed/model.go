// Package embed provides embedding functionality for the indexer.
// This file resolves a local on-disk embedding model file. There is no
// network download path: §1's non-goals forbid network I/O at runtime, so a
// missing model is a configuration error for the user to fix out-of-band
// (place the file in the models directory), not something this module fetches.
package embed

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultModelFile is the model file name expected under the models
	// directory when a native embedding backend is configured.
	DefaultModelFile = "embedding-model.gguf"
)

// ModelManager resolves and validates the local embedding model file.
type ModelManager struct {
	modelsDir string
	lock      *FileLock
}

// NewModelManager creates a new model manager. modelsDir is typically
// ~/.localfinderx/models/.
func NewModelManager(modelsDir string) *ModelManager {
	return &ModelManager{modelsDir: modelsDir, lock: NewFileLock(modelsDir)}
}

// ModelPath returns the path to the model file.
func (m *ModelManager) ModelPath() string {
	return filepath.Join(m.modelsDir, DefaultModelFile)
}

// EnsureModel verifies the model file already exists locally. It acquires
// the models-directory file lock first so a concurrent indexing process
// doesn't observe a half-written file placed there by the user at the same
// moment; it never fetches anything over the network.
func (m *ModelManager) EnsureModel() (string, error) {
	if err := os.MkdirAll(m.modelsDir, 0o755); err != nil {
		return "", fmt.Errorf("create models directory: %w", err)
	}
	if err := m.lock.Lock(); err != nil {
		return "", fmt.Errorf("acquire models directory lock: %w", err)
	}
	defer m.lock.Unlock()

	path := m.ModelPath()
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return "", fmt.Errorf("embedding model not found at %s: place a local model file there (no network fetch is performed)", path)
	}
	return path, nil
}

// ModelExists checks if the model file exists.
func (m *ModelManager) ModelExists() bool {
	info, err := os.Stat(m.ModelPath())
	return err == nil && info.Size() > 0
}

// DeleteModel removes the cached model file.
func (m *ModelManager) DeleteModel() error {
	return os.Remove(m.ModelPath())
}

// DefaultModelsDir returns the default models directory path.
func DefaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".localfinderx", "models")
}
