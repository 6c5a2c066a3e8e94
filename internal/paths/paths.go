// Package paths resolves the on-disk layout for LocalFinderX's app data,
// rooted at the OS application-data directory, and loads/saves the small
// key/value settings record that lives alongside it.
package paths

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// appDirName is the top-level folder name under the OS app-data directory.
const appDirName = "LocalFinderX"

// Layout resolves all paths under a single app-data root. Tests construct a
// Layout over a temp directory instead of the real OS location.
type Layout struct {
	Root string
}

// Default resolves the layout rooted at the OS-appropriate application data
// directory, following the same XDG/home-dir fallback shape the teacher uses
// for its user config path.
func Default() (Layout, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return Layout{}, fmt.Errorf("resolve app-data directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return Layout{Root: filepath.Join(base, appDirName)}, nil
}

// New builds a Layout rooted at an explicit directory (used by tests and by
// callers that override the data location).
func New(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) DataDir() string   { return filepath.Join(l.Root, "data") }
func (l Layout) LogsDir() string   { return filepath.Join(l.Root, "logs") }
func (l Layout) ConfigDir() string { return filepath.Join(l.Root, "config") }

func (l Layout) ManifestPath() string       { return filepath.Join(l.DataDir(), "manifest.json") }
func (l Layout) VectorStoreDir() string     { return filepath.Join(l.DataDir(), "lancedb") }
func (l Layout) BM25IndexPath() string      { return filepath.Join(l.DataDir(), "bm25.bin") }
func (l Layout) SchemaVersionPath() string  { return filepath.Join(l.DataDir(), "schema_version.json") }
func (l Layout) IndexingErrorsLogPath() string {
	return filepath.Join(l.LogsDir(), "indexing_errors.log")
}
func (l Layout) SettingsPath() string { return filepath.Join(l.ConfigDir(), "settings.json") }

// EnsureDirs creates data/, logs/, and config/ if they do not already exist.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{l.DataDir(), l.LogsDir(), l.ConfigDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Settings is the small key/value capability record persisted at
// config/settings.json. It records runtime capability flags the Embedder and
// Tokenizer discover at startup (per §9 DESIGN NOTES: "a runtime capability
// flag recorded in settings").
type Settings struct {
	SchemaVersion       string `json:"schema_version"`
	MorphAnalyzerActive bool   `json:"morph_analyzer_active"`
	GPUBackend          string `json:"gpu_backend"` // "cuda", "metal", or "" (cpu)
	EmbedderModel       string `json:"embedder_model"`
	EmbedderDimensions  int    `json:"embedder_dimensions"`
}

const SettingsSchemaVersion = "2.0"

// DefaultSettings returns the zero-capability settings record.
func DefaultSettings() Settings {
	return Settings{SchemaVersion: SettingsSchemaVersion}
}

// LoadSettings reads the settings file, returning DefaultSettings if absent.
func LoadSettings(l Layout) (Settings, error) {
	data, err := os.ReadFile(l.SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), nil
	}
	return s, nil
}

// SaveSettings atomically writes the settings file (write-to-temp, rename).
func SaveSettings(l Layout, s Settings) error {
	if err := l.EnsureDirs(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return atomicWrite(l.SettingsPath(), data)
}

// atomicWrite writes data to a temp file in the same directory as path, then
// renames it into place, matching the Save pattern used throughout the
// store and manifest packages.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// AtomicWriteFile atomically writes bytes to path (exported for other
// packages that need the same temp+rename guarantee: manifest, schema
// version marker, vector/BM25 store persistence).
func AtomicWriteFile(path string, data []byte) error {
	return atomicWrite(path, data)
}
