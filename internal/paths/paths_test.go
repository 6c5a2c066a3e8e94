package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutPaths(t *testing.T) {
	l := New("/tmp/example-root")
	assert.Equal(t, "/tmp/example-root/data/manifest.json", l.ManifestPath())
	assert.Equal(t, "/tmp/example-root/data/lancedb", l.VectorStoreDir())
	assert.Equal(t, "/tmp/example-root/data/bm25.bin", l.BM25IndexPath())
	assert.Equal(t, "/tmp/example-root/data/schema_version.json", l.SchemaVersionPath())
	assert.Equal(t, "/tmp/example-root/logs/indexing_errors.log", l.IndexingErrorsLogPath())
	assert.Equal(t, "/tmp/example-root/config/settings.json", l.SettingsPath())
}

func TestEnsureDirsCreatesLayout(t *testing.T) {
	root := t.TempDir()
	l := New(filepath.Join(root, "LocalFinderX"))
	require.NoError(t, l.EnsureDirs())

	assert.DirExists(t, l.DataDir())
	assert.DirExists(t, l.LogsDir())
	assert.DirExists(t, l.ConfigDir())
}

func TestSettingsRoundTrip(t *testing.T) {
	root := t.TempDir()
	l := New(root)

	loaded, err := LoadSettings(l)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), loaded)

	s := Settings{
		SchemaVersion:       SettingsSchemaVersion,
		MorphAnalyzerActive: true,
		GPUBackend:          "metal",
		EmbedderModel:       "static768",
		EmbedderDimensions:  768,
	}
	require.NoError(t, SaveSettings(l, s))

	reloaded, err := LoadSettings(l)
	require.NoError(t, err)
	assert.Equal(t, s, reloaded)
}

func TestLoadSettingsCorruptFileFallsBackToDefault(t *testing.T) {
	root := t.TempDir()
	l := New(root)
	require.NoError(t, l.EnsureDirs())
	require.NoError(t, AtomicWriteFile(l.SettingsPath(), []byte("not json")))

	loaded, err := LoadSettings(l)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), loaded)
}
