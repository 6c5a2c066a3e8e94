package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withStaticEmbedder forces every embedder constructed during a test to use
// the deterministic static embedder, avoiding native device probing.
func withStaticEmbedder(t *testing.T) {
	t.Helper()
	t.Setenv("LOCALFINDERX_EMBEDDER", "static")
	t.Setenv("LOCALFINDERX_EMBED_CACHE", "false")
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	_, err := runCmd(t, "search")
	require.Error(t, err)
}

func TestIndexCmd_RequiresPath(t *testing.T) {
	_, err := runCmd(t, "index")
	require.Error(t, err)
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	out, err := runCmd(t, "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestConfigPathCmd_PrintsPath(t *testing.T) {
	out, err := runCmd(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, "localfinderx")
}

func TestStatusCmd_ReportsEmptyIndex(t *testing.T) {
	dataDir := t.TempDir()
	out, err := runCmd(t, "--data-dir", dataDir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Files tracked:    0")
}

func TestInitCmd_ConfigOnlyWritesTemplate(t *testing.T) {
	withStaticEmbedder(t)
	dataDir := t.TempDir()
	target := t.TempDir()

	out, err := runCmd(t, "--data-dir", dataDir, "init", target, "--config-only")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")

	_, statErr := os.Stat(filepath.Join(dataDir, ".localfinderx.yaml"))
	require.NoError(t, statErr)
}

func TestIndexThenSearch_FindsIndexedFile(t *testing.T) {
	withStaticEmbedder(t)
	dataDir := t.TempDir()
	target := t.TempDir()

	require.NoError(t, os.WriteFile(
		filepath.Join(target, "notes.md"),
		[]byte("the quarterly revenue report for the northeast region"),
		0o644,
	))

	_, err := runCmd(t, "--data-dir", dataDir, "index", target)
	require.NoError(t, err)

	out, err := runCmd(t, "--data-dir", dataDir, "search", "quarterly revenue report")
	require.NoError(t, err)
	assert.Contains(t, out, "notes.md")
}

func TestConfigBackupThenRestore_RoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(os.Getenv("HOME"), ".config"))

	_, err := runCmd(t, "config", "init")
	require.NoError(t, err)

	out, err := runCmd(t, "config", "backup")
	require.NoError(t, err)
	assert.Contains(t, out, "Backed up to")

	out, err = runCmd(t, "config", "restore", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, ".bak.")
}

func TestConfigBackupCmd_NoConfigYet(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(os.Getenv("HOME"), ".config"))

	out, err := runCmd(t, "config", "backup")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to back up")
}

func TestDoctorCmd_ReportsWritableDataDir(t *testing.T) {
	withStaticEmbedder(t)
	dataDir := t.TempDir()
	out, err := runCmd(t, "--data-dir", dataDir, "doctor")
	// embedder/schema checks are non-critical; only a writability failure
	// would return an error here.
	require.NoError(t, err)
	assert.Contains(t, out, "data directory writable")
}
