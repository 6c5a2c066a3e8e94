package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMarkdown_SplitsByHeaderHierarchy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	content := "# Intro\n\nWelcome text.\n\n## Setup\n\nInstall steps.\n\n## Usage\n\nRun it.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	units, err := extractMarkdown(path)
	require.NoError(t, err)
	require.Len(t, units, 3)

	assert.Equal(t, []string{"Intro"}, units[0].HeaderPath)
	assert.Contains(t, units[0].Text, "Welcome text")

	assert.Equal(t, []string{"Intro", "Setup"}, units[1].HeaderPath)
	assert.Contains(t, units[1].Text, "Install steps")

	assert.Equal(t, []string{"Intro", "Usage"}, units[2].HeaderPath)
	assert.Contains(t, units[2].Text, "Run it")
}

func TestExtractMarkdown_SiblingHeadingsResetDeeperPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	content := "# A\n\n## B\n\ntext1\n\n# C\n\ntext2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	units, err := extractMarkdown(path)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, []string{"A", "B"}, units[0].HeaderPath)
	assert.Equal(t, []string{"C"}, units[1].HeaderPath)
}

func TestExtractMarkdown_EmptyFileErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.md")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	_, err := extractMarkdown(path)
	assert.Error(t, err)
}
