package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, 1000, cfg.Search.ChunkSize)
	assert.Equal(t, 100, cfg.Search.ChunkOverlap)
	assert.Equal(t, 20, cfg.Search.MaxResults)
	assert.Equal(t, "smart", cfg.Search.DefaultMode)

	assert.Equal(t, "", cfg.Embeddings.Provider) // empty triggers auto-detection
	assert.Equal(t, 0, cfg.Embeddings.Dimensions)
	assert.Equal(t, 32, cfg.Embeddings.BatchSize)
	assert.Equal(t, 10*time.Minute, cfg.Embeddings.ModelDownloadTimeout)

	assert.Equal(t, 100000, cfg.Performance.MaxFiles)
	assert.Equal(t, runtime.NumCPU(), cfg.Performance.IndexWorkers)
	assert.Equal(t, 1000, cfg.Performance.CacheSize)

	assert.Equal(t, "info", cfg.Logging.Level)

	assert.Contains(t, cfg.Paths.Exclude, "**/node_modules/**")
	assert.Contains(t, cfg.Paths.Exclude, "**/.git/**")
}

func TestConfig_VersionDefaultsToOne(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 1, cfg.Version)
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 1000, cfg.Search.ChunkSize)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
version: 1
search:
  chunk_size: 2000
  chunk_overlap: 150
  max_results: 50
  default_mode: assist
`
	err := os.WriteFile(filepath.Join(tmpDir, ".localfinderx.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.Search.ChunkSize)
	assert.Equal(t, 150, cfg.Search.ChunkOverlap)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, "assist", cfg.Search.DefaultMode)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
version: 1
embeddings:
  provider: static
`
	err := os.WriteFile(filepath.Join(tmpDir, ".localfinderx.yml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	tmpDir := t.TempDir()
	yamlContent := "version: 1\nembeddings:\n  provider: native\n"
	ymlContent := "version: 1\nembeddings:\n  provider: static\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".localfinderx.yaml"), []byte(yamlContent), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".localfinderx.yml"), []byte(ymlContent), 0o644))

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "native", cfg.Embeddings.Provider)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	invalidContent := "version: 1\nsearch:\n  chunk_size: [invalid yaml syntax\n"
	err := os.WriteFile(filepath.Join(tmpDir, ".localfinderx.yaml"), []byte(invalidContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoad_InvalidFieldType_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	invalidContent := "version: 1\nsearch:\n  chunk_size: \"not-a-number\"\n"
	err := os.WriteFile(filepath.Join(tmpDir, ".localfinderx.yaml"), []byte(invalidContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_EnvVarOverridesProvider(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := "version: 1\nembeddings:\n  provider: native\n"
	err := os.WriteFile(filepath.Join(tmpDir, ".localfinderx.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)
	t.Setenv("LOCALFINDERX_EMBEDDER", "static")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
}

func TestLoad_EnvVarOverridesModel(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("LOCALFINDERX_EMBEDDINGS_MODEL", "all-minilm")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "all-minilm", cfg.Embeddings.Model)
}

func TestLoad_EnvVarOverridesLogLevel(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("LOCALFINDERX_LOG_LEVEL", "debug")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvVarOverridesMode(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("LOCALFINDERX_MODE", "FAST")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "fast", cfg.Search.DefaultMode)
}

func TestLoad_EnvVarOverridesChunkSize(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := "version: 1\nsearch:\n  chunk_size: 2000\n"
	err := os.WriteFile(filepath.Join(tmpDir, ".localfinderx.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)
	t.Setenv("LOCALFINDERX_CHUNK_SIZE", "1200")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 1200, cfg.Search.ChunkSize)
}

func TestLoad_EnvVarEmptyString_DoesNotOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("LOCALFINDERX_EMBEDDER", "")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "", cfg.Embeddings.Provider)
}

func TestGetUserConfigPath_DefaultsToXDGLocation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	path := GetUserConfigPath()

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	expected := filepath.Join(home, ".config", "localfinderx", "config.yaml")
	assert.Equal(t, expected, path)
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	customConfig := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", customConfig)

	path := GetUserConfigPath()

	expected := filepath.Join(customConfig, "localfinderx", "config.yaml")
	assert.Equal(t, expected, path)
}

func TestGetUserConfigDir_ReturnsParentOfConfigPath(t *testing.T) {
	dir := GetUserConfigDir()
	path := GetUserConfigPath()

	assert.Equal(t, filepath.Dir(path), dir)
}

func TestUserConfigExists_ReturnsFalseWhenMissing(t *testing.T) {
	emptyDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", emptyDir)

	assert.False(t, UserConfigExists())
}

func TestUserConfigExists_ReturnsTrueWhenPresent(t *testing.T) {
	configDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)
	appDir := filepath.Join(configDir, "localfinderx")
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	configPath := filepath.Join(appDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("version: 1"), 0o644))

	assert.True(t, UserConfigExists())
}

func TestLoad_UserConfigOverridesDefaults(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	appDir := filepath.Join(configDir, "localfinderx")
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	userConfig := "version: 1\nembeddings:\n  model: my-embedder\n"
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "config.yaml"), []byte(userConfig), 0o644))

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "my-embedder", cfg.Embeddings.Model)
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	appDir := filepath.Join(configDir, "localfinderx")
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	userConfig := "version: 1\nembeddings:\n  provider: native\n  model: user-model\n"
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "config.yaml"), []byte(userConfig), 0o644))

	projectConfig := "version: 1\nembeddings:\n  model: project-model\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".localfinderx.yaml"), []byte(projectConfig), 0o644))

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "project-model", cfg.Embeddings.Model)
	assert.Equal(t, "native", cfg.Embeddings.Provider)
}

func TestLoad_EnvVarOverridesUserAndProjectConfig(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)
	t.Setenv("LOCALFINDERX_EMBEDDINGS_MODEL", "env-model")

	appDir := filepath.Join(configDir, "localfinderx")
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	userConfig := "version: 1\nembeddings:\n  model: user-model\n"
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "config.yaml"), []byte(userConfig), 0o644))

	projectConfig := "version: 1\nembeddings:\n  model: project-model\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".localfinderx.yaml"), []byte(projectConfig), 0o644))

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "env-model", cfg.Embeddings.Model)
}

func TestLoad_InvalidUserConfig_ReturnsError(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	appDir := filepath.Join(configDir, "localfinderx")
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	invalidConfig := "version: 1\nembeddings:\n  model: [invalid yaml\n"
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "config.yaml"), []byte(invalidConfig), 0o644))

	cfg, err := Load(projectDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "user config")
}
