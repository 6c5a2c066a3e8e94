// Package config loads LocalFinderX's on-disk configuration: hardcoded
// defaults, layered with an optional user config, an optional per-data-dir
// config, and environment variable overrides, in that order of precedence.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration object.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Paths       PathsConfig       `yaml:"paths" json:"paths"`
	Search      SearchConfig      `yaml:"search" json:"search"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings" json:"embeddings"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
}

// PathsConfig controls which roots get enumerated and which paths are
// skipped regardless of root.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// SearchConfig configures the chunker and the default query-time mode.
// The RRF constant (k=60) and the aggregation constants (α=0.2, decay=0.4)
// are frozen by the fusion design and are not configurable; they live as
// unexported constants in internal/search.
type SearchConfig struct {
	ChunkSize    int    `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap int     `yaml:"chunk_overlap" json:"chunk_overlap"`
	MaxResults   int    `yaml:"max_results" json:"max_results"`
	DefaultMode  string `yaml:"default_mode" json:"default_mode"` // fast|smart|assist
}

// EmbeddingsConfig selects and tunes the local embedding backend. There is
// no network-backed provider: LocalFinderX performs no network I/O, so the
// only providers are "native" (on-device GPU/CPU inference) and "static"
// (deterministic fallback for environments with no usable accelerator).
type EmbeddingsConfig struct {
	Provider             string        `yaml:"provider" json:"provider"` // empty triggers auto-detect: native -> static
	Model                string        `yaml:"model" json:"model"`
	Dimensions           int           `yaml:"dimensions" json:"dimensions"` // 0 = auto-detect from embedder
	BatchSize            int           `yaml:"batch_size" json:"batch_size"`
	ModelDownloadTimeout time.Duration `yaml:"model_download_timeout" json:"model_download_timeout"`
}

// PerformanceConfig tunes indexing concurrency and in-memory caching.
type PerformanceConfig struct {
	MaxFiles     int `yaml:"max_files" json:"max_files"`
	IndexWorkers int `yaml:"index_workers" json:"index_workers"`
	CacheSize    int `yaml:"cache_size" json:"cache_size"`
}

// LoggingConfig configures the ambient structured logger (internal/logging).
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	FilePath string `yaml:"file_path" json:"file_path"` // empty uses the data dir default
}

// defaultExcludePatterns are always excluded from enumeration regardless of
// user configuration.
var defaultExcludePatterns = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/.Trash/**",
	"**/.localfinderx/**",
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include: []string{},
			Exclude: defaultExcludePatterns,
		},
		Search: SearchConfig{
			ChunkSize:    1000,
			ChunkOverlap: 100,
			MaxResults:   20,
			DefaultMode:  "smart",
		},
		Embeddings: EmbeddingsConfig{
			Provider:             "", // empty triggers auto-detection: native -> static
			Model:                "",
			Dimensions:           0,
			BatchSize:            32,
			ModelDownloadTimeout: 10 * time.Minute,
		},
		Performance: PerformanceConfig{
			MaxFiles:     100000,
			IndexWorkers: runtime.NumCPU(),
			CacheSize:    1000,
		},
		Logging: LoggingConfig{
			Level:   "info",
			FilePath: "",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/localfinderx/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/localfinderx/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "localfinderx", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "localfinderx", "config.yaml")
	}
	return filepath.Join(home, ".config", "localfinderx", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load loads configuration from the specified directory. It applies
// configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/localfinderx/config.yaml)
//  3. Data-dir config (.localfinderx.yaml in dir)
//  4. Environment variables (LOCALFINDERX_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .localfinderx.yaml or
// .localfinderx.yml in dir.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".localfinderx.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".localfinderx.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}

	if other.Search.ChunkSize != 0 {
		c.Search.ChunkSize = other.Search.ChunkSize
	}
	if other.Search.ChunkOverlap != 0 {
		c.Search.ChunkOverlap = other.Search.ChunkOverlap
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.DefaultMode != "" {
		c.Search.DefaultMode = other.Search.DefaultMode
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.ModelDownloadTimeout != 0 {
		c.Embeddings.ModelDownloadTimeout = other.Embeddings.ModelDownloadTimeout
	}

	if other.Performance.MaxFiles != 0 {
		c.Performance.MaxFiles = other.Performance.MaxFiles
	}
	if other.Performance.IndexWorkers != 0 {
		c.Performance.IndexWorkers = other.Performance.IndexWorkers
	}
	if other.Performance.CacheSize != 0 {
		c.Performance.CacheSize = other.Performance.CacheSize
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
}

// applyEnvOverrides applies LOCALFINDERX_* environment variable overrides,
// the highest-precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LOCALFINDERX_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.ChunkSize = n
		}
	}
	if v := os.Getenv("LOCALFINDERX_CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Search.ChunkOverlap = n
		}
	}
	if v := os.Getenv("LOCALFINDERX_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv("LOCALFINDERX_MODE"); v != "" {
		c.Search.DefaultMode = strings.ToLower(v)
	}

	// LOCALFINDERX_EMBEDDER is the provider override recognized by
	// internal/embed's own factory; mirrored here so config.Load reports
	// the same effective value.
	if v := os.Getenv("LOCALFINDERX_EMBEDDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("LOCALFINDERX_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}

	if v := os.Getenv("LOCALFINDERX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// DetectProjectType and friends are intentionally absent: LocalFinderX
// indexes arbitrary file trees, not source repositories, so there is no
// project-type or source/docs-dir discovery concern to carry.

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.ChunkSize <= 0 {
		return fmt.Errorf("search.chunk_size must be positive, got %d", c.Search.ChunkSize)
	}
	if c.Search.ChunkOverlap < 0 || c.Search.ChunkOverlap >= c.Search.ChunkSize {
		return fmt.Errorf("search.chunk_overlap must be in [0, chunk_size), got %d", c.Search.ChunkOverlap)
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be non-negative, got %d", c.Search.MaxResults)
	}

	validModes := map[string]bool{"fast": true, "smart": true, "assist": true}
	if !validModes[strings.ToLower(c.Search.DefaultMode)] {
		return fmt.Errorf("search.default_mode must be 'fast', 'smart', or 'assist', got %s", c.Search.DefaultMode)
	}

	if c.Embeddings.Provider != "" {
		validProviders := map[string]bool{"native": true, "static": true}
		if !validProviders[strings.ToLower(c.Embeddings.Provider)] {
			return fmt.Errorf("embeddings.provider must be 'native', 'static', or empty (auto-detect), got %s", c.Embeddings.Provider)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	// Guards against the weight-invariant style check the teacher carried
	// for its BM25/semantic split; kept here as a sanity bound on chunk
	// overlap versus size so a misconfigured overlap can't exceed math
	// that would make the chunker loop.
	if float64(c.Search.ChunkOverlap) > math.Floor(float64(c.Search.ChunkSize)*0.9) {
		return fmt.Errorf("search.chunk_overlap too close to chunk_size, got overlap=%d size=%d", c.Search.ChunkOverlap, c.Search.ChunkSize)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}
