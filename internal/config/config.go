package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectType represents the type of project detected at a container root.
type ProjectType string

const (
	ProjectTypeGo      ProjectType = "go"
	ProjectTypeNode    ProjectType = "node"
	ProjectTypePython  ProjectType = "python"
	ProjectTypeUnknown ProjectType = "unknown"
)

// Config represents the complete semindex configuration.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Paths       PathsConfig       `yaml:"paths" json:"paths"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" json:"retrieval"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings" json:"embeddings"`
	Reranker    RerankerConfig    `yaml:"reranker" json:"reranker"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Submodules  SubmoduleConfig   `yaml:"submodules" json:"submodules"`
	Containers  ContainersConfig  `yaml:"containers" json:"containers"`
	Watcher     WatcherConfig     `yaml:"watcher" json:"watcher"`
	GitEnrich   GitEnrichConfig   `yaml:"git_enrich" json:"git_enrich"`
}

// PathsConfig configures which paths are included/excluded from a
// container root during indexing.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// RetrievalConfig configures the hybrid retrieval pipeline's fusion
// parameters. These are deliberately narrow escape hatches: the RRF
// constant and dense fan-out multiplier have fixed defaults matching the
// design, and are only overridable for advanced tuning.
type RetrievalConfig struct {
	// RRFConstant is the reciprocal-rank-fusion smoothing parameter (k).
	// Default: 60.
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`

	// DenseFanoutMultiplier controls k_dense = max(top_k*multiplier, DenseFanoutFloor).
	// Default: 4.
	DenseFanoutMultiplier int `yaml:"dense_fanout_multiplier" json:"dense_fanout_multiplier"`

	// DenseFanoutFloor is the minimum k_dense regardless of top_k. Default: 50.
	DenseFanoutFloor int `yaml:"dense_fanout_floor" json:"dense_fanout_floor"`

	// RerankCandidateCap bounds how many fused candidates are reranked.
	// Default: 50.
	RerankCandidateCap int `yaml:"rerank_candidate_cap" json:"rerank_candidate_cap"`

	MaxResults int `yaml:"max_results" json:"max_results"`
}

// EmbeddingsConfig configures the embedding provider bound to a container's
// ProviderIdentity.
type EmbeddingsConfig struct {
	// Kind is "local" or "remote", matching the ProviderIdentity contract.
	Kind       string `yaml:"kind" json:"kind"`
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`

	// RemoteEndpoint is the HTTP embedding endpoint used when Kind=="remote".
	RemoteEndpoint string `yaml:"remote_endpoint" json:"remote_endpoint"`
	// RemoteAPIKeyEnv names the environment variable holding the bearer
	// token for the remote endpoint; the key itself is never persisted.
	RemoteAPIKeyEnv string `yaml:"remote_api_key_env" json:"remote_api_key_env"`

	// LocalModelPath is the on-disk path to the local embedding model,
	// serialized behind a single-writer lock.
	LocalModelPath string `yaml:"local_model_path" json:"local_model_path"`

	// Thermal/throughput management for sustained local-model workloads.
	TimeoutProgression     float64 `yaml:"timeout_progression" json:"timeout_progression"`
	RetryTimeoutMultiplier float64 `yaml:"retry_timeout_multiplier" json:"retry_timeout_multiplier"`

	CacheSize int `yaml:"query_cache_size" json:"query_cache_size"`
}

// RerankerConfig configures the optional cross-encoder reranking stage.
type RerankerConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Model   string `yaml:"model" json:"model"`
	Timeout string `yaml:"timeout" json:"timeout"`
}

// PerformanceConfig configures performance tuning options for the indexer.
type PerformanceConfig struct {
	MaxFiles      int    `yaml:"max_files" json:"max_files"`
	IndexWorkers  int    `yaml:"index_workers" json:"index_workers"`
	CacheSize     int    `yaml:"cache_size" json:"cache_size"`
	MemoryLimit   string `yaml:"memory_limit" json:"memory_limit"`
	SQLiteCacheMB int    `yaml:"sqlite_cache_mb" json:"sqlite_cache_mb"`
}

// ServerConfig configures the MCP collaborator binding.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	Port      int    `yaml:"port" json:"port"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// SubmoduleConfig configures git submodule discovery within a container root.
type SubmoduleConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Recursive bool     `yaml:"recursive" json:"recursive"`
	Include   []string `yaml:"include" json:"include"`
	Exclude   []string `yaml:"exclude" json:"exclude"`
}

// ContainersConfig configures the container registry (C9).
type ContainersConfig struct {
	// StoragePath is the directory where container metadata/state lives.
	// Defaults to ~/.semindex/containers.
	StoragePath string `yaml:"storage_path" json:"storage_path"`
	// MaxContainers is the maximum number of containers allowed.
	MaxContainers int `yaml:"max_containers" json:"max_containers"`
	// DefaultName is the name of the always-present default container.
	DefaultName string `yaml:"default_name" json:"default_name"`
}

// WatcherConfig configures the filesystem watcher (C7).
type WatcherConfig struct {
	// DebounceWindow coalesces bursts of events per path, e.g. "500ms".
	DebounceWindow string `yaml:"debounce_window" json:"debounce_window"`
	// MaxBackoff caps the exponential backoff applied after watch errors.
	MaxBackoff string `yaml:"max_backoff" json:"max_backoff"`
}

// GitEnrichConfig controls whether indexed fragments get a trailing
// gitlog metadata block of recent commit subjects for their file.
type GitEnrichConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// defaultExcludePatterns are always excluded from container roots.
var defaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/*.min.js",
	"**/*.min.css",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
	"**/go.sum",
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include: []string{},
			Exclude: defaultExcludePatterns,
		},
		Retrieval: RetrievalConfig{
			RRFConstant:           60,
			DenseFanoutMultiplier: 4,
			DenseFanoutFloor:      50,
			RerankCandidateCap:    50,
			MaxResults:            20,
		},
		Embeddings: EmbeddingsConfig{
			Kind:                   "", // empty triggers auto-detection: local model -> remote endpoint
			Model:                  "",
			Dimensions:             0, // auto-detected from provider on first use
			BatchSize:              32,
			RemoteEndpoint:         "",
			RemoteAPIKeyEnv:        "SEMINDEX_EMBEDDING_API_KEY",
			TimeoutProgression:     1.5,
			RetryTimeoutMultiplier: 1.0,
			CacheSize:              1000,
		},
		Reranker: RerankerConfig{
			Enabled: false,
			Model:   "",
			Timeout: "5s",
		},
		Performance: PerformanceConfig{
			MaxFiles:      100000,
			IndexWorkers:  runtime.NumCPU(),
			CacheSize:     1000,
			MemoryLimit:   "auto",
			SQLiteCacheMB: 64,
		},
		Server: ServerConfig{
			Transport: "stdio",
			Port:      8765,
			LogLevel:  "info",
		},
		Submodules: SubmoduleConfig{
			Enabled:   false,
			Recursive: true,
		},
		Containers: ContainersConfig{
			StoragePath:   defaultContainersPath(),
			MaxContainers: 20,
			DefaultName:   "Default",
		},
		Watcher: WatcherConfig{
			DebounceWindow: "500ms",
			MaxBackoff:     "8s",
		},
		GitEnrich: GitEnrichConfig{
			Enabled: false,
		},
	}
}

func defaultContainersPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".semindex", "containers")
	}
	return filepath.Join(home, ".semindex", "containers")
}

// GetUserConfigPath returns the path to the user/global configuration file,
// following the XDG Base Directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "semindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "semindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "semindex", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

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

// Load loads configuration for the given directory, applying in order of
// increasing precedence: hardcoded defaults, user/global config
// (~/.config/semindex/config.yaml), project config (.semindex.yaml), and
// SEMINDEX_* environment variables.
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

// loadFromFile attempts to load configuration from .semindex.yaml or .semindex.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".semindex.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".semindex.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	return nil
}

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

	if other.Retrieval.RRFConstant != 0 {
		c.Retrieval.RRFConstant = other.Retrieval.RRFConstant
	}
	if other.Retrieval.DenseFanoutMultiplier != 0 {
		c.Retrieval.DenseFanoutMultiplier = other.Retrieval.DenseFanoutMultiplier
	}
	if other.Retrieval.DenseFanoutFloor != 0 {
		c.Retrieval.DenseFanoutFloor = other.Retrieval.DenseFanoutFloor
	}
	if other.Retrieval.RerankCandidateCap != 0 {
		c.Retrieval.RerankCandidateCap = other.Retrieval.RerankCandidateCap
	}
	if other.Retrieval.MaxResults != 0 {
		c.Retrieval.MaxResults = other.Retrieval.MaxResults
	}

	if other.Embeddings.Kind != "" {
		c.Embeddings.Kind = other.Embeddings.Kind
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
	if other.Embeddings.RemoteEndpoint != "" {
		c.Embeddings.RemoteEndpoint = other.Embeddings.RemoteEndpoint
	}
	if other.Embeddings.RemoteAPIKeyEnv != "" {
		c.Embeddings.RemoteAPIKeyEnv = other.Embeddings.RemoteAPIKeyEnv
	}
	if other.Embeddings.LocalModelPath != "" {
		c.Embeddings.LocalModelPath = other.Embeddings.LocalModelPath
	}
	if other.Embeddings.TimeoutProgression != 0 {
		c.Embeddings.TimeoutProgression = other.Embeddings.TimeoutProgression
	}
	if other.Embeddings.RetryTimeoutMultiplier != 0 {
		c.Embeddings.RetryTimeoutMultiplier = other.Embeddings.RetryTimeoutMultiplier
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}

	if other.Reranker.Model != "" || other.Reranker.Enabled {
		c.Reranker = other.Reranker
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
	if other.Performance.MemoryLimit != "" {
		c.Performance.MemoryLimit = other.Performance.MemoryLimit
	}
	if other.Performance.SQLiteCacheMB != 0 {
		c.Performance.SQLiteCacheMB = other.Performance.SQLiteCacheMB
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}

	if other.Submodules.Enabled {
		c.Submodules.Enabled = other.Submodules.Enabled
	}
	if len(other.Submodules.Include) > 0 || len(other.Submodules.Exclude) > 0 || other.Submodules.Enabled {
		c.Submodules.Recursive = other.Submodules.Recursive
	}
	if len(other.Submodules.Include) > 0 {
		c.Submodules.Include = other.Submodules.Include
	}
	if len(other.Submodules.Exclude) > 0 {
		c.Submodules.Exclude = other.Submodules.Exclude
	}

	if other.Containers.StoragePath != "" {
		c.Containers.StoragePath = other.Containers.StoragePath
	}
	if other.Containers.MaxContainers > 0 {
		c.Containers.MaxContainers = other.Containers.MaxContainers
	}
	if other.Containers.DefaultName != "" {
		c.Containers.DefaultName = other.Containers.DefaultName
	}

	if other.Watcher.DebounceWindow != "" {
		c.Watcher.DebounceWindow = other.Watcher.DebounceWindow
	}
	if other.Watcher.MaxBackoff != "" {
		c.Watcher.MaxBackoff = other.Watcher.MaxBackoff
	}

	if other.GitEnrich.Enabled {
		c.GitEnrich.Enabled = other.GitEnrich.Enabled
	}
}

// applyEnvOverrides applies SEMINDEX_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEMINDEX_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Retrieval.RRFConstant = k
		}
	}
	if v := os.Getenv("SEMINDEX_DENSE_FANOUT_MULTIPLIER"); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m > 0 {
			c.Retrieval.DenseFanoutMultiplier = m
		}
	}
	if v := os.Getenv("SEMINDEX_EMBEDDINGS_KIND"); v != "" {
		c.Embeddings.Kind = v
	}
	if v := os.Getenv("SEMINDEX_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("SEMINDEX_EMBEDDINGS_ENDPOINT"); v != "" {
		c.Embeddings.RemoteEndpoint = v
	}
	if v := os.Getenv("SEMINDEX_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("SEMINDEX_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("SEMINDEX_RERANKER_ENABLED"); v != "" {
		c.Reranker.Enabled = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("SEMINDEX_WATCH_DEBOUNCE"); v != "" {
		c.Watcher.DebounceWindow = v
	}
	if v := os.Getenv("SEMINDEX_GIT_ENRICH_ENABLED"); v != "" {
		c.GitEnrich.Enabled = strings.ToLower(v) == "true" || v == "1"
	}
}

// DetectProjectType detects the project type based on marker files.
func DetectProjectType(dir string) ProjectType {
	if fileExists(filepath.Join(dir, "go.mod")) {
		return ProjectTypeGo
	}
	if fileExists(filepath.Join(dir, "package.json")) {
		return ProjectTypeNode
	}
	if fileExists(filepath.Join(dir, "pyproject.toml")) ||
		fileExists(filepath.Join(dir, "requirements.txt")) {
		return ProjectTypePython
	}
	return ProjectTypeUnknown
}

// FindProjectRoot finds the project root by walking up from startDir,
// looking for a .git directory or a .semindex.yaml/.yml file.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		if fileExists(filepath.Join(currentDir, ".semindex.yaml")) ||
			fileExists(filepath.Join(currentDir, ".semindex.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// DiscoverSourceDirs discovers common source directories in a container root.
func DiscoverSourceDirs(dir string) []string {
	commonSourceDirs := []string{"src", "lib", "pkg", "internal", "cmd"}
	frameworkDirs := []string{"app", "pages"}

	var found []string

	for _, d := range commonSourceDirs {
		if dirExists(filepath.Join(dir, d)) {
			found = append(found, d)
		}
	}

	if isNextJS(dir) {
		for _, d := range frameworkDirs {
			if dirExists(filepath.Join(dir, d)) {
				found = append(found, d)
			}
		}
	}

	return found
}

// DiscoverDocsDirs discovers documentation directories in a container root.
func DiscoverDocsDirs(dir string) []string {
	commonDocDirs := []string{"docs", "doc"}
	commonDocFiles := []string{"README.md", "readme.md", "README.markdown"}

	var found []string

	for _, d := range commonDocDirs {
		if dirExists(filepath.Join(dir, d)) {
			found = append(found, d)
		}
	}

	for _, f := range commonDocFiles {
		if fileExists(filepath.Join(dir, f)) {
			found = append(found, f)
			break
		}
	}

	return found
}

func isNextJS(dir string) bool {
	pkgPath := filepath.Join(dir, "package.json")
	if !fileExists(pkgPath) {
		return false
	}

	data, err := os.ReadFile(pkgPath)
	if err != nil {
		return false
	}

	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return false
	}

	_, hasNext := pkg.Dependencies["next"]
	_, hasNextDev := pkg.DevDependencies["next"]
	return hasNext || hasNextDev
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func (p ProjectType) String() string {
	return string(p)
}

func (p ProjectType) IsKnown() bool {
	return p != ProjectTypeUnknown
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Retrieval.RRFConstant <= 0 {
		return fmt.Errorf("retrieval.rrf_constant must be positive, got %d", c.Retrieval.RRFConstant)
	}
	if c.Retrieval.MaxResults < 0 {
		return fmt.Errorf("retrieval.max_results must be non-negative, got %d", c.Retrieval.MaxResults)
	}
	if c.Retrieval.DenseFanoutMultiplier <= 0 {
		return fmt.Errorf("retrieval.dense_fanout_multiplier must be positive, got %d", c.Retrieval.DenseFanoutMultiplier)
	}

	if c.Embeddings.Kind != "" {
		validKinds := map[string]bool{"local": true, "remote": true}
		if !validKinds[strings.ToLower(c.Embeddings.Kind)] {
			return fmt.Errorf("embeddings.kind must be 'local', 'remote', or empty (auto-detect), got %s", c.Embeddings.Kind)
		}
	}

	validTransports := map[string]bool{"stdio": true, "sse": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio' or 'sse', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	if _, err := time.ParseDuration(c.Watcher.DebounceWindow); err != nil {
		return fmt.Errorf("watcher.debounce_window is not a valid duration: %w", err)
	}
	if _, err := time.ParseDuration(c.Watcher.MaxBackoff); err != nil {
		return fmt.Errorf("watcher.max_backoff is not a valid duration: %w", err)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// MergeNewDefaults adds new default fields while preserving existing values,
// for configs written by an older version of semindex. Returns the list of
// field names that were added.
func (c *Config) MergeNewDefaults() []string {
	defaults := NewConfig()
	var added []string

	if c.Retrieval.RRFConstant == 0 {
		c.Retrieval.RRFConstant = defaults.Retrieval.RRFConstant
		added = append(added, "retrieval.rrf_constant")
	}
	if c.Retrieval.DenseFanoutMultiplier == 0 {
		c.Retrieval.DenseFanoutMultiplier = defaults.Retrieval.DenseFanoutMultiplier
		added = append(added, "retrieval.dense_fanout_multiplier")
	}
	if c.Retrieval.DenseFanoutFloor == 0 {
		c.Retrieval.DenseFanoutFloor = defaults.Retrieval.DenseFanoutFloor
		added = append(added, "retrieval.dense_fanout_floor")
	}

	if c.Embeddings.TimeoutProgression == 0 {
		c.Embeddings.TimeoutProgression = defaults.Embeddings.TimeoutProgression
		added = append(added, "embeddings.timeout_progression")
	}
	if c.Embeddings.RetryTimeoutMultiplier == 0 {
		c.Embeddings.RetryTimeoutMultiplier = defaults.Embeddings.RetryTimeoutMultiplier
		added = append(added, "embeddings.retry_timeout_multiplier")
	}

	if c.Performance.SQLiteCacheMB == 0 {
		c.Performance.SQLiteCacheMB = defaults.Performance.SQLiteCacheMB
		added = append(added, "performance.sqlite_cache_mb")
	}

	if c.Containers.StoragePath == "" {
		c.Containers.StoragePath = defaults.Containers.StoragePath
		added = append(added, "containers.storage_path")
	}
	if c.Containers.MaxContainers == 0 {
		c.Containers.MaxContainers = defaults.Containers.MaxContainers
		added = append(added, "containers.max_containers")
	}

	if c.Watcher.DebounceWindow == "" {
		c.Watcher.DebounceWindow = defaults.Watcher.DebounceWindow
		added = append(added, "watcher.debounce_window")
	}

	return added
}
