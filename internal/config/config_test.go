package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if cfg.Retrieval.RRFConstant != 60 {
		t.Errorf("expected rrf_constant 60, got %d", cfg.Retrieval.RRFConstant)
	}
	if cfg.Retrieval.DenseFanoutMultiplier != 4 {
		t.Errorf("expected dense_fanout_multiplier 4, got %d", cfg.Retrieval.DenseFanoutMultiplier)
	}
	if cfg.Containers.DefaultName != "Default" {
		t.Errorf("expected default container name 'Default', got %s", cfg.Containers.DefaultName)
	}
	if cfg.Watcher.DebounceWindow != "500ms" {
		t.Errorf("expected debounce window 500ms, got %s", cfg.Watcher.DebounceWindow)
	}
	if len(cfg.Paths.Exclude) == 0 {
		t.Error("expected default excludes to be non-empty")
	}
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Retrieval.RRFConstant != 60 {
		t.Errorf("expected default rrf_constant, got %d", cfg.Retrieval.RRFConstant)
	}
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	yamlContent := `
retrieval:
  rrf_constant: 80
embeddings:
  kind: remote
  model: test-model
`
	if err := os.WriteFile(filepath.Join(dir, ".semindex.yaml"), []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Retrieval.RRFConstant != 80 {
		t.Errorf("expected rrf_constant 80, got %d", cfg.Retrieval.RRFConstant)
	}
	if cfg.Embeddings.Kind != "remote" {
		t.Errorf("expected kind remote, got %s", cfg.Embeddings.Kind)
	}
	if cfg.Embeddings.Model != "test-model" {
		t.Errorf("expected model test-model, got %s", cfg.Embeddings.Model)
	}
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := os.WriteFile(filepath.Join(dir, ".semindex.yml"), []byte("version: 2\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Version != 2 {
		t.Errorf("expected version 2, got %d", cfg.Version)
	}
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	os.WriteFile(filepath.Join(dir, ".semindex.yaml"), []byte("version: 3\n"), 0644)
	os.WriteFile(filepath.Join(dir, ".semindex.yml"), []byte("version: 4\n"), 0644)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Version != 3 {
		t.Errorf("expected .yaml to win with version 3, got %d", cfg.Version)
	}
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	os.WriteFile(filepath.Join(dir, ".semindex.yaml"), []byte("not: valid: yaml: ["), 0644)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestDetectProjectType_GoMod_ReturnsGo(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0644)

	if got := DetectProjectType(dir); got != ProjectTypeGo {
		t.Errorf("expected go, got %s", got)
	}
}

func TestDetectProjectType_PackageJson_ReturnsNode(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0644)

	if got := DetectProjectType(dir); got != ProjectTypeNode {
		t.Errorf("expected node, got %s", got)
	}
}

func TestDetectProjectType_NoMarkerFiles_ReturnsUnknown(t *testing.T) {
	dir := t.TempDir()

	if got := DetectProjectType(dir); got != ProjectTypeUnknown {
		t.Errorf("expected unknown, got %s", got)
	}
}

func TestDetectProjectType_Priority_GoOverNode(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0644)
	os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0644)

	if got := DetectProjectType(dir); got != ProjectTypeGo {
		t.Errorf("expected go to take priority, got %s", got)
	}
}

func TestFindProjectRoot_GitDirectory_ReturnsGitRoot(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "a", "b")
	os.MkdirAll(sub, 0755)
	os.MkdirAll(filepath.Join(dir, ".git"), 0755)

	root, err := FindProjectRoot(sub)
	if err != nil {
		t.Fatalf("FindProjectRoot failed: %v", err)
	}
	if root != dir {
		t.Errorf("expected root %s, got %s", dir, root)
	}
}

func TestDiscoverSourceDirs_FindsCommonDirs(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "internal"), 0755)
	os.MkdirAll(filepath.Join(dir, "cmd"), 0755)

	found := DiscoverSourceDirs(dir)
	if len(found) != 2 {
		t.Errorf("expected 2 source dirs, got %v", found)
	}
}

func TestLoad_EnvVarOverridesRRFConstant(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SEMINDEX_RRF_CONSTANT", "100")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Retrieval.RRFConstant != 100 {
		t.Errorf("expected env override 100, got %d", cfg.Retrieval.RRFConstant)
	}
}

func TestLoad_EnvVarOverridesModel(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SEMINDEX_EMBEDDINGS_MODEL", "custom-model")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Embeddings.Model != "custom-model" {
		t.Errorf("expected custom-model, got %s", cfg.Embeddings.Model)
	}
}

func TestNewConfig_GitEnrichDisabledByDefault(t *testing.T) {
	cfg := NewConfig()
	if cfg.GitEnrich.Enabled {
		t.Error("expected git enrichment disabled by default")
	}
}

func TestLoad_EnvVarOverridesGitEnrichEnabled(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SEMINDEX_GIT_ENRICH_ENABLED", "true")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.GitEnrich.Enabled {
		t.Error("expected env override to enable git enrichment")
	}
}

func TestLoad_EnvVarEmptyString_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SEMINDEX_EMBEDDINGS_MODEL", "")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Embeddings.Model != "" {
		t.Errorf("expected default empty model, got %s", cfg.Embeddings.Model)
	}
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	path := GetUserConfigPath()
	if filepath.Dir(path) != filepath.Join(tmp, "semindex") {
		t.Errorf("expected path under %s, got %s", tmp, path)
	}
}

func TestUserConfigExists_ReturnsFalseWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if UserConfigExists() {
		t.Error("expected no user config to exist")
	}
}

func TestUserConfigExists_ReturnsTrueWhenPresent(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	dir := filepath.Join(tmp, "semindex")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("version: 1\n"), 0644)

	if !UserConfigExists() {
		t.Error("expected user config to exist")
	}
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	userDir := filepath.Join(tmp, "semindex")
	os.MkdirAll(userDir, 0755)
	os.WriteFile(filepath.Join(userDir, "config.yaml"), []byte("retrieval:\n  rrf_constant: 70\n"), 0644)

	projectDir := t.TempDir()
	os.WriteFile(filepath.Join(projectDir, ".semindex.yaml"), []byte("retrieval:\n  rrf_constant: 90\n"), 0644)

	cfg, err := Load(projectDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Retrieval.RRFConstant != 90 {
		t.Errorf("expected project config to win with 90, got %d", cfg.Retrieval.RRFConstant)
	}
}

func TestConfig_Validate_RejectsInvalidTransport(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.Transport = "carrier-pigeon"

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid transport")
	}
}

func TestConfig_Validate_RejectsInvalidEmbeddingsKind(t *testing.T) {
	cfg := NewConfig()
	cfg.Embeddings.Kind = "quantum"

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid embeddings kind")
	}
}

func TestConfig_Validate_RejectsBadDebounceWindow(t *testing.T) {
	cfg := NewConfig()
	cfg.Watcher.DebounceWindow = "not-a-duration"

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid debounce window")
	}
}

func TestMergeNewDefaults_FillsMissingFields(t *testing.T) {
	cfg := &Config{}
	added := cfg.MergeNewDefaults()

	if len(added) == 0 {
		t.Error("expected some defaults to be added")
	}
	if cfg.Retrieval.RRFConstant != 60 {
		t.Errorf("expected rrf_constant filled to 60, got %d", cfg.Retrieval.RRFConstant)
	}
}
