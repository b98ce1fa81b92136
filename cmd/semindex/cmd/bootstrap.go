package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/aman-cerp/semindex/internal/config"
	"github.com/aman-cerp/semindex/internal/container"
	"github.com/aman-cerp/semindex/internal/embed"
	"github.com/aman-cerp/semindex/internal/extract"
	"github.com/aman-cerp/semindex/internal/indexer"
	"github.com/aman-cerp/semindex/internal/model"
	"github.com/aman-cerp/semindex/internal/rerank"
	"github.com/aman-cerp/semindex/internal/search"
	"github.com/aman-cerp/semindex/internal/store"
)

// app bundles the components every command needs: the resolved
// configuration and the three long-lived pipelines built from it. Its
// Close releases every container this process opened.
type app struct {
	Config  *config.Config
	Manager *container.Manager
	Indexer *indexer.Indexer
	Engine  *search.Engine
}

func (a *app) Close() error {
	return a.Manager.Close()
}

// resolveContainer returns the named container, or the currently active
// one when name is empty. Mirrors mcpserver.Deps.resolveContainer so the
// CLI and the MCP server pick the same container for the same flag value.
func (a *app) resolveContainer(ctx context.Context, name string) (*container.Container, error) {
	if name != "" {
		return a.Manager.Get(ctx, name)
	}
	active, err := a.Manager.Active()
	if err != nil {
		return nil, fmt.Errorf("no active container: %w", err)
	}
	return a.Manager.Get(ctx, active.Name)
}

// newApp loads configuration for dir and wires the container manager,
// indexer, and search engine from it. Every command that touches a
// container goes through this so the command surface and the MCP server
// (mcpserver.Deps) are built from the same pipeline shapes.
func newApp(ctx context.Context, dir string) (*app, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	mgrCfg := container.ManagerConfig{
		StoragePath:     cfg.Containers.StoragePath,
		MaxContainers:   cfg.Containers.MaxContainers,
		DefaultName:     cfg.Containers.DefaultName,
		DefaultProvider: defaultProviderIdentity(cfg),
		EmbedConfig:     embedConfigFrom(cfg),
		RerankConfig:    rerankConfigFrom(cfg),
		BM25Config:      store.DefaultBM25Config(),
		BM25Backend:     string(store.BM25BackendSQLite),
	}

	manager, err := container.NewManager(ctx, mgrCfg)
	if err != nil {
		return nil, fmt.Errorf("open container registry: %w", err)
	}

	ix := indexer.New(indexer.Config{
		EmbedBatchSize:   cfg.Embeddings.BatchSize,
		GitEnrichEnabled: cfg.GitEnrich.Enabled,
	})
	if cfg.GitEnrich.Enabled {
		ix.SetGitEnricher(extract.NewGitEnricher())
	}

	return &app{
		Config:  cfg,
		Manager: manager,
		Indexer: ix,
		Engine:  search.NewEngine(search.EngineConfig{}),
	}, nil
}

// defaultProviderIdentity derives the Default container's provider
// binding from configuration, falling back to the local embedder's
// compiled-in defaults when the user hasn't pinned a model.
func defaultProviderIdentity(cfg *config.Config) model.ProviderIdentity {
	kind := model.ProviderKindLocal
	if cfg.Embeddings.Kind == string(model.ProviderKindRemote) {
		kind = model.ProviderKindRemote
	}

	name := cfg.Embeddings.Model
	if name == "" {
		name = embed.DefaultLocalModelName
	}

	dims := cfg.Embeddings.Dimensions
	if dims == 0 {
		dims = embed.DefaultLocalDimensions
	}

	return model.ProviderIdentity{Kind: kind, Model: name, Dimension: dims}
}

func embedConfigFrom(cfg *config.Config) embed.Config {
	return embed.Config{
		ModelPath:      cfg.Embeddings.LocalModelPath,
		RemoteEndpoint: cfg.Embeddings.RemoteEndpoint,
		RemoteAPIKey:   os.Getenv(cfg.Embeddings.RemoteAPIKeyEnv),
		CacheSize:      cfg.Embeddings.CacheSize,
	}
}

func rerankConfigFrom(cfg *config.Config) rerank.Config {
	return rerank.Config{
		Enabled:   cfg.Reranker.Enabled,
		ModelPath: cfg.Reranker.Model,
	}
}

// resolveDir turns a CLI path argument into an absolute project root,
// defaulting to the current directory and climbing to a project root
// marker (.git or .semindex.yaml) when one exists.
func resolveDir(path string) (string, error) {
	if path == "" {
		path = "."
	}
	return config.FindProjectRoot(path)
}
