package rerank

import (
	"context"

	"github.com/aman-cerp/semindex/internal/model"
)

// Config is the subset of reranker configuration the factory needs.
type Config struct {
	Enabled         bool
	ModelPath       string
	RemoteEndpoint  string
	RemoteAPIKey    string
	RemoteModel     string
	SkipHealthCheck bool
}

// NewReranker constructs the Reranker for a container's provider kind.
// Reranking is optional: when cfg.Enabled is false, a
// NoOpReranker is returned so the retrieval pipeline always has a uniform
// interface regardless of whether cross-encoder scoring is active.
func NewReranker(ctx context.Context, kind model.ProviderKind, cfg Config) (Reranker, error) {
	if !cfg.Enabled {
		return &NoOpReranker{}, nil
	}

	switch kind {
	case model.ProviderKindRemote:
		return NewRemoteReranker(ctx, RemoteConfig{
			Endpoint:        cfg.RemoteEndpoint,
			APIKey:          cfg.RemoteAPIKey,
			Model:           cfg.RemoteModel,
			SkipHealthCheck: cfg.SkipHealthCheck,
		})
	default:
		modelDir := cfg.ModelPath
		if modelDir == "" {
			modelDir = DefaultModelsDir()
		}
		return NewLocalReranker(LocalConfig{ModelPath: modelDir}), nil
	}
}
