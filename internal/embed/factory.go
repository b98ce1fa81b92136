package embed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aman-cerp/semindex/internal/model"
)

// NewEmbedder constructs the Embedder bound to a container's provider
// identity. Local providers run an ONNX model in-process, loading it
// from the configured model directory; nothing here downloads it.
// Remote providers POST to a configured HTTP endpoint.
// The result is wrapped with an LRU query cache unless disabled via
// SEMINDEX_EMBED_CACHE=false.
func NewEmbedder(ctx context.Context, identity model.ProviderIdentity, cfg Config) (Embedder, error) {
	var (
		embedder Embedder
		err      error
	)

	switch identity.Kind {
	case model.ProviderKindRemote:
		embedder, err = newRemoteFromConfig(ctx, identity, cfg)
	case model.ProviderKindLocal:
		embedder, err = newLocalFromConfig(ctx, identity, cfg)
	default:
		embedder, err = newLocalFromConfig(ctx, identity, cfg)
	}
	if err != nil {
		return nil, err
	}

	if !isCacheDisabled() {
		embedder = NewCachedEmbedderWithDefaults(embedder)
	}
	return embedder, nil
}

// Config is the subset of embedding configuration the factory needs. It
// mirrors internal/config.EmbeddingsConfig without importing that package
// directly, avoiding an import cycle between config and embed.
type Config struct {
	ModelPath       string
	RemoteEndpoint  string
	RemoteAPIKey    string
	CacheSize       int
	SkipHealthCheck bool
}

func newLocalFromConfig(_ context.Context, identity model.ProviderIdentity, cfg Config) (Embedder, error) {
	modelDir := cfg.ModelPath
	if modelDir == "" {
		modelDir = DefaultModelsDir()
	}

	dims := identity.Dimension
	if dims == 0 {
		dims = DefaultLocalDimensions
	}

	return NewLocalEmbedder(LocalConfig{
		ModelPath:  modelDir,
		Dimensions: dims,
	}), nil
}

func newRemoteFromConfig(ctx context.Context, identity model.ProviderIdentity, cfg Config) (Embedder, error) {
	return NewRemoteEmbedder(ctx, RemoteConfig{
		Endpoint:        cfg.RemoteEndpoint,
		APIKey:          cfg.RemoteAPIKey,
		Model:           identity.Model,
		Dimensions:      identity.Dimension,
		SkipHealthCheck: cfg.SkipHealthCheck,
	})
}

// isCacheDisabled checks if embedding cache is disabled via environment.
func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("SEMINDEX_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

// EmbedderInfo describes a constructed embedder for status/diagnostic output.
type EmbedderInfo struct {
	Kind       model.ProviderKind
	Model      string
	Dimensions int
	Available  bool
}

// GetInfo reports the info for an embedder, unwrapping a CachedEmbedder.
func GetInfo(ctx context.Context, embedder Embedder) EmbedderInfo {
	inner := embedder
	if cached, ok := embedder.(*CachedEmbedder); ok {
		inner = cached.Inner()
	}

	info := EmbedderInfo{
		Model:      embedder.ModelName(),
		Dimensions: embedder.Dimensions(),
		Available:  embedder.Available(ctx),
	}

	switch inner.(type) {
	case *RemoteEmbedder:
		info.Kind = model.ProviderKindRemote
	default:
		info.Kind = model.ProviderKindLocal
	}
	return info
}

// MustNewEmbedder creates an embedder and panics on failure. Use only in
// tests or initialization code where failure is fatal.
func MustNewEmbedder(ctx context.Context, identity model.ProviderIdentity, cfg Config) Embedder {
	embedder, err := NewEmbedder(ctx, identity, cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to create embedder: %v", err))
	}
	return embedder
}
