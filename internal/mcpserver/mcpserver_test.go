package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/semindex/internal/container"
	"github.com/aman-cerp/semindex/internal/indexer"
	"github.com/aman-cerp/semindex/internal/model"
	"github.com/aman-cerp/semindex/internal/rerank"
	"github.com/aman-cerp/semindex/internal/search"
	"github.com/aman-cerp/semindex/internal/store"
)

// newTestDeps builds a Deps backed by a real, on-disk container manager
// whose default provider is a local identity with the static embedder's
// dimension. embed.NewEmbedder still builds a LocalEmbedder for any local
// identity, so a handler under test that calls Embed needs the on-disk
// ONNX model.
func newTestDeps(t *testing.T) Deps {
	t.Helper()

	cfg := container.ManagerConfig{
		StoragePath:   t.TempDir(),
		MaxContainers: 5,
		RerankConfig:  rerank.Config{Enabled: false},
		BM25Config:    store.DefaultBM25Config(),
		BM25Backend:   string(store.BM25BackendSQLite),
		DefaultProvider: model.ProviderIdentity{
			Kind:      model.ProviderKindLocal,
			Model:     "static",
			Dimension: 256,
		},
	}
	manager, err := container.NewManager(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return Deps{
		Manager: manager,
		Indexer: indexer.New(indexer.DefaultConfig()),
		Engine:  search.NewEngine(search.EngineConfig{}),
	}
}
