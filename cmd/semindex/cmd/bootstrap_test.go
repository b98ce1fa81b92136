package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/semindex/internal/config"
	"github.com/aman-cerp/semindex/internal/container"
	"github.com/aman-cerp/semindex/internal/indexer"
	"github.com/aman-cerp/semindex/internal/model"
	"github.com/aman-cerp/semindex/internal/rerank"
	"github.com/aman-cerp/semindex/internal/search"
	"github.com/aman-cerp/semindex/internal/store"
)

// newTestApp builds an app backed by a real, on-disk container manager
// using the static hash embedder's dimension, so no model download is ever
// triggered even when a command under test embeds text.
func newTestApp(t *testing.T) *app {
	t.Helper()

	mgrCfg := container.ManagerConfig{
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
	manager, err := container.NewManager(context.Background(), mgrCfg)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return &app{
		Config:  config.NewConfig(),
		Manager: manager,
		Indexer: indexer.New(indexer.DefaultConfig()),
		Engine:  search.NewEngine(search.EngineConfig{}),
	}
}

func TestResolveContainer_DefaultsToActive(t *testing.T) {
	// Given: an app with only the default active container
	a := newTestApp(t)

	// When: resolving with no explicit name
	c, err := a.resolveContainer(context.Background(), "")

	// Then: it returns the active container
	require.NoError(t, err)
	require.Equal(t, "Default", c.Name())
}

func TestResolveContainer_ExplicitNameWins(t *testing.T) {
	// Given: an app with a second container created
	a := newTestApp(t)
	active, err := a.Manager.Active()
	require.NoError(t, err)
	_, err = a.Manager.Create(context.Background(), "scratch", "", active.Provider, nil)
	require.NoError(t, err)

	// When: resolving with the explicit name
	c, err := a.resolveContainer(context.Background(), "scratch")

	// Then: it returns that container, not the active one
	require.NoError(t, err)
	require.Equal(t, "scratch", c.Name())
}
