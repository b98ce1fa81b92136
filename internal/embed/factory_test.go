package embed

import (
	"context"
	"os"
	"testing"

	"github.com/aman-cerp/semindex/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedder_LocalKind_ReturnsCachedLocalEmbedder(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	embedder, err := NewEmbedder(ctx, model.ProviderIdentity{
		Kind:      model.ProviderKindLocal,
		Model:     DefaultLocalModelName,
		Dimension: DefaultLocalDimensions,
	}, Config{ModelPath: tmp})
	require.NoError(t, err)
	require.NotNil(t, embedder)
	defer embedder.Close()

	cached, ok := embedder.(*CachedEmbedder)
	require.True(t, ok, "local embedder should be wrapped in a cache by default")
	_, ok = cached.Inner().(*LocalEmbedder)
	assert.True(t, ok)
	assert.Equal(t, DefaultLocalDimensions, embedder.Dimensions())
}

func TestNewEmbedder_RemoteKind_MissingEndpoint_ReturnsBadInput(t *testing.T) {
	ctx := context.Background()

	_, err := NewEmbedder(ctx, model.ProviderIdentity{
		Kind:  model.ProviderKindRemote,
		Model: "text-embed-3",
	}, Config{})
	require.Error(t, err)
}

func TestNewEmbedder_CacheDisabledByEnv_ReturnsUnwrappedEmbedder(t *testing.T) {
	orig := os.Getenv("SEMINDEX_EMBED_CACHE")
	defer os.Setenv("SEMINDEX_EMBED_CACHE", orig)
	os.Setenv("SEMINDEX_EMBED_CACHE", "false")

	ctx := context.Background()
	tmp := t.TempDir()

	embedder, err := NewEmbedder(ctx, model.ProviderIdentity{
		Kind:      model.ProviderKindLocal,
		Dimension: DefaultLocalDimensions,
	}, Config{ModelPath: tmp})
	require.NoError(t, err)
	defer embedder.Close()

	_, ok := embedder.(*CachedEmbedder)
	assert.False(t, ok, "cache should be bypassed when SEMINDEX_EMBED_CACHE=false")
	_, ok = embedder.(*LocalEmbedder)
	assert.True(t, ok)
}

func TestGetInfo_UnwrapsCachedEmbedder(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	embedder, err := NewEmbedder(ctx, model.ProviderIdentity{
		Kind:      model.ProviderKindLocal,
		Dimension: DefaultLocalDimensions,
	}, Config{ModelPath: tmp})
	require.NoError(t, err)
	defer embedder.Close()

	info := GetInfo(ctx, embedder)
	assert.Equal(t, model.ProviderKindLocal, info.Kind)
	assert.Equal(t, DefaultLocalDimensions, info.Dimensions)
}

func TestMustNewEmbedder_PanicsOnError(t *testing.T) {
	ctx := context.Background()
	assert.Panics(t, func() {
		MustNewEmbedder(ctx, model.ProviderIdentity{Kind: model.ProviderKindRemote}, Config{})
	})
}

func TestIsCacheDisabled(t *testing.T) {
	orig := os.Getenv("SEMINDEX_EMBED_CACHE")
	defer os.Setenv("SEMINDEX_EMBED_CACHE", orig)

	cases := map[string]bool{
		"":         false,
		"true":     false,
		"1":        false,
		"false":    true,
		"0":        true,
		"off":      true,
		"disabled": true,
	}
	for val, want := range cases {
		os.Setenv("SEMINDEX_EMBED_CACHE", val)
		assert.Equal(t, want, isCacheDisabled(), "value %q", val)
	}
}
