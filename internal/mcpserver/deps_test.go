package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveContainer_ExplicitNameWins(t *testing.T) {
	deps := newTestDeps(t)
	ctx := context.Background()

	c, err := deps.resolveContainer(ctx, "Default")
	require.NoError(t, err)
	assert.Equal(t, "Default", c.Name())
}

func TestResolveContainer_EmptyNameUsesActive(t *testing.T) {
	deps := newTestDeps(t)
	ctx := context.Background()

	c, err := deps.resolveContainer(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Default", c.Name())
}

func TestResolveContainer_UnknownNameErrors(t *testing.T) {
	deps := newTestDeps(t)
	ctx := context.Background()

	_, err := deps.resolveContainer(ctx, "does-not-exist")
	require.Error(t, err)
}
