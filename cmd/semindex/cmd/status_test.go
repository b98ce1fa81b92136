package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCmd_AddedToRoot(t *testing.T) {
	// Given: the root command
	root := NewRootCmd()

	// When: looking for the status subcommand and its diff subcommand
	statusCmd, _, err := root.Find([]string{"status"})
	require.NoError(t, err)
	diffCmd, _, err := root.Find([]string{"status", "diff"})
	require.NoError(t, err)

	// Then: both exist
	assert.Equal(t, "status", statusCmd.Name())
	assert.Equal(t, "diff", diffCmd.Name())
}

func TestStatusDiffCmd_RejectsUnknownWindow(t *testing.T) {
	// Given: the root command invoked with an invalid diff window
	root := NewRootCmd()
	root.SetArgs([]string{"status", "diff", "bogus"})
	root.SetOut(os.Stdout)

	// When: executing it
	err := root.Execute()

	// Then: it reports the invalid window
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestStatus_ReportsFileAndChunkCounts(t *testing.T) {
	// Given: a container with one indexed file
	a := newTestApp(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello world"), 0644))

	c, err := a.resolveContainer(context.Background(), "")
	require.NoError(t, err)
	_, err = a.Indexer.IndexRoot(context.Background(), c, dir, nil)
	require.NoError(t, err)

	// When: inspecting its stats the way the status command does
	stats, err := c.Fragments().Stats(context.Background())

	// Then: it reports the indexed file
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalFiles)
	assert.Greater(t, stats.TotalFragments, 0)
}
