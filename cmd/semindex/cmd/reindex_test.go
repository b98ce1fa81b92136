package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReindexCmd_AddedToRoot(t *testing.T) {
	// Given: the root command
	root := NewRootCmd()

	// When: looking for the reindex subcommand
	reindexCmd, _, err := root.Find([]string{"reindex"})

	// Then: it exists and takes no positional arguments
	require.NoError(t, err)
	assert.Equal(t, "reindex", reindexCmd.Name())
	assert.NoError(t, reindexCmd.Args(reindexCmd, nil))
	assert.Error(t, reindexCmd.Args(reindexCmd, []string{"extra"}))
}

func TestReindexAll_RebuildsFromTrackedRoots(t *testing.T) {
	// Given: a container already indexing one root
	a := newTestApp(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello world"), 0644))

	c, err := a.resolveContainer(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, a.Manager.SetRoots(c.Name(), []string{dir}))
	_, err = a.Indexer.IndexRoot(context.Background(), c, dir, nil)
	require.NoError(t, err)

	// When: reindexing every tracked root
	result, err := a.Indexer.ReindexAll(context.Background(), c, nil)

	// Then: it succeeds and reports the same file again
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Added+result.Modified, 1)
}
