package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnderIndexedRoot(t *testing.T) {
	deps := newTestDeps(t)
	ctx := context.Background()

	root := t.TempDir()
	require.NoError(t, deps.Manager.SetRoots("Default", []string{root}))

	t.Run("path under root", func(t *testing.T) {
		ok, err := underIndexedRoot(ctx, deps, filepath.Join(root, "a", "b.go"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("path outside every root", func(t *testing.T) {
		ok, err := underIndexedRoot(ctx, deps, "/etc/passwd")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("root itself", func(t *testing.T) {
		ok, err := underIndexedRoot(ctx, deps, root)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestMatchesAnyExtension(t *testing.T) {
	assert.True(t, matchesAnyExtension("foo/bar.go", []string{".go", ".md"}))
	assert.True(t, matchesAnyExtension("foo/bar.GO", []string{".go"}))
	assert.False(t, matchesAnyExtension("foo/bar.py", []string{".go", ".md"}))
}

func TestReadFileHandler_RefusesPathOutsideRoots(t *testing.T) {
	deps := newTestDeps(t)
	root := t.TempDir()
	require.NoError(t, deps.Manager.SetRoots("Default", []string{root}))

	handler := readFileHandler(deps)
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{"path": "/etc/passwd"},
		},
	}

	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestReadFileHandler_ReturnsLineSlice(t *testing.T) {
	deps := newTestDeps(t)
	root := t.TempDir()
	require.NoError(t, deps.Manager.SetRoots("Default", []string{root}))

	path := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644))

	handler := readFileHandler(deps)
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"path":       path,
				"start_line": float64(2),
				"end_line":   float64(2),
			},
		},
	}

	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.False(t, result.IsError)
	tc, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, tc.Text, "two")
	assert.NotContains(t, tc.Text, "one")
	assert.NotContains(t, tc.Text, "three")
}
