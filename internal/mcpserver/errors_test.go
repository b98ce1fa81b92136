package mcpserver

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/aman-cerp/semindex/internal/errors"
)

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return tc.Text
}

func TestToolError_ProviderMismatchCarriesRebuildSuggestion(t *testing.T) {
	err := ierrors.ProviderMismatch("embedding dimension changed", nil)
	result := toolError(err)
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "rebuild the container")
	assert.Contains(t, textOf(t, result), `"category":"PROVIDER"`)
}

func TestToolError_BusyIncludesCategoryAndCode(t *testing.T) {
	err := ierrors.Busy("my-container")
	result := toolError(err)
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "already has an indexing job")
	assert.Contains(t, textOf(t, result), `"category":"BUSY"`)
}

func TestToolError_PlainErrorIsWrappedAsJSON(t *testing.T) {
	result := toolError(assertErr{"boom"})
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "boom")
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }

func TestInvalidParams_IsAlwaysAnError(t *testing.T) {
	result := invalidParams("query is required")
	assert.True(t, result.IsError)
	assert.Equal(t, "query is required", textOf(t, result))
}
