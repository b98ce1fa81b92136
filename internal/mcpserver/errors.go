package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"

	ierrors "github.com/aman-cerp/semindex/internal/errors"
)

// toolError renders err as a tool-result error. FormatJSON is used rather
// than err.Error() so a ProviderMismatch's rebuild suggestion, the error
// code, and its category reach the caller structured instead of buried in
// free text.
func toolError(err error) *mcp.CallToolResult {
	payload, marshalErr := ierrors.FormatJSON(err)
	if marshalErr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(payload))
}

func invalidParams(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultError(msg)
}
