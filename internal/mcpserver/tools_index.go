package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var diffWindows = map[string]time.Duration{
	"30m": 30 * time.Minute,
	"2h":  2 * time.Hour,
	"1d":  24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
}

func addIndexFolderTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"index_folder",
		mcp.WithDescription("Adds a directory to a container's roots and indexes it, scanning, chunking, embedding, and committing every eligible file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("absolute directory path to index")),
		mcp.WithString("container", mcp.Description("container name; defaults to the active container")),
	)
	s.AddTool(tool, indexFolderHandler(deps))
}

func indexFolderHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argsMapFromRequest(request.Params.Arguments)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		path, err := parseStringArg(argsMap, "path", true)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		containerName, _ := parseStringArg(argsMap, "container", false)

		c, err := deps.resolveContainer(ctx, containerName)
		if err != nil {
			return toolError(err), nil
		}

		roots := c.Roots()
		hasRoot := false
		for _, r := range roots {
			if r == path {
				hasRoot = true
				break
			}
		}
		if !hasRoot {
			roots = append(roots, path)
			if err := deps.Manager.SetRoots(c.Name(), roots); err != nil {
				return toolError(err), nil
			}
		}

		result, err := deps.Indexer.IndexRoot(ctx, c, path, nil)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(result)
	}
}

func addReindexAllTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"reindex_all",
		mcp.WithDescription("Rescans every root bound to a container and rebuilds its fragments from scratch."),
		mcp.WithString("container", mcp.Description("container name; defaults to the active container")),
	)
	s.AddTool(tool, reindexAllHandler(deps))
}

func reindexAllHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argsMapFromRequest(request.Params.Arguments)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		containerName, _ := parseStringArg(argsMap, "container", false)
		c, err := deps.resolveContainer(ctx, containerName)
		if err != nil {
			return toolError(err), nil
		}
		result, err := deps.Indexer.ReindexAll(ctx, c, nil)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(result)
	}
}

func addResetIndexTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"reset_index",
		mcp.WithDescription("Drops every fragment, vector, and lexical entry owned by a container without touching its registry record or roots."),
		mcp.WithString("container", mcp.Description("container name; defaults to the active container")),
	)
	s.AddTool(tool, resetIndexHandler(deps))
}

func resetIndexHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argsMapFromRequest(request.Params.Arguments)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		containerName, _ := parseStringArg(argsMap, "container", false)
		c, err := deps.resolveContainer(ctx, containerName)
		if err != nil {
			return toolError(err), nil
		}

		if err := c.Fragments().Clear(ctx); err != nil {
			return toolError(err), nil
		}
		if ids := c.Vectors().AllIDs(); len(ids) > 0 {
			if err := c.Vectors().Delete(ctx, ids); err != nil {
				return toolError(err), nil
			}
		}
		lexIDs, err := c.Lexical().AllIDs()
		if err != nil {
			return toolError(err), nil
		}
		if len(lexIDs) > 0 {
			if err := c.Lexical().Delete(ctx, lexIDs); err != nil {
				return toolError(err), nil
			}
		}
		return mcp.NewToolResultText(`{"status":"ok"}`), nil
	}
}

func addIndexStatusTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"index_status",
		mcp.WithDescription("Reports row counts, indexed paths, and the bound provider for a container."),
		mcp.WithString("container", mcp.Description("container name; defaults to the active container")),
	)
	s.AddTool(tool, indexStatusHandler(deps))
}

func indexStatusHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argsMapFromRequest(request.Params.Arguments)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		containerName, _ := parseStringArg(argsMap, "container", false)
		c, err := deps.resolveContainer(ctx, containerName)
		if err != nil {
			return toolError(err), nil
		}

		stats, err := c.Fragments().Stats(ctx)
		if err != nil {
			return toolError(err), nil
		}
		records, err := c.Fragments().ScanFileRecords(ctx)
		if err != nil {
			return toolError(err), nil
		}
		paths := make([]string, len(records))
		for i, r := range records {
			paths[i] = r.Path
		}
		provider := c.Provider()

		type statusResponse struct {
			TotalFiles     int      `json:"total_files"`
			TotalChunks    int      `json:"total_chunks"`
			IndexedPaths   []string `json:"indexed_paths"`
			ProviderLabel  string   `json:"provider_label"`
		}
		return jsonResult(statusResponse{
			TotalFiles:    stats.TotalFiles,
			TotalChunks:   stats.TotalFragments,
			IndexedPaths:  paths,
			ProviderLabel: fmt.Sprintf("%s/%s (dim=%d)", provider.Kind, provider.Model, provider.Dimension),
		})
	}
}

func addDiffTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"diff",
		mcp.WithDescription("Lists paths whose file record changed within a recent time window: 30m, 2h, 1d, or 7d."),
		mcp.WithString("window", mcp.Required(), mcp.Description("one of 30m, 2h, 1d, 7d")),
		mcp.WithString("container", mcp.Description("container name; defaults to the active container")),
	)
	s.AddTool(tool, diffHandler(deps))
}

func diffHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argsMapFromRequest(request.Params.Arguments)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		window, err := parseStringArg(argsMap, "window", true)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		dur, ok := diffWindows[window]
		if !ok {
			return invalidParams(fmt.Sprintf("window must be one of 30m, 2h, 1d, 7d, got %q", window)), nil
		}
		containerName, _ := parseStringArg(argsMap, "container", false)
		c, err := deps.resolveContainer(ctx, containerName)
		if err != nil {
			return toolError(err), nil
		}

		records, err := c.Fragments().ScanFileRecords(ctx)
		if err != nil {
			return toolError(err), nil
		}
		cutoff := time.Now().Add(-dur)
		type changedPath struct {
			Path  string    `json:"path"`
			MTime time.Time `json:"mtime"`
		}
		changed := make([]changedPath, 0)
		for _, r := range records {
			if r.MTime.After(cutoff) {
				changed = append(changed, changedPath{Path: r.Path, MTime: r.MTime})
			}
		}
		return jsonResult(changed)
	}
}
