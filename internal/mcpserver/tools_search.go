package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aman-cerp/semindex/internal/model"
	"github.com/aman-cerp/semindex/internal/search"
)

func addSearchTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"search",
		mcp.WithDescription("Hybrid dense+lexical search over an indexed container, optionally reranked by a cross-encoder. Returns ranked fragments with scores in [0,100]."),
		mcp.WithString("query", mcp.Required(), mcp.Description("search text")),
		mcp.WithString("container", mcp.Description("container name; defaults to the active container")),
		mcp.WithNumber("top_k", mcp.Description("maximum results to return, 1-50, default 10")),
		mcp.WithArray("file_extensions", mcp.Description("restrict results to these extensions, e.g. ['.go', '.md']")),
		mcp.WithString("path_prefix", mcp.Description("restrict results to paths under this prefix")),
		mcp.WithNumber("context_bytes", mcp.Description("snippet length cap, up to 10000")),
		mcp.WithNumber("min_score", mcp.Description("drop results scoring below this, 0-100")),
	)
	s.AddTool(tool, searchHandler(deps))
}

func searchHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argsMapFromRequest(request.Params.Arguments)
		if err != nil {
			return invalidParams(err.Error()), nil
		}

		query, err := parseStringArg(argsMap, "query", true)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		containerName, _ := parseStringArg(argsMap, "container", false)

		c, err := deps.resolveContainer(ctx, containerName)
		if err != nil {
			return toolError(err), nil
		}

		q := model.Query{
			Text:         query,
			TopK:         parseClampedInt(argsMap, "top_k", search.DefaultTopK, 1, search.MaxTopK),
			ExtAllowList: parseArrayArg(argsMap, "file_extensions"),
			PathPrefix:   mustString(argsMap, "path_prefix"),
			MinScore:     parseFloatArg(argsMap, "min_score", 0),
		}
		opts := search.Options{
			ContextBytes: parseClampedInt(argsMap, "context_bytes", search.DefaultContextBytes, 0, search.MaxContextBytes),
		}

		results, err := deps.Engine.Search(ctx, c, q, opts)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(results)
	}
}

func addRelatedTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"related",
		mcp.WithDescription("Finds paths nearest to a given file in embedding space, excluding the file itself."),
		mcp.WithString("path", mcp.Required(), mcp.Description("file path within an indexed container")),
		mcp.WithString("container", mcp.Description("container name; defaults to the active container")),
		mcp.WithNumber("top_k", mcp.Description("maximum results, 1-30, default 10")),
	)
	s.AddTool(tool, relatedHandler(deps))
}

func relatedHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
		topK := parseClampedInt(argsMap, "top_k", 10, 1, 30)

		c, err := deps.resolveContainer(ctx, containerName)
		if err != nil {
			return toolError(err), nil
		}

		frags, err := c.Fragments().GetFragmentsByPath(ctx, path)
		if err != nil {
			return toolError(err), nil
		}
		if len(frags) == 0 {
			return invalidParams(fmt.Sprintf("path %q has no indexed fragments", path)), nil
		}

		centroid := averageVector(frags, c.Provider().Dimension)
		hits, err := c.Vectors().Search(ctx, centroid, topK+len(frags)+1)
		if err != nil {
			return toolError(err), nil
		}

		seen := map[string]bool{path: true}
		type relatedPath struct {
			Path  string  `json:"path"`
			Score float32 `json:"score"`
		}
		out := make([]relatedPath, 0, topK)
		for _, h := range hits {
			f, ferr := c.Fragments().GetFragments(ctx, []string{h.ID})
			if ferr != nil || len(f) == 0 {
				continue
			}
			p := f[0].Path
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, relatedPath{Path: p, Score: h.Score})
			if len(out) >= topK {
				break
			}
		}
		return jsonResult(out)
	}
}

func averageVector(frags []*model.Fragment, dim int) []float32 {
	sum := make([]float32, dim)
	n := 0
	for _, f := range frags {
		if len(f.Vector) != dim {
			continue
		}
		for i, v := range f.Vector {
			sum[i] += v
		}
		n++
	}
	if n == 0 {
		return sum
	}
	for i := range sum {
		sum[i] /= float32(n)
	}
	return sum
}

func mustString(argsMap map[string]interface{}, key string) string {
	v, _ := parseStringArg(argsMap, key, false)
	return v
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
