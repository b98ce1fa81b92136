package mcpserver

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// underIndexedRoot reports whether path lies under some indexed root of
// some container, after cleaning both to absolute form. This is the
// traversal guard read_file relies on before touching disk.
func underIndexedRoot(ctx context.Context, deps Deps, path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	abs = filepath.Clean(abs)

	containers, err := deps.Manager.List()
	if err != nil {
		return false, err
	}
	for _, rec := range containers {
		for _, root := range rec.Roots {
			rootAbs, err := filepath.Abs(root)
			if err != nil {
				continue
			}
			rootAbs = filepath.Clean(rootAbs)
			if abs == rootAbs || strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
				return true, nil
			}
		}
	}
	return false, nil
}

func addReadFileTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"read_file",
		mcp.WithDescription("Reads a text slice from a file that lies under an indexed root. Refuses any path outside every container's roots."),
		mcp.WithString("path", mcp.Required(), mcp.Description("absolute file path")),
		mcp.WithNumber("start_line", mcp.Description("1-based first line to return, default 1")),
		mcp.WithNumber("end_line", mcp.Description("1-based last line to return, default end of file")),
	)
	s.AddTool(tool, readFileHandler(deps))
}

func readFileHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argsMapFromRequest(request.Params.Arguments)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		path, err := parseStringArg(argsMap, "path", true)
		if err != nil {
			return invalidParams(err.Error()), nil
		}

		ok, err := underIndexedRoot(ctx, deps, path)
		if err != nil {
			return toolError(err), nil
		}
		if !ok {
			return invalidParams(fmt.Sprintf("path %q is not under any indexed root", path)), nil
		}

		f, err := os.Open(path)
		if err != nil {
			return invalidParams(fmt.Sprintf("cannot open %q: %s", path, err)), nil
		}
		defer f.Close()

		startLine := parseIntArg(argsMap, "start_line", 1)
		endLine := parseIntArg(argsMap, "end_line", 0)
		if startLine < 1 {
			startLine = 1
		}

		var lines []string
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			if lineNum < startLine {
				continue
			}
			if endLine > 0 && lineNum > endLine {
				break
			}
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return toolError(err), nil
		}

		type readResult struct {
			Path string `json:"path"`
			Text string `json:"text"`
		}
		return jsonResult(readResult{Path: path, Text: strings.Join(lines, "\n")})
	}
}

func addListFilesTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"list_files",
		mcp.WithDescription("Lists every indexed path in a container, optionally filtered by a path prefix or extensions, with best-effort sizes."),
		mcp.WithString("container", mcp.Description("container name; defaults to the active container")),
		mcp.WithString("path_prefix", mcp.Description("restrict to paths under this prefix")),
		mcp.WithArray("extensions", mcp.Description("restrict to these extensions, e.g. ['.go', '.md']")),
	)
	s.AddTool(tool, listFilesHandler(deps))
}

func listFilesHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argsMapFromRequest(request.Params.Arguments)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		containerName, _ := parseStringArg(argsMap, "container", false)
		prefix, _ := parseStringArg(argsMap, "path_prefix", false)
		extensions := parseArrayArg(argsMap, "extensions")

		c, err := deps.resolveContainer(ctx, containerName)
		if err != nil {
			return toolError(err), nil
		}

		records, err := c.Fragments().ScanFileRecords(ctx)
		if err != nil {
			return toolError(err), nil
		}

		type fileEntry struct {
			Path string `json:"path"`
			Size int64  `json:"size"`
		}
		out := make([]fileEntry, 0, len(records))
		seen := map[string]bool{}
		for _, r := range records {
			if seen[r.Path] {
				continue
			}
			if prefix != "" && !strings.HasPrefix(r.Path, prefix) {
				continue
			}
			if len(extensions) > 0 && !matchesAnyExtension(r.Path, extensions) {
				continue
			}
			seen[r.Path] = true
			var size int64
			if info, statErr := os.Stat(r.Path); statErr == nil {
				size = info.Size()
			}
			out = append(out, fileEntry{Path: r.Path, Size: size})
		}
		return jsonResult(out)
	}
}

func matchesAnyExtension(path string, extensions []string) bool {
	ext := filepath.Ext(path)
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
