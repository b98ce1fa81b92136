package mcpserver

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aman-cerp/semindex/internal/model"
	"github.com/aman-cerp/semindex/internal/store"
)

func addAddAnnotationTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"add_annotation",
		mcp.WithDescription("Attaches a note to a path. The note is embedded and indexed so it surfaces in search results alongside file fragments."),
		mcp.WithString("path", mcp.Required(), mcp.Description("path the note is about")),
		mcp.WithString("note", mcp.Required(), mcp.Description("note text")),
		mcp.WithString("source", mcp.Description("'user' or 'agent', default 'user'")),
		mcp.WithString("container", mcp.Description("container name; defaults to the active container")),
	)
	s.AddTool(tool, addAnnotationHandler(deps))
}

func addAnnotationHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argsMapFromRequest(request.Params.Arguments)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		path, err := parseStringArg(argsMap, "path", true)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		note, err := parseStringArg(argsMap, "note", true)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		source, _ := parseStringArg(argsMap, "source", false)
		if source == "" {
			source = string(model.AnnotationSourceUser)
		}
		containerName, _ := parseStringArg(argsMap, "container", false)

		c, err := deps.resolveContainer(ctx, containerName)
		if err != nil {
			return toolError(err), nil
		}

		ann := &model.Annotation{
			ID:        uuid.NewString(),
			Path:      path,
			Source:    model.AnnotationSource(source),
			Note:      note,
			CreatedAt: time.Now(),
		}

		vector, err := c.Embedder().Embed(ctx, note)
		if err != nil {
			return toolError(err), nil
		}
		pseudoPath := model.AnnotationPseudoPath(ann.ID)
		if err := c.Vectors().Add(ctx, []string{pseudoPath}, [][]float32{vector}); err != nil {
			return toolError(err), nil
		}
		if err := c.Lexical().Index(ctx, []*store.Document{{ID: pseudoPath, Content: note}}); err != nil {
			return toolError(err), nil
		}
		if err := c.Fragments().UpsertAnnotation(ctx, ann); err != nil {
			return toolError(err), nil
		}
		return jsonResult(ann)
	}
}

func addDeleteAnnotationTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"delete_annotation",
		mcp.WithDescription("Removes an annotation and its indexed entries."),
		mcp.WithString("id", mcp.Required(), mcp.Description("annotation ID")),
		mcp.WithString("container", mcp.Description("container name; defaults to the active container")),
	)
	s.AddTool(tool, deleteAnnotationHandler(deps))
}

func deleteAnnotationHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argsMapFromRequest(request.Params.Arguments)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		id, err := parseStringArg(argsMap, "id", true)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		containerName, _ := parseStringArg(argsMap, "container", false)

		c, err := deps.resolveContainer(ctx, containerName)
		if err != nil {
			return toolError(err), nil
		}

		pseudoPath := model.AnnotationPseudoPath(id)
		if err := c.Vectors().Delete(ctx, []string{pseudoPath}); err != nil {
			return toolError(err), nil
		}
		if err := c.Lexical().Delete(ctx, []string{pseudoPath}); err != nil {
			return toolError(err), nil
		}
		if err := c.Fragments().DeleteAnnotation(ctx, id); err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(`{"status":"ok"}`), nil
	}
}

func addGetAnnotationsTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"get_annotations",
		mcp.WithDescription("Lists annotations attached to a path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("path to look up")),
		mcp.WithString("container", mcp.Description("container name; defaults to the active container")),
	)
	s.AddTool(tool, getAnnotationsHandler(deps))
}

func getAnnotationsHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

		annotations, err := c.Fragments().GetAnnotationsByPath(ctx, path)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(annotations)
	}
}
