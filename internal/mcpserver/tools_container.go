package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aman-cerp/semindex/internal/embed"
	"github.com/aman-cerp/semindex/internal/model"
)

func addListContainersTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"list_containers",
		mcp.WithDescription("Lists every registered container, flagging which one is active."),
	)
	s.AddTool(tool, listContainersHandler(deps))
}

func listContainersHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		containers, err := deps.Manager.List()
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(containers)
	}
}

func addCreateContainerTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"create_container",
		mcp.WithDescription("Creates a new named container. Without explicit provider fields, it snapshots the currently active container's provider identity."),
		mcp.WithString("name", mcp.Required(), mcp.Description("unique container name")),
		mcp.WithString("description", mcp.Description("human-readable description")),
		mcp.WithArray("roots", mcp.Description("initial root directories")),
		mcp.WithString("provider_kind", mcp.Description("'local' or 'remote'; omit to snapshot the active container's provider")),
		mcp.WithString("provider_model", mcp.Description("embedding model identifier")),
		mcp.WithNumber("provider_dimension", mcp.Description("embedding vector dimension")),
	)
	s.AddTool(tool, createContainerHandler(deps))
}

func createContainerHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argsMapFromRequest(request.Params.Arguments)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		name, err := parseStringArg(argsMap, "name", true)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		description, _ := parseStringArg(argsMap, "description", false)
		roots := parseArrayArg(argsMap, "roots")

		provider, err := resolveProvider(deps, argsMap)
		if err != nil {
			return toolError(err), nil
		}

		c, err := deps.Manager.Create(ctx, name, description, provider, roots)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(c.Record())
	}
}

// resolveProvider builds the provider identity for a new container: fully
// explicit fields win, otherwise the active container's provider is
// snapshotted so a bare create_container call stays usable.
func resolveProvider(deps Deps, argsMap map[string]interface{}) (model.ProviderIdentity, error) {
	kind, _ := parseStringArg(argsMap, "provider_kind", false)
	if kind == "" {
		active, err := deps.Manager.Active()
		if err != nil {
			return model.ProviderIdentity{}, err
		}
		return active.Provider, nil
	}

	modelName, _ := parseStringArg(argsMap, "provider_model", false)
	dimension := parseIntArg(argsMap, "provider_dimension", embed.DefaultLocalDimensions)
	if modelName == "" {
		modelName = embed.DefaultLocalModelName
	}
	return model.ProviderIdentity{
		Kind:      model.ProviderKind(kind),
		Model:     modelName,
		Dimension: dimension,
	}, nil
}

func addDeleteContainerTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"delete_container",
		mcp.WithDescription("Deletes a container and all of its stored data. Refuses to delete the Default container."),
		mcp.WithString("name", mcp.Required(), mcp.Description("container name")),
	)
	s.AddTool(tool, deleteContainerHandler(deps))
}

func deleteContainerHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argsMapFromRequest(request.Params.Arguments)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		name, err := parseStringArg(argsMap, "name", true)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		if err := deps.Manager.Delete(name); err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(`{"status":"ok"}`), nil
	}
}

func addSetActiveContainerTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool(
		"set_active_container",
		mcp.WithDescription("Marks a container as the active one; all others become inactive."),
		mcp.WithString("name", mcp.Required(), mcp.Description("container name")),
	)
	s.AddTool(tool, setActiveContainerHandler(deps))
}

func setActiveContainerHandler(deps Deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := argsMapFromRequest(request.Params.Arguments)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		name, err := parseStringArg(argsMap, "name", true)
		if err != nil {
			return invalidParams(err.Error()), nil
		}
		if err := deps.Manager.SetActive(name); err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(`{"status":"ok"}`), nil
	}
}
