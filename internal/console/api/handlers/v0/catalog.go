package v0

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/agentregistry-dev/agentconsole/internal/agentimport"
	"github.com/agentregistry-dev/agentconsole/internal/console/service"
	"github.com/agentregistry-dev/agentconsole/pkg/console/auth"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

type ListModelsInput struct {
	All bool `query:"all" doc:"Include models the platform cannot currently reach"`
}

type ModelListBody struct {
	Models []models.ModelOption `json:"models"`
}

type McpServerListBody struct {
	Servers []models.McpServerRecord `json:"servers"`
}

type ToolListBody struct {
	Tools []models.ToolInfo `json:"tools"`
}

// RegisterCatalogEndpoints exposes the platform's model, MCP server and tool
// listings to the console.
func RegisterCatalogEndpoints(api huma.API, pathPrefix string, platform service.PlatformService, authz *auth.Authorizer) {
	suffix := operationSuffix(pathPrefix)

	huma.Register(api, huma.Operation{
		OperationID: "list-models" + suffix,
		Method:      http.MethodGet,
		Path:        pathPrefix + "/models",
		Summary:     "List models",
		Description: "List the language models agents can be assigned. Only reachable models are returned unless all=true.",
		Tags:        []string{"models"},
	}, func(ctx context.Context, input *ListModelsInput) (*Response[ModelListBody], error) {
		if err := authError(authz.Check(ctx, auth.PermissionActionRead, auth.Resource{Name: "*", Type: auth.ResourceTypeModel})); err != nil {
			return nil, err
		}
		all, err := platform.ListModels(ctx)
		if err != nil {
			return nil, huma.Error502BadGateway("Failed to load models", err)
		}
		if !input.All {
			all = agentimport.SelectableModels(all)
		}
		if all == nil {
			all = []models.ModelOption{}
		}
		return &Response[ModelListBody]{Body: ModelListBody{Models: all}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-mcp-servers" + suffix,
		Method:      http.MethodGet,
		Path:        pathPrefix + "/mcp-servers",
		Summary:     "List registered MCP servers",
		Tags:        []string{"mcp"},
	}, func(ctx context.Context, _ *struct{}) (*Response[McpServerListBody], error) {
		if err := authError(authz.Check(ctx, auth.PermissionActionRead, auth.Resource{Name: "*", Type: auth.ResourceTypeMcp})); err != nil {
			return nil, err
		}
		servers, err := platform.ListMcpServers(ctx)
		if err != nil {
			return nil, huma.Error502BadGateway("Failed to load MCP servers", err)
		}
		if servers == nil {
			servers = []models.McpServerRecord{}
		}
		return &Response[McpServerListBody]{Body: McpServerListBody{Servers: servers}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tools" + suffix,
		Method:      http.MethodGet,
		Path:        pathPrefix + "/tools",
		Summary:     "List catalog tools",
		Tags:        []string{"tools"},
	}, func(ctx context.Context, _ *struct{}) (*Response[ToolListBody], error) {
		if err := authError(authz.Check(ctx, auth.PermissionActionRead, auth.Resource{Name: "*", Type: auth.ResourceTypeAgent})); err != nil {
			return nil, err
		}
		tools, err := platform.ListTools(ctx)
		if err != nil {
			return nil, huma.Error502BadGateway("Failed to load tools", err)
		}
		if tools == nil {
			tools = []models.ToolInfo{}
		}
		return &Response[ToolListBody]{Body: ToolListBody{Tools: tools}}, nil
	})
}
