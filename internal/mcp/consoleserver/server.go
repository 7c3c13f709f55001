package consoleserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agentregistry-dev/agentconsole/internal/agentimport"
	"github.com/agentregistry-dev/agentconsole/internal/console/database"
	"github.com/agentregistry-dev/agentconsole/internal/console/service"
	"github.com/agentregistry-dev/agentconsole/internal/console/sessions"
	"github.com/agentregistry-dev/agentconsole/internal/version"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

const (
	serverName = "agent-console-mcp"

	defaultPageLimit = 30
	maxPageLimit     = 100
)

// Deps are the backends the MCP tools read from. Agents may be nil.
type Deps struct {
	Platform service.PlatformService
	Sessions *sessions.Manager
	Agents   database.AgentRepository
}

// NewServer constructs an MCP server exposing read-only views of the console:
// import document inspection, wizard sessions, console agents and the model catalog.
func NewServer(deps Deps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: version.Version,
	}, &mcp.ServerOptions{
		HasTools: true,
	})

	addImportTools(server, deps)
	addAgentTools(server, deps)
	addCatalogTools(server, deps)
	addMetaTools(server)

	return server
}

type inspectImportArgs struct {
	Document string `json:"document" jsonschema:"agent import document as JSON or YAML"`
}

type agentSummary struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Tools int    `json:"tools"`
}

type inspectImportResult struct {
	AgentID    string                        `json:"agentId"`
	Agents     []agentSummary                `json:"agents"`
	Fields     []agentimport.ConfigField     `json:"fields"`
	McpServers []agentimport.McpInstallState `json:"mcpServers"`
}

type sessionArgs struct {
	ID string `json:"id" jsonschema:"import session id"`
}

type sessionResult struct {
	ID      string                  `json:"id"`
	Session agentimport.SessionView `json:"session"`
}

func addImportTools(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "inspect_agent_import",
		Description: "Parse an agent import document and list the placeholders and MCP servers that need attention",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args inspectImportArgs) (*mcp.CallToolResult, inspectImportResult, error) {
		doc, err := models.ParseAgentImportDocument([]byte(args.Document))
		if err != nil {
			return nil, inspectImportResult{}, err
		}
		registered, err := deps.Platform.ListMcpServers(ctx)
		if err != nil {
			return nil, inspectImportResult{}, fmt.Errorf("failed to list MCP servers: %w", err)
		}

		out := inspectImportResult{
			AgentID:    string(doc.AgentID),
			Agents:     []agentSummary{},
			Fields:     agentimport.ParseConfigFields(doc),
			McpServers: agentimport.ParseMcpServers(doc, registered),
		}
		for _, key := range doc.AgentInfo.Keys() {
			def := doc.AgentInfo.Get(key)
			out.Agents = append(out.Agents, agentSummary{
				Key:   key,
				Label: agentimport.AgentLabel(key, def),
				Tools: len(def.Tools),
			})
		}
		return nil, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_import_session",
		Description: "Fetch the current state of an import wizard session",
	}, func(_ context.Context, _ *mcp.CallToolRequest, args sessionArgs) (*mcp.CallToolResult, sessionResult, error) {
		if args.ID == "" {
			return nil, sessionResult{}, fmt.Errorf("id is required")
		}
		if deps.Sessions == nil {
			return nil, sessionResult{}, sessions.ErrSessionNotFound
		}
		s, err := deps.Sessions.Get(sessions.SessionID(args.ID))
		if err != nil {
			return nil, sessionResult{}, err
		}
		return nil, sessionResult{ID: args.ID, Session: s.View()}, nil
	})
}

type listAgentsArgs struct {
	Cursor  string `json:"cursor,omitempty" jsonschema:"pagination cursor"`
	Limit   int    `json:"limit,omitempty" jsonschema:"number of agents to return"`
	Search  string `json:"search,omitempty" jsonschema:"case-insensitive name filter"`
	Enabled *bool  `json:"enabled,omitempty" jsonschema:"only agents with this enabled state"`
}

// consoleAgent leaves out timestamps and the full definition to keep tool output small.
type consoleAgent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	ModelName   string `json:"modelName,omitempty"`
	Enabled     bool   `json:"enabled"`
	Tools       int    `json:"tools"`
}

type listAgentsResult struct {
	Agents     []consoleAgent `json:"agents"`
	NextCursor string         `json:"nextCursor,omitempty"`
	Count      int            `json:"count"`
}

func addAgentTools(server *mcp.Server, deps Deps) {
	if deps.Agents == nil {
		return
	}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_console_agents",
		Description: "List agents managed through the console with optional search and pagination",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args listAgentsArgs) (*mcp.CallToolResult, listAgentsResult, error) {
		filter := &database.AgentFilter{Enabled: args.Enabled}
		if args.Search != "" {
			filter.SubstringName = &args.Search
		}
		agents, next, err := deps.Agents.ListAgents(ctx, filter, args.Cursor, clampLimit(args.Limit))
		if err != nil {
			return nil, listAgentsResult{}, err
		}
		out := listAgentsResult{
			Agents:     make([]consoleAgent, len(agents)),
			NextCursor: next,
			Count:      len(agents),
		}
		for i, a := range agents {
			out.Agents[i] = consoleAgent{
				ID:          a.ID,
				Name:        a.Name,
				DisplayName: a.DisplayName,
				ModelName:   a.ModelName,
				Enabled:     a.Enabled,
				Tools:       len(a.Tools),
			}
		}
		return nil, out, nil
	})
}

type listModelsArgs struct {
	All bool `json:"all,omitempty" jsonschema:"include models that are not available"`
}

type modelsResult struct {
	Models []models.ModelOption `json:"models"`
	Count  int                  `json:"count"`
}

func addCatalogTools(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_models",
		Description: "List the language models an imported agent can be assigned",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args listModelsArgs) (*mcp.CallToolResult, modelsResult, error) {
		all, err := deps.Platform.ListModels(ctx)
		if err != nil {
			return nil, modelsResult{}, fmt.Errorf("failed to list models: %w", err)
		}
		out := modelsResult{Models: []models.ModelOption{}}
		for _, m := range all {
			if args.All || m.Selectable() {
				out.Models = append(out.Models, m)
			}
		}
		out.Count = len(out.Models)
		return nil, out, nil
	})
}

func addMetaTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "console_health",
		Description: "Simple health check for the console MCP bridge",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, map[string]string, error) {
		return nil, map[string]string{"status": "ok"}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "console_version",
		Description: "Return console build metadata",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, map[string]string, error) {
		return nil, map[string]string{
			"version":    version.Version,
			"gitCommit":  version.GitCommit,
			"serverName": serverName,
		}, nil
	})
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}
