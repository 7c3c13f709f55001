// Package service defines the platform operations the console depends on.
package service

import (
	"context"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

// PlatformService is the remote agent platform as seen by the console.
// internal/client.Client is the production implementation.
type PlatformService interface {
	// Ping checks that the platform is reachable
	Ping(ctx context.Context) error
	// ListModels returns every configured language model with its connection status
	ListModels(ctx context.Context) ([]models.ModelOption, error)
	// ListMcpServers returns the MCP servers registered on the platform
	ListMcpServers(ctx context.Context) ([]models.McpServerRecord, error)
	// AddMcpServer registers a remote MCP server under name
	AddMcpServer(ctx context.Context, url, name string) error
	// ListTools returns the tool catalog
	ListTools(ctx context.Context) ([]models.ToolInfo, error)
	// RefreshTools asks the platform to rescan tools from its MCP servers
	RefreshTools(ctx context.Context) error
	// RefreshAgents asks the platform to reload its agent list
	RefreshAgents(ctx context.Context) error
	// ImportAgent submits an assembled import document
	ImportAgent(ctx context.Context, doc *models.AgentImportDocument, opts models.ImportOptions) error
}
