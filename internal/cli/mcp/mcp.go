// Package mcp implements the agentctl commands for MCP servers registered on
// the platform.
package mcp

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/agentregistry-dev/agentconsole/internal/console/service"
)

var platform service.PlatformService

// SetPlatform sets the platform client used by the mcp commands.
func SetPlatform(p service.PlatformService) {
	platform = p
}

var errNoPlatform = errors.New("platform client not initialized")

var McpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Manage MCP servers registered on the platform",
}

func init() {
	McpCmd.AddCommand(ListCmd)
	McpCmd.AddCommand(InstallCmd)
}
