package mcp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentregistry-dev/agentconsole/pkg/printer"
)

var InstallCmd = &cobra.Command{
	Use:   "install NAME URL",
	Short: "Register an MCP server on the platform",
	Long: `Registers a remote MCP server under NAME and asks the platform to refresh
its tool and agent catalogs.`,
	Example: `  agentctl mcp install weather https://weather.example.com/mcp`,
	Args:    cobra.ExactArgs(2),
	RunE:    runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	if platform == nil {
		return errNoPlatform
	}
	name := strings.TrimSpace(args[0])
	rawURL := strings.TrimSpace(args[1])
	if name == "" {
		return fmt.Errorf("server name is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid MCP server URL %q", rawURL)
	}

	ctx := cmd.Context()
	if err := platform.AddMcpServer(ctx, rawURL, name); err != nil {
		return fmt.Errorf("failed to install MCP server %s: %w", name, err)
	}
	if err := platform.RefreshTools(ctx); err != nil {
		printer.PrintWarning(fmt.Sprintf("tool catalog refresh failed: %v", err))
	}
	if err := platform.RefreshAgents(ctx); err != nil {
		printer.PrintWarning(fmt.Sprintf("agent catalog refresh failed: %v", err))
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Installed MCP server %s (%s)\n", name, rawURL)
	return nil
}
