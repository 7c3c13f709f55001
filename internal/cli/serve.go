package cli

import (
	"github.com/spf13/cobra"

	"github.com/agentregistry-dev/agentconsole/internal/console"
	"github.com/agentregistry-dev/agentconsole/pkg/types"
)

var serveOptions types.AppOptions

// ConfigureServe sets the extension points passed to the console when serve runs.
func ConfigureServe(opts types.AppOptions) {
	serveOptions = opts
}

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent console HTTP and MCP servers",
	Long: `Starts the console API, which runs import wizard sessions on behalf of web
clients, and the console MCP server. Configuration is read from AGENT_CONSOLE_*
environment variables and an optional .env file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return console.App(cmd.Context(), serveOptions)
	},
}
