package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentregistry-dev/agentconsole/internal/cli"
	"github.com/agentregistry-dev/agentconsole/internal/cli/agent"
	"github.com/agentregistry-dev/agentconsole/internal/cli/mcp"
	"github.com/agentregistry-dev/agentconsole/internal/client"
	"github.com/agentregistry-dev/agentconsole/internal/logging"
	"github.com/agentregistry-dev/agentconsole/pkg/types"
)

// CLIOptions configures the CLI behavior
type CLIOptions struct {
	// AuthnProvider provides CLI-specific authentication.
	// If nil, uses AGENTCTL_PLATFORM_TOKEN.
	AuthnProvider types.CLIAuthnProvider

	// AppOptions are handed to the console when agentctl serve runs.
	AppOptions types.AppOptions
}

var cliOptions CLIOptions
var platformURL string
var platformToken string

// Configure applies options to the root command
func Configure(opts CLIOptions) {
	cliOptions = opts
	cli.ConfigureServe(opts.AppOptions)
}

// offlineCommands run without a platform client.
var offlineCommands = map[string]bool{
	"serve":      true,
	"version":    true,
	"help":       true,
	"completion": true,
}

var rootCmd = &cobra.Command{
	Use:   "agentctl",
	Short: "Agent platform CLI",
	Long: `agentctl imports exported agents into the agent platform, resolving
models, placeholders and MCP servers along the way.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(logging.New(os.Stderr, level))

		if offlineCommands[cmd.Name()] {
			return nil
		}

		baseURL, token := resolvePlatformTarget()

		// Get authentication token if no token override was provided
		if token == "" && cliOptions.AuthnProvider != nil {
			var err error
			token, err = cliOptions.AuthnProvider.Authenticate(cmd.Context())
			if err != nil {
				return fmt.Errorf("CLI authentication failed: %w", err)
			}
		}

		c := client.NewClient(baseURL, token)
		slog.Debug("using platform", "url", c.BaseURL)

		APIClient = c
		mcp.SetPlatform(APIClient)
		agent.SetPlatform(APIClient)
		cli.SetPlatform(APIClient)
		return nil
	},
}

// APIClient is the shared platform client used by CLI commands
var APIClient *client.Client
var verbose bool

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	envBaseURL := os.Getenv(client.EnvBaseURL)
	envToken := os.Getenv(client.EnvToken)
	rootCmd.PersistentFlags().StringVar(&platformURL, "platform-url", envBaseURL, "Platform base URL (overrides "+client.EnvBaseURL+"; default "+client.DefaultBaseURL+")")
	rootCmd.PersistentFlags().StringVar(&platformToken, "platform-token", envToken, "Platform bearer token (overrides "+client.EnvToken+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(agent.ImportCmd)
	rootCmd.AddCommand(agent.InspectCmd)
	rootCmd.AddCommand(mcp.McpCmd)
	rootCmd.AddCommand(cli.ModelsCmd)
	rootCmd.AddCommand(cli.ServeCmd)
	rootCmd.AddCommand(cli.VersionCmd)
}

func Root() *cobra.Command {
	return rootCmd
}

func resolvePlatformTarget() (string, string) {
	base := strings.TrimSpace(platformURL)
	if base == "" {
		base = strings.TrimSpace(os.Getenv(client.EnvBaseURL))
	}
	base = normalizeBaseURL(base)

	token := platformToken
	if token == "" {
		token = os.Getenv(client.EnvToken)
	}

	return base, token
}

func normalizeBaseURL(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return client.DefaultBaseURL
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	return "http://" + trimmed
}
