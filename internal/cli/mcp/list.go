package mcp

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
	"github.com/agentregistry-dev/agentconsole/pkg/printer"
)

var (
	sortBy       string
	outputFormat string
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List MCP servers",
	Long:  `List the MCP servers registered on the platform.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	ListCmd.Flags().StringVarP(&sortBy, "sortBy", "s", "name", "Sort by column (name, url)")
	ListCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml)")
}

func runList(cmd *cobra.Command, args []string) error {
	if platform == nil {
		return errNoPlatform
	}
	outType, err := printer.ParseOutputType(outputFormat)
	if err != nil {
		return err
	}
	servers, err := platform.ListMcpServers(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get MCP servers: %w", err)
	}
	if err := sortServers(servers, sortBy); err != nil {
		return err
	}

	p := printer.New(outType)
	p.SetOutput(cmd.OutOrStdout())
	return p.Print(servers, func(w io.Writer) error {
		if len(servers) == 0 {
			_, err := fmt.Fprintln(w, "No MCP servers registered")
			return err
		}
		return printServersTable(w, servers)
	})
}

func sortServers(servers []models.McpServerRecord, column string) error {
	var less func(a, b models.McpServerRecord) bool
	switch column {
	case "", "name":
		less = func(a, b models.McpServerRecord) bool { return a.ServiceName < b.ServiceName }
	case "url":
		less = func(a, b models.McpServerRecord) bool { return a.McpURL < b.McpURL }
	default:
		return fmt.Errorf("invalid sort column %q (valid: name, url)", column)
	}
	sort.SliceStable(servers, func(i, j int) bool { return less(servers[i], servers[j]) })
	return nil
}

func printServersTable(w io.Writer, servers []models.McpServerRecord) error {
	t := printer.NewTablePrinter(w)
	t.SetHeaders("Name", "URL", "Remote", "Status")
	for _, s := range servers {
		remote := "no"
		if s.Remote {
			remote = "yes"
		}
		status := "Disconnected"
		if s.Status {
			status = "Connected"
		}
		t.AddRow(s.ServiceName, printer.TruncateString(s.McpURL, 60), remote, status)
	}
	return t.Render()
}
