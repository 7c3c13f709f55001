package agent

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentregistry-dev/agentconsole/internal/agentimport"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
	"github.com/agentregistry-dev/agentconsole/pkg/printer"
)

// InspectResult is the structured output of the inspect command.
type InspectResult struct {
	AgentID    models.AgentRef               `json:"agentId" yaml:"agentId"`
	Agents     []InspectAgent                `json:"agents" yaml:"agents"`
	Fields     []agentimport.ConfigField     `json:"fields" yaml:"fields"`
	McpServers []agentimport.McpInstallState `json:"mcpServers" yaml:"mcpServers"`
}

type InspectAgent struct {
	Key     string `json:"key" yaml:"key"`
	Label   string `json:"label" yaml:"label"`
	Primary bool   `json:"primary" yaml:"primary"`
	Tools   int    `json:"tools" yaml:"tools"`
}

var InspectCmd = NewInspectCmd()

// NewInspectCmd builds the inspect command.
func NewInspectCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show what an exported agent needs before it can be imported",
		Long: `Lists the agents of an export document, every placeholder that needs a value
and the MCP servers it references, with their install state on the platform.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}

func runInspect(cmd *cobra.Command, path, output string) error {
	if platform == nil {
		return errNoPlatform
	}
	outType, err := printer.ParseOutputType(output)
	if err != nil {
		return err
	}
	doc, err := readDocument(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	registered, err := platform.ListMcpServers(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list MCP servers: %w", err)
	}

	result := InspectResult{
		AgentID:    doc.AgentID,
		Fields:     agentimport.ParseConfigFields(doc),
		McpServers: agentimport.ParseMcpServers(doc, registered),
	}
	for _, key := range doc.AgentInfo.Keys() {
		def := doc.AgentInfo.Get(key)
		result.Agents = append(result.Agents, InspectAgent{
			Key:     key,
			Label:   agentimport.AgentLabel(key, def),
			Primary: doc.IsPrimary(key),
			Tools:   len(def.Tools),
		})
	}

	p := printer.New(outType)
	p.SetOutput(cmd.OutOrStdout())
	return p.Print(result, func(w io.Writer) error {
		return printInspectTables(w, result)
	})
}

func printInspectTables(w io.Writer, result InspectResult) error {
	at := printer.NewTablePrinter(w)
	at.SetHeaders("Key", "Agent", "Primary", "Tools")
	for _, a := range result.Agents {
		primary := ""
		if a.Primary {
			primary = "yes"
		}
		at.AddRow(a.Key, a.Label, primary, a.Tools)
	}
	if err := at.Render(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(w)
	if len(result.Fields) == 0 {
		_, _ = fmt.Fprintln(w, "No placeholders to configure.")
	} else {
		labels := map[string]string{}
		for _, a := range result.Agents {
			labels[a.Key] = a.Label
		}
		ft := printer.NewTablePrinter(w)
		ft.SetHeaders("Key", "Agent", "Label", "Hint")
		for _, f := range result.Fields {
			ft.AddRow(f.Key, labels[f.AgentKey], f.Label, printer.EmptyValueOrDefault(printer.TruncateString(f.Hint, 60), "-"))
		}
		if err := ft.Render(); err != nil {
			return err
		}
	}

	if len(result.McpServers) == 0 {
		return nil
	}
	_, _ = fmt.Fprintln(w)
	mt := printer.NewTablePrinter(w)
	mt.SetHeaders("MCP server", "URL", "Status")
	for _, st := range result.McpServers {
		mt.AddRow(st.Name, printer.EmptyValueOrDefault(st.EffectiveURL(), "<needs URL>"), printer.FormatStatus(st.Installed))
	}
	return mt.Render()
}
