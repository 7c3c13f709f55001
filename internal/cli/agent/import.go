package agent

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/agentregistry-dev/agentconsole/internal/agentimport"
	"github.com/agentregistry-dev/agentconsole/internal/cli/agent/tui"
	"github.com/agentregistry-dev/agentconsole/internal/cli/common"
	"github.com/agentregistry-dev/agentconsole/internal/utils"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
	"github.com/agentregistry-dev/agentconsole/pkg/printer"
)

type importOptions struct {
	force          bool
	modelID        int
	modelName      string
	agentModels    []string
	values         []string
	mcpURLs        []string
	nonInteractive bool
	output         string
}

var ImportCmd = NewImportCmd()

// NewImportCmd builds the import command with its own flag state.
func NewImportCmd() *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import an exported agent into the platform",
		Long: `Walks an exported agent document through model assignment, placeholder
configuration and MCP server installation, then imports it.

Runs an interactive wizard on a terminal. With --non-interactive, or when stdin
is not a terminal, the answers come from flags only. FILE may be "-" for stdin.`,
		Example: `  agentctl import weather_agent.json
  agentctl import weather_agent.json --non-interactive --model-id 3 \
    --set 1::description="Reports the weather" --mcp-url weather=https://weather.example.com/mcp`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.force, "force", false, "Import even if an agent with the same name exists")
	cmd.Flags().IntVar(&opts.modelID, "model-id", 0, "Model id assigned to every agent")
	cmd.Flags().StringVar(&opts.modelName, "model-name", "", "Model name assigned to every agent")
	cmd.Flags().StringArrayVar(&opts.agentModels, "agent-model", nil, "Per-agent model as AGENT_KEY=ID[:NAME] (repeatable, selects individual mode)")
	cmd.Flags().StringArrayVar(&opts.values, "set", nil, "Placeholder value as KEY=VALUE; KEY is a field key, path or label (repeatable)")
	cmd.Flags().StringArrayVar(&opts.mcpURLs, "mcp-url", nil, "MCP server URL as NAME=URL (repeatable)")
	cmd.Flags().BoolVar(&opts.nonInteractive, "non-interactive", false, "Do not start the wizard")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}

func runImport(cmd *cobra.Command, path string, opts *importOptions) error {
	if platform == nil {
		return errNoPlatform
	}
	outType, err := printer.ParseOutputType(opts.output)
	if err != nil {
		return err
	}
	plan, err := opts.plan(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	progress := cmd.ErrOrStderr()

	var modelOptions []models.ModelOption
	var registered []models.McpServerRecord
	err = common.WithSpinner(progress, "Loading platform catalog", func() error {
		var err error
		if modelOptions, err = platform.ListModels(ctx); err != nil {
			return fmt.Errorf("failed to list models: %w", err)
		}
		if registered, err = platform.ListMcpServers(ctx); err != nil {
			return fmt.Errorf("failed to list MCP servers: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	session, err := agentimport.NewSession(doc, registered, platform, slog.Default())
	if err != nil {
		return err
	}
	defer session.WaitForRefreshes()

	interactive := !opts.nonInteractive && isTerminal(os.Stdin) && isTerminal(os.Stdout)
	applyErr := common.WithSpinner(progress, "Applying answers", func() error {
		return plan.Apply(ctx, session, modelOptions)
	})
	if applyErr != nil {
		if !interactive {
			return applyErr
		}
		printer.PrintWarning(applyErr.Error())
	}

	submit := agentimport.SubmitOptions{ForceImport: opts.force}
	var result *models.AgentImportDocument
	if interactive {
		wizard := tui.NewImportWizard(ctx, session, modelOptions, submit)
		if _, err := tea.NewProgram(wizard, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("import wizard failed: %w", err)
		}
		if !wizard.Ok() {
			printer.PrintInfo("Import cancelled")
			return nil
		}
		result = wizard.Result()
	} else {
		err = common.WithSpinner(progress, "Importing agent", func() error {
			var err error
			result, err = session.Submit(ctx, submit)
			return err
		})
		var verr *agentimport.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("import is incomplete: %w (provide values with --model-id, --agent-model, --set or --mcp-url)", err)
		}
		if err != nil {
			return err
		}
	}

	return printImportResult(cmd.OutOrStdout(), outType, result)
}

func (o *importOptions) plan(cmd *cobra.Command) (ImportPlan, error) {
	var plan ImportPlan
	if cmd.Flags().Changed("model-id") || strings.TrimSpace(o.modelName) != "" {
		ref := utils.ModelRef{Name: strings.TrimSpace(o.modelName)}
		if cmd.Flags().Changed("model-id") {
			id := o.modelID
			ref.ID = &id
		}
		plan.Model = &ref
	}

	pairs, err := utils.ParseKeyValuePairs(o.agentModels)
	if err != nil {
		return plan, fmt.Errorf("--agent-model: %w", err)
	}
	if len(pairs) > 0 {
		plan.AgentModels = make(map[string]utils.ModelRef, len(pairs))
		for key, value := range pairs {
			ref, err := utils.ParseModelRef(value)
			if err != nil {
				return plan, fmt.Errorf("--agent-model %s: %w", key, err)
			}
			plan.AgentModels[key] = ref
		}
	}

	if plan.Values, err = utils.ParseKeyValuePairs(o.values); err != nil {
		return plan, fmt.Errorf("--set: %w", err)
	}
	urls, err := utils.ParseKeyValuePairs(o.mcpURLs)
	if err != nil {
		return plan, fmt.Errorf("--mcp-url: %w", err)
	}
	plan.McpURLs = make(map[string]string, len(urls))
	for name, u := range urls {
		plan.McpURLs[name] = strings.TrimSpace(u)
	}
	return plan, nil
}

func printImportResult(w io.Writer, outType printer.OutputType, doc *models.AgentImportDocument) error {
	p := printer.New(outType)
	p.SetOutput(w)
	return p.Print(doc, func(w io.Writer) error {
		_, _ = fmt.Fprintf(w, "✓ Imported agent %s\n\n", doc.AgentID)
		t := printer.NewTablePrinter(w)
		t.SetHeaders("Key", "Name", "Model", "Tools")
		for _, key := range doc.AgentInfo.Keys() {
			def := doc.AgentInfo.Get(key)
			t.AddRow(key, agentimport.AgentLabel(key, def), printer.EmptyValueOrDefault(def.ModelName, "-"), len(def.Tools))
		}
		if err := t.Render(); err != nil {
			return err
		}
		if len(doc.McpInfo) == 0 {
			return nil
		}
		_, _ = fmt.Fprintln(w)
		mt := printer.NewTablePrinter(w)
		mt.SetHeaders("MCP server", "URL")
		for _, ref := range doc.McpInfo {
			mt.AddRow(ref.McpServerName, ref.McpURL)
		}
		return mt.Render()
	})
}
