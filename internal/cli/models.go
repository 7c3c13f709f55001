package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentregistry-dev/agentconsole/internal/agentimport"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
	"github.com/agentregistry-dev/agentconsole/pkg/printer"
)

var ModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the platform's model catalog",
}

var (
	modelsListAll    bool
	modelsListOutput string
)

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List models that can be assigned to imported agents",
	Long: `Lists the platform's models. Only models whose connection status is
"available" can be assigned during import; pass --all to include the others.`,
	Args: cobra.NoArgs,
	RunE: runModelsList,
}

func init() {
	modelsListCmd.Flags().BoolVarP(&modelsListAll, "all", "a", false, "Include models that are not available")
	modelsListCmd.Flags().StringVarP(&modelsListOutput, "output", "o", "table", "Output format (table, json, yaml)")
	ModelsCmd.AddCommand(modelsListCmd)
}

func runModelsList(cmd *cobra.Command, args []string) error {
	if platform == nil {
		return errNoPlatform
	}
	outType, err := printer.ParseOutputType(modelsListOutput)
	if err != nil {
		return err
	}
	options, err := platform.ListModels(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if !modelsListAll {
		options = agentimport.SelectableModels(options)
	}

	p := printer.New(outType)
	p.SetOutput(cmd.OutOrStdout())
	return p.Print(options, func(w io.Writer) error {
		if len(options) == 0 {
			_, err := fmt.Fprintln(w, "No models found")
			return err
		}
		return printModels(w, options)
	})
}

func printModels(w io.Writer, options []models.ModelOption) error {
	t := printer.NewTablePrinter(w)
	t.SetHeaders("ID", "Name", "Model", "Status")
	for _, opt := range options {
		t.AddRow(opt.ID,
			printer.EmptyValueOrDefault(opt.DisplayName, "-"),
			printer.EmptyValueOrDefault(opt.ModelName, "-"),
			printer.EmptyValueOrDefault(opt.ConnectStatus, "unknown"))
	}
	return t.Render()
}
