package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentregistry-dev/agentconsole/internal/version"
	"github.com/agentregistry-dev/agentconsole/pkg/printer"
)

type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"gitCommit" yaml:"gitCommit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
}

var versionOutput string

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the agentctl version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outType, err := printer.ParseOutputType(versionOutput)
		if err != nil {
			return err
		}
		info := versionInfo{
			Version:   version.Version,
			GitCommit: version.GitCommit,
			BuildDate: version.BuildDate,
		}
		p := printer.New(outType)
		p.SetOutput(cmd.OutOrStdout())
		return p.Print(info, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "agentctl %s (commit %s, built %s)\n", info.Version, info.GitCommit, info.BuildDate)
			return err
		})
	},
}

func init() {
	VersionCmd.Flags().StringVarP(&versionOutput, "output", "o", "table", "Output format (table, json, yaml)")
}
