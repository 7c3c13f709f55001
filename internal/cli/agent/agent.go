// Package agent implements the agent import commands of agentctl.
package agent

import (
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/x/term"

	"github.com/agentregistry-dev/agentconsole/internal/console/service"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

var platform service.PlatformService

// SetPlatform sets the platform client used by the agent commands.
func SetPlatform(p service.PlatformService) {
	platform = p
}

var errNoPlatform = errors.New("platform client not initialized")

// readDocument loads an import document from path, or from stdin when path is "-".
func readDocument(path string, stdin io.Reader) (*models.AgentImportDocument, error) {
	if path != "-" {
		return models.LoadAgentImportDocument(path)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, err
	}
	return models.ParseAgentImportDocument(data)
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(f.Fd())
}
