package cli

import (
	"errors"

	"github.com/agentregistry-dev/agentconsole/internal/console/service"
)

var platform service.PlatformService

// SetPlatform sets the platform client used by the top-level commands.
func SetPlatform(p service.PlatformService) {
	platform = p
}

var errNoPlatform = errors.New("platform client not initialized")
