package v0

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/agentregistry-dev/agentconsole/internal/console/service"
)

const platformPingTimeout = 3 * time.Second

// HealthBody represents the health check response body
type HealthBody struct {
	Status   string `json:"status" example:"ok" doc:"Health status"`
	Platform string `json:"platform" example:"ok" doc:"Whether the agent platform answered a ping"`
	Detail   string `json:"detail,omitempty" doc:"Reason the platform check failed"`
}

// PingBody represents the ping response body
type PingBody struct {
	Pong bool `json:"pong" example:"true" doc:"Ping response"`
}

// VersionBody represents the version information
type VersionBody struct {
	Version   string `json:"version" example:"v1.0.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc123d" doc:"Git commit SHA"`
	BuildTime string `json:"build_time" example:"2025-10-14T12:00:00Z" doc:"Build timestamp"`
}

func operationSuffix(pathPrefix string) string {
	return strings.ReplaceAll(pathPrefix, "/", "-")
}

// RegisterHealthEndpoint registers the health check endpoint. The console
// itself is healthy even when the platform is not; the platform field says which.
func RegisterHealthEndpoint(api huma.API, pathPrefix string, platform service.PlatformService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-health" + operationSuffix(pathPrefix),
		Method:      http.MethodGet,
		Path:        pathPrefix + "/health",
		Summary:     "Health check",
		Description: "Check the health status of the console and its platform connection",
		Tags:        []string{"health"},
	}, func(ctx context.Context, _ *struct{}) (*Response[HealthBody], error) {
		body := HealthBody{Status: "ok", Platform: "ok"}
		if platform == nil {
			body.Platform = "unconfigured"
			return &Response[HealthBody]{Body: body}, nil
		}
		pctx, cancel := context.WithTimeout(ctx, platformPingTimeout)
		defer cancel()
		if err := platform.Ping(pctx); err != nil {
			body.Platform = "unreachable"
			body.Detail = err.Error()
		}
		return &Response[HealthBody]{Body: body}, nil
	})
}

// RegisterPingEndpoint registers the ping endpoint
func RegisterPingEndpoint(api huma.API, pathPrefix string) {
	huma.Register(api, huma.Operation{
		OperationID: "ping" + operationSuffix(pathPrefix),
		Method:      http.MethodGet,
		Path:        pathPrefix + "/ping",
		Summary:     "Ping",
		Description: "Simple ping endpoint",
		Tags:        []string{"ping"},
	}, func(_ context.Context, _ *struct{}) (*Response[PingBody], error) {
		return &Response[PingBody]{Body: PingBody{Pong: true}}, nil
	})
}

// RegisterVersionEndpoint registers the version endpoint
func RegisterVersionEndpoint(api huma.API, pathPrefix string, versionInfo *VersionBody) {
	huma.Register(api, huma.Operation{
		OperationID: "get-version" + operationSuffix(pathPrefix),
		Method:      http.MethodGet,
		Path:        pathPrefix + "/version",
		Summary:     "Get version information",
		Description: "Returns the version, git commit, and build time of the console",
		Tags:        []string{"version"},
	}, func(_ context.Context, _ *struct{}) (*Response[VersionBody], error) {
		return &Response[VersionBody]{Body: *versionInfo}, nil
	})
}
