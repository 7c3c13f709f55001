package types

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/agentregistry-dev/agentconsole/internal/console/config"
	"github.com/agentregistry-dev/agentconsole/internal/console/database"
	"github.com/agentregistry-dev/agentconsole/internal/console/service"
	"github.com/agentregistry-dev/agentconsole/pkg/console/auth"
)

// PlatformFactory creates the platform client the console forwards to.
type PlatformFactory func(cfg *config.Config) service.PlatformService

// DatabaseFactory creates the agent store. It replaces the DATABASE_URL backend.
type DatabaseFactory func(ctx context.Context, databaseURL string) (database.AgentRepository, error)

// AppOptions contains configuration for the console app.
// All fields are optional and allow external developers to extend functionality.
type AppOptions struct {
	// PlatformFactory overrides the HTTP platform client.
	PlatformFactory PlatformFactory

	// DatabaseFactory overrides the agent store selected by DATABASE_URL.
	DatabaseFactory DatabaseFactory

	// HTTPServerFactory is an optional function to create a server that adds new API routes.
	HTTPServerFactory HTTPServerFactory

	// OnHTTPServerCreated is an optional callback that receives the created server
	// (potentially extended via HTTPServerFactory).
	OnHTTPServerCreated func(Server)

	// AuthnProvider is an optional authentication provider.
	AuthnProvider auth.AuthnProvider

	// AuthzProvider is an optional authorization provider.
	AuthzProvider auth.AuthzProvider
}

// Server represents the HTTP server and provides access to the Huma API
// and HTTP mux for registering new routes and handlers.
type Server interface {
	// HumaAPI returns the Huma API instance, allowing registration of new routes
	// that will appear in the OpenAPI documentation.
	HumaAPI() huma.API

	// Mux returns the HTTP ServeMux, allowing registration of custom HTTP handlers
	Mux() *http.ServeMux

	// Start begins listening for incoming HTTP requests
	Start() error

	// Shutdown gracefully shuts down the server
	Shutdown(ctx context.Context) error
}

// HTTPServerFactory is a function type that creates a server implementation that
// adds new API routes and handlers.
type HTTPServerFactory func(base Server) Server

// CLIAuthnProvider provides authentication for CLI commands.
type CLIAuthnProvider interface {
	// Authenticate returns the bearer token for platform calls.
	Authenticate(ctx context.Context) (token string, err error)
}
