// Package console wires configuration, storage, the platform client and the
// HTTP and MCP servers into the agent console process.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agentregistry-dev/agentconsole/internal/client"
	"github.com/agentregistry-dev/agentconsole/internal/console/api"
	v0 "github.com/agentregistry-dev/agentconsole/internal/console/api/handlers/v0"
	"github.com/agentregistry-dev/agentconsole/internal/console/api/router"
	"github.com/agentregistry-dev/agentconsole/internal/console/config"
	"github.com/agentregistry-dev/agentconsole/internal/console/database"
	"github.com/agentregistry-dev/agentconsole/internal/console/service"
	"github.com/agentregistry-dev/agentconsole/internal/console/sessions"
	"github.com/agentregistry-dev/agentconsole/internal/console/telemetry"
	"github.com/agentregistry-dev/agentconsole/internal/console/toolconfig"
	"github.com/agentregistry-dev/agentconsole/internal/logging"
	consolemcp "github.com/agentregistry-dev/agentconsole/internal/mcp/consoleserver"
	"github.com/agentregistry-dev/agentconsole/internal/version"
	"github.com/agentregistry-dev/agentconsole/pkg/console/auth"
	"github.com/agentregistry-dev/agentconsole/pkg/types"
)

// App runs the console until SIGINT or SIGTERM.
func App(ctx context.Context, opts ...types.AppOptions) error {
	var options types.AppOptions
	if len(opts) > 0 {
		options = opts[0]
	}
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	logger := logging.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Only create jwtManager if JWT is configured
	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled() {
		jwtManager, err = auth.NewJWTManager(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize JWT manager: %w", err)
		}
	}

	authnProvider := options.AuthnProvider
	if authnProvider == nil && jwtManager != nil {
		authnProvider = jwtManager
	}

	// Without a token verifier and no custom provider every request is allowed.
	var authz *auth.Authorizer
	switch {
	case options.AuthzProvider != nil:
		authz = &auth.Authorizer{Authz: options.AuthzProvider}
	case jwtManager != nil:
		logger.Info("using console authz provider")
		authz = &auth.Authorizer{Authz: auth.NewConsoleAuthzProvider(jwtManager)}
	default:
		logger.Warn("authentication disabled; set JWT_PRIVATE_KEY to require tokens for changes")
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	var agents database.AgentRepository
	if options.DatabaseFactory != nil {
		agents, err = options.DatabaseFactory(dbCtx, cfg.DatabaseURL)
	} else {
		agents, err = database.Open(dbCtx, cfg.DatabaseURL)
	}
	if err != nil {
		return fmt.Errorf("failed to open agent store: %w", err)
	}
	defer func() {
		if err := agents.Close(); err != nil {
			logger.Error("error closing agent store", "error", err)
		} else {
			logger.Info("agent store closed")
		}
	}()

	var platform service.PlatformService
	if options.PlatformFactory != nil {
		platform = options.PlatformFactory(cfg)
	} else {
		platform = client.NewClient(cfg.PlatformURL, cfg.PlatformToken)
	}
	checkPlatform(ctx, platform, cfg.PlatformURL, logger)

	sessionManager := sessions.NewManager(cfg.SessionTTL)
	defer sessionManager.Close()

	logger.Info("starting agent console", "version", version.Version, "commit", version.GitCommit)

	shutdownTelemetry, metrics, err := telemetry.InitMetrics(cfg.Version)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("failed to shutdown telemetry", "error", err)
		}
	}()

	baseServer := api.NewServer(router.Deps{
		Config:   cfg,
		Platform: platform,
		Agents:   agents,
		Sessions: sessionManager,
		Editors:  toolconfig.NewEditors(),
		Metrics:  metrics,
		VersionInfo: &v0.VersionBody{
			Version:   version.Version,
			GitCommit: version.GitCommit,
			BuildTime: version.BuildDate,
		},
		JWTManager: jwtManager,
		Authn:      authnProvider,
		Authz:      authz,
		Logger:     logger,
	})

	var server types.Server = baseServer
	if options.HTTPServerFactory != nil {
		server = options.HTTPServerFactory(baseServer)
	}
	if options.OnHTTPServerCreated != nil {
		options.OnHTTPServerCreated(server)
	}

	errCh := make(chan error, 2)

	var mcpHTTPServer *http.Server
	if cfg.MCPPort > 0 {
		mcpServer := consolemcp.NewServer(consolemcp.Deps{
			Platform: platform,
			Sessions: sessionManager,
			Agents:   agents,
		})
		handler := auth.HTTPMiddleware(authnProvider)(mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
			return mcpServer
		}, &mcp.StreamableHTTPOptions{}))

		addr := ":" + strconv.Itoa(int(cfg.MCPPort))
		mcpHTTPServer = &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("MCP HTTP server starting", "addr", addr)
			if err := mcpHTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("MCP server: %w", err)
			}
		}()
	}

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
	case runErr = <-errCh:
		logger.Error("server failed", "error", runErr)
	}

	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()

	if err := server.Shutdown(sctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if mcpHTTPServer != nil {
		if err := mcpHTTPServer.Shutdown(sctx); err != nil {
			logger.Error("MCP server forced to shutdown", "error", err)
		}
	}

	logger.Info("server exiting")
	return runErr
}

// checkPlatform logs whether the platform answers. The console still starts
// when it does not; /v0/health reports the outage.
func checkPlatform(ctx context.Context, platform service.PlatformService, url string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := platform.Ping(ctx); err != nil {
		logger.Warn("platform unreachable", "url", url, "error", err)
		return
	}
	logger.Info("platform reachable", "url", url)
}
