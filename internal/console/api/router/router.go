// Package router contains API routing logic
package router

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	v0 "github.com/agentregistry-dev/agentconsole/internal/console/api/handlers/v0"
	v0auth "github.com/agentregistry-dev/agentconsole/internal/console/api/handlers/v0/auth"
	"github.com/agentregistry-dev/agentconsole/internal/console/config"
	"github.com/agentregistry-dev/agentconsole/internal/console/database"
	"github.com/agentregistry-dev/agentconsole/internal/console/service"
	"github.com/agentregistry-dev/agentconsole/internal/console/sessions"
	"github.com/agentregistry-dev/agentconsole/internal/console/telemetry"
	"github.com/agentregistry-dev/agentconsole/internal/console/toolconfig"
	"github.com/agentregistry-dev/agentconsole/pkg/console/auth"
)

// Deps are the services the routes are built on.
type Deps struct {
	Config      *config.Config
	Platform    service.PlatformService
	Agents      database.AgentRepository
	Sessions    *sessions.Manager
	Editors     *toolconfig.Editors
	Metrics     *telemetry.Metrics
	VersionInfo *v0.VersionBody
	JWTManager  *auth.JWTManager
	Authn       auth.AuthnProvider
	Authz       *auth.Authorizer
	Logger      *slog.Logger
}

// Middleware configuration options
type middlewareConfig struct {
	skipPaths map[string]bool
}

type MiddlewareOption func(*middlewareConfig)

// getRoutePath extracts the route pattern from the context
func getRoutePath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil && op.Path != "" {
		return op.Path
	}
	// Fallback to URL path (less ideal for metrics as it includes path parameters)
	return ctx.URL().Path
}

func MetricTelemetryMiddleware(metrics *telemetry.Metrics, options ...MiddlewareOption) func(huma.Context, func(huma.Context)) {
	config := &middlewareConfig{
		skipPaths: make(map[string]bool),
	}

	for _, opt := range options {
		opt(config)
	}

	return func(ctx huma.Context, next func(huma.Context)) {
		path := ctx.URL().Path

		// extract the last part of the path to match against skipPaths
		pathParts := strings.Split(path, "/")
		pathToMatch := "/" + pathParts[len(pathParts)-1]
		if metrics == nil || config.skipPaths[pathToMatch] || config.skipPaths[path] {
			next(ctx)
			return
		}

		start := time.Now()
		method := ctx.Method()
		routePath := getRoutePath(ctx)

		next(ctx)

		duration := time.Since(start).Seconds()
		statusCode := ctx.Status()

		attrs := []attribute.KeyValue{
			attribute.String("method", method),
			attribute.String("path", routePath),
			attribute.Int("status_code", statusCode),
		}

		metrics.Requests.Add(ctx.Context(), 1, metric.WithAttributes(attrs...))
		if statusCode >= 400 {
			metrics.ErrorCount.Add(ctx.Context(), 1, metric.WithAttributes(attrs...))
		}
		metrics.RequestDuration.Record(ctx.Context(), duration, metric.WithAttributes(attrs...))
	}
}

// WithSkipPaths allows skipping instrumentation for specific paths
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		for _, path := range paths {
			c.skipPaths[path] = true
		}
	}
}

// handle404 returns a helpful 404 error with suggestions for common mistakes
func handle404(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusNotFound)

	detail := "Endpoint not found. See /docs for the API documentation."
	if path := r.URL.Path; !strings.HasPrefix(path, "/v0/") {
		detail = fmt.Sprintf("Endpoint not found. Did you mean '%s'? See /docs for the API documentation.", "/v0"+path)
	}

	jsonData, err := json.Marshal(map[string]any{
		"title":  "Not Found",
		"status": http.StatusNotFound,
		"detail": detail,
	})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(jsonData)
}

// NewHumaAPI creates a new Huma API with all routes registered
func NewHumaAPI(mux *http.ServeMux, deps Deps) huma.API {
	humaConfig := huma.DefaultConfig("Agent Console", "1.0.0")
	humaConfig.Info.Description = "Backend for the agent console: agent import wizard, agent drafts and tool configuration."
	// Disable $schema property in responses: https://github.com/danielgtaylor/huma/issues/230
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}

	api := humago.New(mux, humaConfig)

	if deps.Authn != nil {
		api.UseMiddleware(auth.AuthnMiddleware(deps.Authn))
	}

	api.OpenAPI().Tags = []*huma.Tag{
		{Name: "imports", Description: "Multi-step import of exported agent definitions"},
		{Name: "agents", Description: "Agents managed by the console"},
		{Name: "tools", Description: "Tool catalog and per-agent tool parameters"},
		{Name: "models", Description: "Language models offered by the platform"},
		{Name: "mcp", Description: "MCP servers registered on the platform"},
		{Name: "auth", Description: "Token operations"},
		{Name: "health", Description: "Health check endpoint for monitoring service availability"},
		{Name: "ping", Description: "Simple ping endpoint for testing connectivity"},
		{Name: "version", Description: "Version information endpoint for retrieving build and version details"},
	}

	api.UseMiddleware(MetricTelemetryMiddleware(deps.Metrics,
		WithSkipPaths("/health", "/metrics", "/ping", "/docs"),
	))

	RegisterRoutes(api, deps)

	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics.PrometheusHandler())
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/docs", http.StatusTemporaryRedirect)
			return
		}
		handle404(w, r)
	})
	return api
}

// RegisterRoutes registers every API route under /v0.
func RegisterRoutes(api huma.API, deps Deps) {
	const prefix = "/v0"

	versionInfo := deps.VersionInfo
	if versionInfo == nil {
		versionInfo = &v0.VersionBody{Version: "dev"}
	}
	editors := deps.Editors
	if editors == nil {
		editors = toolconfig.NewEditors()
	}

	v0.RegisterHealthEndpoint(api, prefix, deps.Platform)
	v0.RegisterPingEndpoint(api, prefix)
	v0.RegisterVersionEndpoint(api, prefix, versionInfo)
	v0.RegisterCatalogEndpoints(api, prefix, deps.Platform, deps.Authz)
	v0.RegisterImportsEndpoints(api, prefix, v0.ImportDeps{
		Sessions: deps.Sessions,
		Platform: deps.Platform,
		Agents:   deps.Agents,
		Metrics:  deps.Metrics,
		Authz:    deps.Authz,
		Logger:   deps.Logger,
	})
	v0.RegisterAgentsEndpoints(api, prefix, deps.Agents, deps.Authz)
	v0.RegisterToolEndpoints(api, prefix, deps.Agents, deps.Platform, editors, deps.Authz)
	if deps.Config != nil {
		v0auth.RegisterAuthEndpoints(api, prefix, deps.Config, deps.JWTManager)
	}
}
