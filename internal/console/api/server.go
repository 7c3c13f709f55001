// Package api assembles the console's HTTP server.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/cors"

	"github.com/agentregistry-dev/agentconsole/internal/console/api/router"
)

// TrailingSlashMiddleware redirects requests with trailing slashes to their canonical form
func TrailingSlashMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		isAPIRoute := strings.HasPrefix(r.URL.Path, "/v0/") ||
			r.URL.Path == "/metrics" ||
			strings.HasPrefix(r.URL.Path, "/docs")

		if isAPIRoute && r.URL.Path != "/" && strings.HasSuffix(r.URL.Path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(r.URL.Path, "/")

			// 308 preserves the request method
			http.Redirect(w, r, newURL.String(), http.StatusPermanentRedirect)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Server represents the HTTP server
type Server struct {
	addr    string
	humaAPI huma.API
	mux     *http.ServeMux
	handler http.Handler
	server  *http.Server
	logger  *slog.Logger
}

// HumaAPI returns the Huma API instance, allowing registration of new routes
func (s *Server) HumaAPI() huma.API {
	return s.humaAPI
}

// Mux returns the HTTP ServeMux, allowing registration of custom HTTP handlers
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

// Handler is the full middleware stack, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// NewServer creates a new HTTP server
func NewServer(deps router.Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
		deps.Logger = logger
	}
	mux := http.NewServeMux()
	api := router.NewHumaAPI(mux, deps)

	origins := []string{"*"}
	addr := ":8090"
	if deps.Config != nil {
		if len(deps.Config.CORSAllowedOrigins) > 0 {
			origins = deps.Config.CORSAllowedOrigins
		}
		addr = deps.Config.ServerAddress
	}
	wildcard := len(origins) == 1 && origins[0] == "*"

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Type", "Content-Length"},
		AllowCredentials: !wildcard, // must be false when AllowedOrigins is "*"
		MaxAge:           86400,
	})

	// Order: TrailingSlash -> CORS -> Mux
	handler := TrailingSlashMiddleware(corsHandler.Handler(mux))

	return &Server{
		addr:    addr,
		humaAPI: api,
		mux:     mux,
		handler: handler,
		logger:  logger,
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start begins listening for incoming HTTP requests
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.addr, "docs", "http://localhost"+s.addr+"/docs")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
