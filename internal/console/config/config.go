package config

import (
	"fmt"
	"log/slog"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable read by NewConfig.
const EnvPrefix = "AGENT_CONSOLE_"

// Config holds the console API configuration
type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:":8090"`
	MCPPort       uint16 `env:"MCP_PORT" envDefault:"0"`
	// DatabaseURL selects the agent store: "memory", "sqlite://<path>" or a postgres URL
	DatabaseURL string `env:"DATABASE_URL" envDefault:"memory"`
	Version     string `env:"VERSION" envDefault:"dev"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Platform the console forwards to
	PlatformURL   string `env:"PLATFORM_URL" envDefault:"http://localhost:5010/api"`
	PlatformToken string `env:"PLATFORM_TOKEN" envDefault:""`

	// Import wizard sessions
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	// Auth
	JWTPrivateKey       string `env:"JWT_PRIVATE_KEY" envDefault:""`
	EnableAnonymousAuth bool   `env:"ENABLE_ANONYMOUS_AUTH" envDefault:"false"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// AuthEnabled reports whether bearer tokens are verified.
func (c *Config) AuthEnabled() bool {
	return c.JWTPrivateKey != ""
}

// NewConfig loads .env (if present) and parses the environment
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	return Parse(nil)
}

// Parse reads the configuration from environment, or from vars when it is non-nil.
func Parse(vars map[string]string) (*Config, error) {
	var cfg Config
	opts := env.Options{Prefix: EnvPrefix}
	if vars != nil {
		opts.Environment = vars
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be positive, got %s", cfg.SessionTTL)
	}
	return &cfg, nil
}
