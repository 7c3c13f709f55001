package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, ":8090", cfg.ServerAddress)
	assert.Equal(t, "memory", cfg.DatabaseURL)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.AuthEnabled())
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse(map[string]string{
		"AGENT_CONSOLE_SERVER_ADDRESS":       ":9000",
		"AGENT_CONSOLE_DATABASE_URL":         "sqlite:///tmp/console.db",
		"AGENT_CONSOLE_SESSION_TTL":          "15m",
		"AGENT_CONSOLE_MCP_PORT":             "8091",
		"AGENT_CONSOLE_JWT_PRIVATE_KEY":      "abcd",
		"AGENT_CONSOLE_CORS_ALLOWED_ORIGINS": "http://a,http://b",
		"SERVER_ADDRESS":                     ":1",
	})
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ServerAddress)
	assert.Equal(t, "sqlite:///tmp/console.db", cfg.DatabaseURL)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, uint16(8091), cfg.MCPPort)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.CORSAllowedOrigins)
}

func TestParseRejectsBadValues(t *testing.T) {
	_, err := Parse(map[string]string{"AGENT_CONSOLE_SESSION_TTL": "soon"})
	assert.Error(t, err)

	_, err = Parse(map[string]string{"AGENT_CONSOLE_SESSION_TTL": "0s"})
	assert.Error(t, err)
}
