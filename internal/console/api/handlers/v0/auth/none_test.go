package auth_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v0auth "github.com/agentregistry-dev/agentconsole/internal/console/api/handlers/v0/auth"
	"github.com/agentregistry-dev/agentconsole/internal/console/config"
	"github.com/agentregistry-dev/agentconsole/pkg/console/auth"
)

func testConfig(t *testing.T, anonymous bool) (*config.Config, *auth.JWTManager) {
	t.Helper()
	testSeed := make([]byte, ed25519.SeedSize)
	_, err := rand.Read(testSeed)
	require.NoError(t, err)
	cfg := &config.Config{
		JWTPrivateKey:       hex.EncodeToString(testSeed),
		EnableAnonymousAuth: anonymous,
	}
	m, err := auth.NewJWTManager(cfg)
	require.NoError(t, err)
	return cfg, m
}

func TestNoneHandler_GetAnonymousToken(t *testing.T) {
	_, m := testConfig(t, true)
	handler := v0auth.NewNoneHandler(m)
	ctx := context.Background()

	tokenResponse, err := handler.GetAnonymousToken(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, tokenResponse.Token)
	assert.Greater(t, tokenResponse.ExpiresAt, 0)

	claims, err := m.ValidateToken(ctx, tokenResponse.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.MethodNone, claims.AuthMethod)
	assert.Equal(t, "anonymous", claims.AuthMethodSubject)
	assert.ElementsMatch(t, auth.AnonymousPermissions(), claims.Permissions, "should have all permissions")
}

func TestRegisterAuthEndpoints(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		cfg, m := testConfig(t, enabled)
		mux := http.NewServeMux()
		api := humago.New(mux, huma.DefaultConfig("Test API", "1.0.0"))
		v0auth.RegisterAuthEndpoints(api, "/v0", cfg, m)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v0/auth/none", nil))
		if enabled {
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"token"`)
		} else {
			assert.Equal(t, http.StatusNotFound, w.Code)
		}
	}
}
