// Package auth registers the console's token endpoints.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/agentregistry-dev/agentconsole/internal/console/config"
	"github.com/agentregistry-dev/agentconsole/pkg/console/auth"
)

type Response[T any] struct {
	Body T
}

// NoneHandler issues anonymous tokens for local development.
type NoneHandler struct {
	jwtManager *auth.JWTManager
}

func NewNoneHandler(jwtManager *auth.JWTManager) *NoneHandler {
	return &NoneHandler{jwtManager: jwtManager}
}

// GetAnonymousToken returns a token granting every console permission.
func (h *NoneHandler) GetAnonymousToken(ctx context.Context) (*auth.TokenResponse, error) {
	claims := auth.JWTClaims{
		AuthMethod:        auth.MethodNone,
		AuthMethodSubject: "anonymous",
		Permissions:       auth.AnonymousPermissions(),
	}
	token, err := h.jwtManager.GenerateTokenResponse(ctx, claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate anonymous token: %w", err)
	}
	return token, nil
}

// RegisterAuthEndpoints registers the token endpoints enabled in cfg.
func RegisterAuthEndpoints(api huma.API, pathPrefix string, cfg *config.Config, jwtManager *auth.JWTManager) {
	if jwtManager == nil || !cfg.EnableAnonymousAuth {
		return
	}
	handler := NewNoneHandler(jwtManager)
	huma.Register(api, huma.Operation{
		OperationID: "get-anonymous-token" + strings.ReplaceAll(pathPrefix, "/", "-"),
		Method:      http.MethodPost,
		Path:        pathPrefix + "/auth/none",
		Summary:     "Get anonymous token",
		Description: "Issue a short-lived token with full console permissions. Only enabled for local setups.",
		Tags:        []string{"auth"},
	}, func(ctx context.Context, _ *struct{}) (*Response[auth.TokenResponse], error) {
		token, err := handler.GetAnonymousToken(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to generate token", err)
		}
		return &Response[auth.TokenResponse]{Body: *token}, nil
	})
}

