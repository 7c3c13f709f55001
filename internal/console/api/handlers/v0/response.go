package v0

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/agentregistry-dev/agentconsole/pkg/console/auth"
)

// Response is a generic wrapper for Huma responses
// Usage: Response[HealthBody] instead of HealthOutput
type Response[T any] struct {
	Body T
}

// EmptyResponse represents a simple success response with a message
type EmptyResponse struct {
	Message string `json:"message" doc:"Success message" example:"Operation completed successfully"`
}

// authError maps authorization failures onto HTTP errors, or returns nil.
func authError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrUnauthenticated):
		return huma.Error401Unauthorized("Authentication required")
	case errors.Is(err, auth.ErrForbidden):
		return huma.Error403Forbidden("Forbidden")
	default:
		return huma.Error500InternalServerError("Failed to authorize request", err)
	}
}
