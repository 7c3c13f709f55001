package v0

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/agentregistry-dev/agentconsole/internal/console/database"
	"github.com/agentregistry-dev/agentconsole/pkg/console/auth"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

// ListAgentsInput represents the input for listing agents
type ListAgentsInput struct {
	Cursor  string `query:"cursor" json:"cursor,omitempty" doc:"Pagination cursor" required:"false" example:"30"`
	Limit   int    `query:"limit" json:"limit,omitempty" doc:"Number of items per page" default:"30" minimum:"1" maximum:"100" example:"50"`
	Search  string `query:"search" json:"search,omitempty" doc:"Search agents by name or display name (substring match)" required:"false" example:"weather"`
	Enabled string `query:"enabled" json:"enabled,omitempty" doc:"Filter by enabled state" required:"false" enum:"true,false"`
}

// AgentDetailInput represents the input for getting agent details
type AgentDetailInput struct {
	ID string `path:"id" json:"id" doc:"Agent id"`
}

type CreateAgentInput struct {
	Body models.AgentDraft
}

type UpdateAgentInput struct {
	ID   string `path:"id" json:"id" doc:"Agent id"`
	Body models.AgentDraft
}

// RegisterAgentsEndpoints registers the console's agent draft endpoints.
func RegisterAgentsEndpoints(api huma.API, pathPrefix string, repo database.AgentRepository, authz *auth.Authorizer) {
	suffix := operationSuffix(pathPrefix)
	tags := []string{"agents"}

	huma.Register(api, huma.Operation{
		OperationID: "list-agents" + suffix,
		Method:      http.MethodGet,
		Path:        pathPrefix + "/agents",
		Summary:     "List agents",
		Description: "Get a paginated list of the agents managed by the console",
		Tags:        tags,
	}, func(ctx context.Context, input *ListAgentsInput) (*Response[models.AgentListResponse], error) {
		if err := authError(authz.Check(ctx, auth.PermissionActionRead, auth.Resource{Name: "*", Type: auth.ResourceTypeAgent})); err != nil {
			return nil, err
		}
		filter := &database.AgentFilter{}
		if input.Search != "" {
			filter.SubstringName = &input.Search
		}
		if input.Enabled != "" {
			enabled := input.Enabled == "true"
			filter.Enabled = &enabled
		}

		agents, nextCursor, err := repo.ListAgents(ctx, filter, input.Cursor, input.Limit)
		if err != nil {
			if errors.Is(err, database.ErrInvalidInput) {
				return nil, huma.Error400BadRequest(err.Error(), err)
			}
			return nil, huma.Error500InternalServerError("Failed to get agents list", err)
		}

		agentValues := make([]models.AgentRecord, len(agents))
		for i, a := range agents {
			agentValues[i] = *a
		}
		return &Response[models.AgentListResponse]{
			Body: models.AgentListResponse{
				Agents: agentValues,
				Metadata: models.AgentMetadata{
					NextCursor: nextCursor,
					Count:      len(agents),
				},
			},
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-agent" + suffix,
		Method:      http.MethodGet,
		Path:        pathPrefix + "/agents/{id}",
		Summary:     "Get agent",
		Tags:        tags,
	}, func(ctx context.Context, input *AgentDetailInput) (*Response[models.AgentRecord], error) {
		if err := authError(authz.Check(ctx, auth.PermissionActionRead, auth.Resource{Name: input.ID, Type: auth.ResourceTypeAgent})); err != nil {
			return nil, err
		}
		agent, err := repo.GetAgent(ctx, input.ID)
		if err != nil {
			return nil, agentStoreError(err)
		}
		return &Response[models.AgentRecord]{Body: *agent}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-agent" + suffix,
		Method:        http.MethodPost,
		Path:          pathPrefix + "/agents",
		Summary:       "Create agent",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateAgentInput) (*Response[models.AgentRecord], error) {
		if err := authError(authz.Check(ctx, auth.PermissionActionEdit, auth.Resource{Name: "*", Type: auth.ResourceTypeAgent})); err != nil {
			return nil, err
		}
		rec := &models.AgentRecord{}
		rec.Apply(input.Body)
		created, err := repo.CreateAgent(ctx, rec)
		if err != nil {
			return nil, agentStoreError(err)
		}
		return &Response[models.AgentRecord]{Body: *created}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-agent" + suffix,
		Method:      http.MethodPut,
		Path:        pathPrefix + "/agents/{id}",
		Summary:     "Update agent",
		Tags:        tags,
	}, func(ctx context.Context, input *UpdateAgentInput) (*Response[models.AgentRecord], error) {
		if err := authError(authz.Check(ctx, auth.PermissionActionEdit, auth.Resource{Name: input.ID, Type: auth.ResourceTypeAgent})); err != nil {
			return nil, err
		}
		existing, err := repo.GetAgent(ctx, input.ID)
		if err != nil {
			return nil, agentStoreError(err)
		}
		existing.Apply(input.Body)
		updated, err := repo.UpdateAgent(ctx, existing)
		if err != nil {
			return nil, agentStoreError(err)
		}
		return &Response[models.AgentRecord]{Body: *updated}, nil
	})
}

func agentStoreError(err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return huma.Error404NotFound("Agent not found")
	case errors.Is(err, database.ErrAlreadyExists):
		return huma.Error409Conflict("An agent with this name already exists")
	case errors.Is(err, database.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	default:
		return huma.Error500InternalServerError("Failed to store agent", err)
	}
}
