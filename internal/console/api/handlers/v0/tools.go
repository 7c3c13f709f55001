package v0

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/agentregistry-dev/agentconsole/internal/console/database"
	"github.com/agentregistry-dev/agentconsole/internal/console/service"
	"github.com/agentregistry-dev/agentconsole/internal/console/toolconfig"
	"github.com/agentregistry-dev/agentconsole/pkg/console/auth"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

type ToolEditInput struct {
	ID   string `path:"id" doc:"Agent id"`
	Tool string `path:"tool" doc:"Tool name"`
}

type SetToolParamsInput struct {
	ID   string `path:"id" doc:"Agent id"`
	Tool string `path:"tool" doc:"Tool name"`
	Body struct {
		Params map[string]any `json:"params" doc:"Parameter values to set"`
	}
}

type ToolEditBody struct {
	AgentID string `json:"agentId"`
	toolconfig.Snapshot
}

type SavedToolBody struct {
	Agent   models.AgentRecord `json:"agent"`
	Binding models.ToolBinding `json:"binding"`
}

type toolsHandler struct {
	repo     database.AgentRepository
	platform service.PlatformService
	editors  *toolconfig.Editors
	authz    *auth.Authorizer
}

// RegisterToolEndpoints registers the tool parameter editor of an agent.
func RegisterToolEndpoints(api huma.API, pathPrefix string, repo database.AgentRepository, platform service.PlatformService, editors *toolconfig.Editors, authz *auth.Authorizer) {
	h := &toolsHandler{repo: repo, platform: platform, editors: editors, authz: authz}
	suffix := operationSuffix(pathPrefix)
	tags := []string{"tools"}
	base := pathPrefix + "/agents/{id}/tools/{tool}"

	huma.Register(api, huma.Operation{
		OperationID: "open-tool-editor" + suffix,
		Method:      http.MethodPost,
		Path:        base + "/edit",
		Summary:     "Start editing a tool",
		Description: "Load the tool from the catalog and merge its defaults with the values saved on the agent.",
		Tags:        tags,
	}, h.open)

	huma.Register(api, huma.Operation{
		OperationID: "get-tool-editor" + suffix,
		Method:      http.MethodGet,
		Path:        base + "/edit",
		Summary:     "Get the tool editor state",
		Tags:        tags,
	}, h.get)

	huma.Register(api, huma.Operation{
		OperationID: "set-tool-params" + suffix,
		Method:      http.MethodPut,
		Path:        base + "/params",
		Summary:     "Set tool parameters",
		Tags:        tags,
	}, h.setParams)

	huma.Register(api, huma.Operation{
		OperationID: "save-tool" + suffix,
		Method:      http.MethodPost,
		Path:        base + "/save",
		Summary:     "Save tool parameters onto the agent",
		Tags:        tags,
	}, h.save)

	huma.Register(api, huma.Operation{
		OperationID: "cancel-tool-edit" + suffix,
		Method:      http.MethodPost,
		Path:        base + "/cancel",
		Summary:     "Discard pending tool edits",
		Tags:        tags,
	}, h.cancel)
}

func (h *toolsHandler) check(ctx context.Context, verb auth.PermissionAction, agentID string) error {
	return authError(h.authz.Check(ctx, verb, auth.Resource{Name: agentID, Type: auth.ResourceTypeAgent}))
}

func editBody(agentID string, ed *toolconfig.Editor) *Response[ToolEditBody] {
	return &Response[ToolEditBody]{Body: ToolEditBody{AgentID: agentID, Snapshot: ed.Snapshot()}}
}

func (h *toolsHandler) open(ctx context.Context, input *ToolEditInput) (*Response[ToolEditBody], error) {
	if err := h.check(ctx, auth.PermissionActionEdit, input.ID); err != nil {
		return nil, err
	}
	agent, err := h.repo.GetAgent(ctx, input.ID)
	if err != nil {
		return nil, agentStoreError(err)
	}
	var saved map[string]any
	if i := toolIndex(agent.Tools, input.Tool); i >= 0 {
		saved = agent.Tools[i].Params
	}
	ed := h.editors.For(input.ID, input.Tool)
	if err := ed.Open(ctx, h.platform, input.Tool, saved); err != nil {
		return nil, toolEditorError(err)
	}
	return editBody(input.ID, ed), nil
}

func (h *toolsHandler) get(ctx context.Context, input *ToolEditInput) (*Response[ToolEditBody], error) {
	if err := h.check(ctx, auth.PermissionActionRead, input.ID); err != nil {
		return nil, err
	}
	resp := editBody(input.ID, h.editors.For(input.ID, input.Tool))
	h.editors.Release(input.ID, input.Tool)
	return resp, nil
}

func (h *toolsHandler) setParams(ctx context.Context, input *SetToolParamsInput) (*Response[ToolEditBody], error) {
	if err := h.check(ctx, auth.PermissionActionEdit, input.ID); err != nil {
		return nil, err
	}
	ed := h.editors.For(input.ID, input.Tool)
	for name, value := range input.Body.Params {
		if err := ed.Set(name, value); err != nil {
			return nil, toolEditorError(err)
		}
	}
	return editBody(input.ID, ed), nil
}

func (h *toolsHandler) save(ctx context.Context, input *ToolEditInput) (*Response[SavedToolBody], error) {
	if err := h.check(ctx, auth.PermissionActionEdit, input.ID); err != nil {
		return nil, err
	}
	agent, err := h.repo.GetAgent(ctx, input.ID)
	if err != nil {
		return nil, agentStoreError(err)
	}
	ed := h.editors.For(input.ID, input.Tool)
	binding, err := ed.Save()
	if err != nil {
		return nil, toolEditorError(err)
	}
	if i := toolIndex(agent.Tools, input.Tool); i >= 0 {
		agent.Tools[i] = binding
	} else {
		agent.Tools = append(agent.Tools, binding)
	}
	updated, err := h.repo.UpdateAgent(ctx, agent)
	if err != nil {
		return nil, agentStoreError(err)
	}
	h.editors.Release(input.ID, input.Tool)
	return &Response[SavedToolBody]{Body: SavedToolBody{Agent: *updated, Binding: binding}}, nil
}

func (h *toolsHandler) cancel(ctx context.Context, input *ToolEditInput) (*Response[ToolEditBody], error) {
	if err := h.check(ctx, auth.PermissionActionEdit, input.ID); err != nil {
		return nil, err
	}
	ed := h.editors.For(input.ID, input.Tool)
	ed.Cancel()
	resp := editBody(input.ID, ed)
	h.editors.Release(input.ID, input.Tool)
	return resp, nil
}

func toolIndex(tools []models.ToolBinding, name string) int {
	for i, t := range tools {
		if t.Name == name {
			return i
		}
	}
	return -1
}

func toolEditorError(err error) error {
	var missing *toolconfig.MissingParamsError
	switch {
	case errors.As(err, &missing):
		details := make([]error, 0, len(missing.Missing))
		for _, m := range missing.Missing {
			details = append(details, &huma.ErrorDetail{Message: "required", Location: "params." + m})
		}
		return huma.Error422UnprocessableEntity(err.Error(), details...)
	case errors.Is(err, toolconfig.ErrInvalidTransition):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, toolconfig.ErrToolNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, toolconfig.ErrUnknownParam):
		return huma.Error400BadRequest(err.Error())
	default:
		return huma.Error502BadGateway("Failed to load tool catalog", err)
	}
}
