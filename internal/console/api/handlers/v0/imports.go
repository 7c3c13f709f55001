package v0

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/agentregistry-dev/agentconsole/internal/agentimport"
	"github.com/agentregistry-dev/agentconsole/internal/console/database"
	"github.com/agentregistry-dev/agentconsole/internal/console/service"
	"github.com/agentregistry-dev/agentconsole/internal/console/sessions"
	"github.com/agentregistry-dev/agentconsole/internal/console/telemetry"
	"github.com/agentregistry-dev/agentconsole/pkg/console/auth"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

// ImportDeps are the collaborators of the import wizard endpoints.
type ImportDeps struct {
	Sessions *sessions.Manager
	Platform service.PlatformService
	// Agents receives a record for every imported agent; optional
	Agents  database.AgentRepository
	Metrics *telemetry.Metrics
	Authz   *auth.Authorizer
	Logger  *slog.Logger
}

// CreateImportInput carries the exported agent document, JSON or YAML.
type CreateImportInput struct {
	RawBody []byte `contentType:"application/json"`
}

type ImportIDInput struct {
	ID string `path:"id" doc:"Import session id" example:"0b5c3f6e-6d8e-4c8b-9a61-1f2f0f3c7c11"`
}

type ModelSelection struct {
	ModelID   *int   `json:"modelId,omitempty" doc:"Model id from the model list"`
	ModelName string `json:"modelName,omitempty" doc:"Model name; selects the model when modelId is absent and must match it otherwise"`
}

type SetModelInput struct {
	ID   string `path:"id" doc:"Import session id"`
	Body struct {
		Mode         string                    `json:"mode,omitempty" enum:"unified,individual" doc:"Assignment mode; switching clears every selection"`
		UnifiedModel *ModelSelection           `json:"unifiedModel,omitempty" doc:"Model for every agent in unified mode"`
		AgentModels  map[string]ModelSelection `json:"agentModels,omitempty" doc:"Model per agent key in individual mode"`
	}
}

type SetFieldsInput struct {
	ID   string `path:"id" doc:"Import session id"`
	Body struct {
		Values map[string]string `json:"values" doc:"Field values keyed by resolution key (agentKey::path)"`
	}
}

type McpIndexInput struct {
	ID    string `path:"id" doc:"Import session id"`
	Index int    `path:"index" doc:"Position in mcp_info" minimum:"0"`
}

type EditMcpInput struct {
	ID    string `path:"id" doc:"Import session id"`
	Index int    `path:"index" doc:"Position in mcp_info" minimum:"0"`
	Body  struct {
		URL string `json:"url" doc:"URL to install the MCP server from"`
	}
}

type SubmitImportInput struct {
	ID   string `path:"id" doc:"Import session id"`
	Body struct {
		ForceImport bool `json:"forceImport,omitempty" doc:"Overwrite agents that already exist on the platform"`
	}
}

// ImportSessionBody is an import session as seen by the console.
type ImportSessionBody struct {
	ID string `json:"id"`
	agentimport.SessionView
	Blocking *StepBlocker `json:"blocking,omitempty" doc:"Why the current step cannot be left yet"`
}

// StepBlocker explains what keeps the current step from completing.
type StepBlocker struct {
	Step    agentimport.Step `json:"step"`
	Message string           `json:"message"`
	Missing []string         `json:"missing,omitempty"`
}

type ImportDocumentBody struct {
	ID       string `json:"id"`
	Document any    `json:"document" doc:"The agent import document as it is (or would be) submitted"`
}

type SubmitImportBody struct {
	ID       string                  `json:"id"`
	Session  agentimport.SessionView `json:"session"`
	Document any                     `json:"document"`
	Saved    []string                `json:"savedAgents,omitempty" doc:"Ids of the console agent records written for this import"`
}

type importsHandler struct {
	ImportDeps
}

// RegisterImportsEndpoints registers the import wizard endpoints.
func RegisterImportsEndpoints(api huma.API, pathPrefix string, deps ImportDeps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &importsHandler{ImportDeps: deps}
	suffix := operationSuffix(pathPrefix)
	tags := []string{"imports"}
	base := pathPrefix + "/imports"

	huma.Register(api, huma.Operation{
		OperationID:   "create-import" + suffix,
		Method:        http.MethodPost,
		Path:          base,
		Summary:       "Start an agent import",
		Description:   "Parse an exported agent document and open an import wizard session for it.",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
	}, h.create)

	huma.Register(api, huma.Operation{
		OperationID: "get-import" + suffix,
		Method:      http.MethodGet,
		Path:        base + "/{id}",
		Summary:     "Get an import session",
		Tags:        tags,
	}, h.get)

	huma.Register(api, huma.Operation{
		OperationID: "set-import-model" + suffix,
		Method:      http.MethodPut,
		Path:        base + "/{id}/model",
		Summary:     "Assign models",
		Description: "Switch the assignment mode and select models for the agents in the document.",
		Tags:        tags,
	}, h.setModel)

	huma.Register(api, huma.Operation{
		OperationID: "set-import-fields" + suffix,
		Method:      http.MethodPut,
		Path:        base + "/{id}/fields",
		Summary:     "Fill in placeholder fields",
		Tags:        tags,
	}, h.setFields)

	huma.Register(api, huma.Operation{
		OperationID: "edit-import-mcp" + suffix,
		Method:      http.MethodPut,
		Path:        base + "/{id}/mcp/{index}",
		Summary:     "Set an MCP server URL",
		Tags:        tags,
	}, h.editMcp)

	huma.Register(api, huma.Operation{
		OperationID: "install-import-mcp" + suffix,
		Method:      http.MethodPost,
		Path:        base + "/{id}/mcp/{index}/install",
		Summary:     "Install an MCP server",
		Description: "Register the referenced MCP server on the platform.",
		Tags:        tags,
	}, h.installMcp)

	huma.Register(api, huma.Operation{
		OperationID: "next-import-step" + suffix,
		Method:      http.MethodPost,
		Path:        base + "/{id}/next",
		Summary:     "Advance to the next step",
		Tags:        tags,
	}, h.next)

	huma.Register(api, huma.Operation{
		OperationID: "previous-import-step" + suffix,
		Method:      http.MethodPost,
		Path:        base + "/{id}/back",
		Summary:     "Return to the previous step",
		Tags:        tags,
	}, h.back)

	huma.Register(api, huma.Operation{
		OperationID: "preview-import" + suffix,
		Method:      http.MethodGet,
		Path:        base + "/{id}/preview",
		Summary:     "Preview the assembled document",
		Tags:        tags,
	}, h.preview)

	huma.Register(api, huma.Operation{
		OperationID: "submit-import" + suffix,
		Method:      http.MethodPost,
		Path:        base + "/{id}/submit",
		Summary:     "Submit the import",
		Description: "Validate every step, assemble the document and send it to the platform.",
		Tags:        tags,
	}, h.submit)

	huma.Register(api, huma.Operation{
		OperationID: "delete-import" + suffix,
		Method:      http.MethodDelete,
		Path:        base + "/{id}",
		Summary:     "Discard an import session",
		Tags:        tags,
	}, h.delete)
}

func (h *importsHandler) check(ctx context.Context, verb auth.PermissionAction, t auth.ResourceType, name string) error {
	return authError(h.Authz.Check(ctx, verb, auth.Resource{Name: name, Type: t}))
}

func (h *importsHandler) session(ctx context.Context, id string, verb auth.PermissionAction) (*agentimport.Session, error) {
	if err := h.check(ctx, verb, auth.ResourceTypeImport, id); err != nil {
		return nil, err
	}
	s, err := h.Sessions.Get(sessions.SessionID(id))
	if err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			return nil, huma.Error404NotFound("Import session not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load import session", err)
	}
	return s, nil
}

func sessionResponse(id string, s *agentimport.Session) *Response[ImportSessionBody] {
	view := s.View()
	body := ImportSessionBody{ID: id, SessionView: view}
	if !view.Submitted {
		var verr *agentimport.ValidationError
		if err := s.Validate(view.Step); errors.As(err, &verr) {
			body.Blocking = &StepBlocker{Step: verr.Step, Message: verr.Message, Missing: verr.Missing}
		}
	}
	return &Response[ImportSessionBody]{Body: body}
}

func (h *importsHandler) create(ctx context.Context, input *CreateImportInput) (*Response[ImportSessionBody], error) {
	if err := h.check(ctx, auth.PermissionActionImport, auth.ResourceTypeImport, "*"); err != nil {
		return nil, err
	}
	doc, err := models.ParseAgentImportDocument(input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid agent import document", err)
	}
	registered, err := h.Platform.ListMcpServers(ctx)
	if err != nil {
		return nil, huma.Error502BadGateway("Failed to load registered MCP servers", err)
	}
	s, err := agentimport.NewSession(doc, registered, h.Platform, h.Logger)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid agent import document", err)
	}
	entry := h.Sessions.Create(s)
	h.Logger.Info("import session created", "session", entry.ID, "agent_id", string(doc.AgentID),
		"fields", len(s.Fields()), "mcp_servers", len(s.McpStates()))
	return sessionResponse(string(entry.ID), s), nil
}

func (h *importsHandler) get(ctx context.Context, input *ImportIDInput) (*Response[ImportSessionBody], error) {
	s, err := h.session(ctx, input.ID, auth.PermissionActionRead)
	if err != nil {
		return nil, err
	}
	return sessionResponse(input.ID, s), nil
}

func (h *importsHandler) setModel(ctx context.Context, input *SetModelInput) (*Response[ImportSessionBody], error) {
	s, err := h.session(ctx, input.ID, auth.PermissionActionImport)
	if err != nil {
		return nil, err
	}
	if input.Body.Mode != "" {
		mode, err := agentimport.ParseMode(input.Body.Mode)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		if err := s.SetMode(mode); err != nil {
			return nil, wizardError(err)
		}
	}

	var options []models.ModelOption
	lookup := func(sel ModelSelection) (agentimport.ModelSlot, error) {
		name := strings.TrimSpace(sel.ModelName)
		if sel.ModelID == nil && name == "" {
			return agentimport.ModelSlot{}, nil
		}
		if options == nil {
			all, err := h.Platform.ListModels(ctx)
			if err != nil {
				return agentimport.ModelSlot{}, huma.Error502BadGateway("Failed to load models", err)
			}
			options = agentimport.SelectableModels(all)
		}
		for _, opt := range options {
			slot := agentimport.SlotFor(opt)
			if sel.ModelID != nil && opt.ID != *sel.ModelID {
				continue
			}
			if name != "" && !strings.EqualFold(name, slot.ModelName) && !strings.EqualFold(name, opt.ModelName) {
				continue
			}
			return slot, nil
		}
		return agentimport.ModelSlot{}, huma.Error400BadRequest("Model is not available")
	}

	if sel := input.Body.UnifiedModel; sel != nil {
		slot, err := lookup(*sel)
		if err != nil {
			return nil, err
		}
		if err := s.SetUnifiedModel(slot); err != nil {
			return nil, wizardError(err)
		}
	}
	keys := make([]string, 0, len(input.Body.AgentModels))
	for k := range input.Body.AgentModels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		slot, err := lookup(input.Body.AgentModels[key])
		if err != nil {
			return nil, err
		}
		if err := s.SetAgentModel(key, slot); err != nil {
			return nil, wizardError(err)
		}
	}
	return sessionResponse(input.ID, s), nil
}

func (h *importsHandler) setFields(ctx context.Context, input *SetFieldsInput) (*Response[ImportSessionBody], error) {
	s, err := h.session(ctx, input.ID, auth.PermissionActionImport)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(input.Body.Values))
	for k := range input.Body.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := s.SetField(key, input.Body.Values[key]); err != nil {
			return nil, wizardError(err)
		}
	}
	return sessionResponse(input.ID, s), nil
}

func (h *importsHandler) editMcp(ctx context.Context, input *EditMcpInput) (*Response[ImportSessionBody], error) {
	s, err := h.session(ctx, input.ID, auth.PermissionActionImport)
	if err != nil {
		return nil, err
	}
	if err := s.EditMcpURL(input.Index, input.Body.URL); err != nil {
		return nil, wizardError(err)
	}
	return sessionResponse(input.ID, s), nil
}

func (h *importsHandler) installMcp(ctx context.Context, input *McpIndexInput) (*Response[ImportSessionBody], error) {
	s, err := h.session(ctx, input.ID, auth.PermissionActionImport)
	if err != nil {
		return nil, err
	}
	states := s.McpStates()
	if input.Index >= len(states) {
		return nil, huma.Error404NotFound("MCP server reference not found")
	}
	if err := h.check(ctx, auth.PermissionActionInstall, auth.ResourceTypeMcp, states[input.Index].Name); err != nil {
		return nil, err
	}

	err = s.InstallMcp(ctx, input.Index)
	switch {
	case err == nil:
		h.Metrics.RecordMcpInstall(ctx, nil)
	case errors.Is(err, agentimport.ErrURLRequired),
		errors.Is(err, agentimport.ErrInstallInProgress),
		errors.Is(err, agentimport.ErrNoSuchServer),
		errors.Is(err, agentimport.ErrAlreadySubmitted):
		return nil, wizardError(err)
	default:
		h.Metrics.RecordMcpInstall(ctx, err)
		msg := "Failed to install MCP server"
		if st := s.McpStates(); st[input.Index].LastError != "" {
			msg = st[input.Index].LastError
		}
		return nil, huma.Error502BadGateway(msg, err)
	}
	return sessionResponse(input.ID, s), nil
}

func (h *importsHandler) next(ctx context.Context, input *ImportIDInput) (*Response[ImportSessionBody], error) {
	s, err := h.session(ctx, input.ID, auth.PermissionActionImport)
	if err != nil {
		return nil, err
	}
	if err := s.Next(); err != nil {
		return nil, wizardError(err)
	}
	return sessionResponse(input.ID, s), nil
}

func (h *importsHandler) back(ctx context.Context, input *ImportIDInput) (*Response[ImportSessionBody], error) {
	s, err := h.session(ctx, input.ID, auth.PermissionActionImport)
	if err != nil {
		return nil, err
	}
	if err := s.Back(); err != nil {
		return nil, wizardError(err)
	}
	return sessionResponse(input.ID, s), nil
}

func (h *importsHandler) preview(ctx context.Context, input *ImportIDInput) (*Response[ImportDocumentBody], error) {
	s, err := h.session(ctx, input.ID, auth.PermissionActionRead)
	if err != nil {
		return nil, err
	}
	return &Response[ImportDocumentBody]{Body: ImportDocumentBody{ID: input.ID, Document: s.Preview()}}, nil
}

func (h *importsHandler) submit(ctx context.Context, input *SubmitImportInput) (*Response[SubmitImportBody], error) {
	s, err := h.session(ctx, input.ID, auth.PermissionActionImport)
	if err != nil {
		return nil, err
	}
	doc, err := s.Submit(ctx, agentimport.SubmitOptions{ForceImport: input.Body.ForceImport})
	if err != nil {
		var verr *agentimport.ValidationError
		if errors.As(err, &verr) ||
			errors.Is(err, agentimport.ErrSubmitInProgress) ||
			errors.Is(err, agentimport.ErrAlreadySubmitted) {
			return nil, wizardError(err)
		}
		h.Metrics.RecordSubmission(ctx, err)
		return nil, huma.Error502BadGateway("Failed to import agent", err)
	}
	h.Metrics.RecordSubmission(ctx, nil)

	return &Response[SubmitImportBody]{Body: SubmitImportBody{
		ID:       input.ID,
		Session:  s.View(),
		Document: doc,
		Saved:    h.saveAgents(ctx, doc),
	}}, nil
}

// saveAgents records the imported agents in the console repository. Failures
// are logged; the import itself already succeeded.
func (h *importsHandler) saveAgents(ctx context.Context, doc *models.AgentImportDocument) []string {
	if h.Agents == nil {
		return nil
	}
	var saved []string
	for _, key := range doc.AgentInfo.Keys() {
		def := doc.AgentInfo.Get(key)
		rec, err := h.Agents.CreateAgent(ctx, &models.AgentRecord{
			Name:        def.Name,
			DisplayName: def.DisplayName,
			Description: def.Description,
			ModelID:     def.ModelID,
			ModelName:   def.ModelName,
			Enabled:     def.Enabled,
			Tools:       models.CloneTools(def.Tools),
			Definition:  def.Clone(),
		})
		if err != nil {
			h.Logger.Warn("failed to record imported agent", "agent", key, "name", def.Name, "error", err)
			continue
		}
		saved = append(saved, rec.ID)
	}
	return saved
}

func (h *importsHandler) delete(ctx context.Context, input *ImportIDInput) (*Response[EmptyResponse], error) {
	if err := h.check(ctx, auth.PermissionActionImport, auth.ResourceTypeImport, input.ID); err != nil {
		return nil, err
	}
	if err := h.Sessions.Delete(sessions.SessionID(input.ID)); err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			return nil, huma.Error404NotFound("Import session not found")
		}
		return nil, huma.Error500InternalServerError("Failed to delete import session", err)
	}
	return &Response[EmptyResponse]{Body: EmptyResponse{Message: "Import session deleted"}}, nil
}

// wizardError maps wizard state errors onto HTTP errors.
func wizardError(err error) error {
	var verr *agentimport.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]error, 0, len(verr.Missing))
		for _, m := range verr.Missing {
			details = append(details, &huma.ErrorDetail{Message: "missing", Location: m})
		}
		return huma.Error422UnprocessableEntity(verr.Error(), details...)
	case errors.Is(err, agentimport.ErrNoSuchServer):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, agentimport.ErrAlreadySubmitted),
		errors.Is(err, agentimport.ErrSubmitInProgress),
		errors.Is(err, agentimport.ErrInstallInProgress),
		errors.Is(err, agentimport.ErrNoNextStep):
		return huma.Error409Conflict(err.Error())
	default:
		return huma.Error400BadRequest(err.Error())
	}
}
