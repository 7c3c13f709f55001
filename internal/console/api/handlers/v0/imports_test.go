package v0_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentregistry-dev/agentconsole/internal/client"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

func TestImportWizardFlow(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/v0/imports", importDocument)
	require.Equal(t, http.StatusCreated, code, body)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	base := "/v0/imports/" + id

	assert.Equal(t, "model", body["step"])
	assert.Equal(t, []any{"model", "fields", "mcp"}, body["steps"])
	fields, _ := body["fields"].([]any)
	require.Len(t, fields, 2)
	first := fields[0].(map[string]any)
	assert.Equal(t, "1::description", first["key"])
	assert.NotEmpty(t, first["hintSegments"])

	// the model step blocks until a model is chosen
	code, _ = env.do(t, http.MethodPost, base+"/next", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = env.do(t, http.MethodPut, base+"/model", map[string]any{"unifiedModel": map[string]any{"modelId": 4}})
	assert.Equal(t, http.StatusBadRequest, code, "unreachable models cannot be selected")

	code, body = env.do(t, http.MethodPut, base+"/model", map[string]any{"unifiedModel": map[string]any{"modelId": 3}})
	require.Equal(t, http.StatusOK, code, body)
	assignment := body["assignment"].(map[string]any)
	assert.Equal(t, "unified", assignment["mode"])
	assert.Equal(t, "GPT-4o", assignment["unified"].(map[string]any)["modelName"])

	code, body = env.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "fields", body["step"])

	code, _ = env.do(t, http.MethodPut, base+"/fields", map[string]any{"values": map[string]string{"1::nope": "x"}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodPut, base+"/fields", map[string]any{"values": map[string]string{
		"1::description":             "Weather forecasts",
		"1::tools[0].params.api_key": "secret",
	}})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["canProceed"])

	code, body = env.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "mcp", body["step"])

	code, _ = env.do(t, http.MethodPost, base+"/mcp/0/install", nil)
	assert.Equal(t, http.StatusBadRequest, code, "install without a URL")
	assert.Equal(t, 0, env.platform.AddMcpServerCallCount())

	code, _ = env.do(t, http.MethodPut, base+"/mcp/0", map[string]any{"url": "http://weather.local/mcp"})
	require.Equal(t, http.StatusOK, code)

	code, body = env.do(t, http.MethodPost, base+"/mcp/0/install", nil)
	require.Equal(t, http.StatusOK, code, body)
	servers := body["mcpServers"].([]any)
	assert.Equal(t, true, servers[0].(map[string]any)["isInstalled"])
	assert.Equal(t, 1, env.platform.AddMcpServerCallCount())

	code, body = env.do(t, http.MethodGet, base+"/preview", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotNil(t, body["document"])

	code, body = env.do(t, http.MethodPost, base+"/submit", map[string]any{"forceImport": true})
	require.Equal(t, http.StatusOK, code, body)
	assert.Len(t, body["savedAgents"], 1)
	assert.Equal(t, true, body["session"].(map[string]any)["submitted"])

	last, ok := env.platform.LastImport()
	require.True(t, ok)
	assert.True(t, last.Options.ForceImport)
	def := last.Document.AgentInfo.Get("1")
	require.NotNil(t, def)
	assert.Equal(t, "Weather forecasts", def.Description)
	assert.Equal(t, "secret", def.Tools[0].Params["api_key"])
	require.NotNil(t, def.ModelID)
	assert.Equal(t, 3, *def.ModelID)
	assert.Equal(t, "GPT-4o", def.ModelName)
	assert.Nil(t, def.BusinessLogicModelID)
	assert.Equal(t, "http://weather.local/mcp", last.Document.McpInfo[0].McpURL)

	code, _ = env.do(t, http.MethodPost, base+"/submit", map[string]any{})
	assert.Equal(t, http.StatusConflict, code)

	list, _, err := env.agents.ListAgents(context.Background(), nil, "", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "weather_agent", list[0].Name)
}

func TestImportSubmitFailureKeepsSessionOpen(t *testing.T) {
	env := newTestEnv(t)
	env.platform.ImportAgentFn = func(context.Context, *models.AgentImportDocument, models.ImportOptions) error {
		return &client.OperationError{Op: "import agent", Message: "agent already exists"}
	}

	doc := `{"agent_id": 2, "agent_info": {"2": {"name": "plain", "description": "ok"}}}`
	code, body := env.do(t, http.MethodPost, "/v0/imports", doc)
	require.Equal(t, http.StatusCreated, code, body)
	base := "/v0/imports/" + body["id"].(string)
	assert.Equal(t, []any{"model"}, body["steps"])

	code, body = env.do(t, http.MethodPost, base+"/submit", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, code, body)

	code, _ = env.do(t, http.MethodPut, base+"/model", map[string]any{
		"mode":        "individual",
		"agentModels": map[string]any{"2": map[string]any{"modelId": 3, "modelName": "gpt-4o"}},
	})
	require.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodPost, base+"/submit", map[string]any{})
	assert.Equal(t, http.StatusBadGateway, code)

	code, body = env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["submitted"])
	assert.Contains(t, body["lastError"], "agent already exists")

	env.platform.ImportAgentFn = nil
	code, _ = env.do(t, http.MethodPost, base+"/submit", map[string]any{})
	assert.Equal(t, http.StatusOK, code)
}

func TestImportInstallFailureReportsBackendMessage(t *testing.T) {
	env := newTestEnv(t)
	env.platform.AddMcpServerFn = func(context.Context, string, string) error {
		return &client.OperationError{Op: "add mcp server", Message: "service name taken"}
	}
	doc := `{"agent_id": 1, "agent_info": {"1": {"name": "a"}}, "mcp_info": [{"mcp_server_name": "s", "mcp_url": "http://s"}]}`
	code, body := env.do(t, http.MethodPost, "/v0/imports", doc)
	require.Equal(t, http.StatusCreated, code, body)
	base := "/v0/imports/" + body["id"].(string)

	code, body = env.do(t, http.MethodPost, base+"/mcp/0/install", nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "service name taken", body["detail"])

	code, _ = env.do(t, http.MethodPost, base+"/mcp/5/install", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestImportErrors(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.do(t, http.MethodPost, "/v0/imports", `{"agent_info": []}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodGet, "/v0/imports/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)

	env.platform.ListMcpServersFn = func(context.Context) ([]models.McpServerRecord, error) {
		return nil, errors.New("platform down")
	}
	code, _ = env.do(t, http.MethodPost, "/v0/imports", `{"agent_info": {}}`)
	assert.Equal(t, http.StatusBadGateway, code)
}

func TestImportYAMLAndDelete(t *testing.T) {
	env := newTestEnv(t)
	doc := "agent_id: 5\nagent_info:\n  \"5\":\n    name: yaml_agent\n"
	code, body := env.do(t, http.MethodPost, "/v0/imports", doc)
	require.Equal(t, http.StatusCreated, code, body)
	base := "/v0/imports/" + body["id"].(string)

	code, _ = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestImportSetModelOnlyAcceptsSelectableModels(t *testing.T) {
	env := newTestEnv(t)
	code, body := env.do(t, http.MethodPost, "/v0/imports", importDocument)
	require.Equal(t, http.StatusCreated, code, body)
	base := "/v0/imports/" + body["id"].(string)

	tests := []struct {
		name      string
		selection map[string]any
		wantCode  int
		wantName  string
	}{
		{name: "unavailable id with a name", selection: map[string]any{"modelId": 4, "modelName": "Offline"}, wantCode: http.StatusBadRequest},
		{name: "unknown id", selection: map[string]any{"modelId": 99, "modelName": "anything"}, wantCode: http.StatusBadRequest},
		{name: "name does not match id", selection: map[string]any{"modelId": 3, "modelName": "custom"}, wantCode: http.StatusBadRequest},
		{name: "unavailable name", selection: map[string]any{"modelName": "offline"}, wantCode: http.StatusBadRequest},
		{name: "id with matching name", selection: map[string]any{"modelId": 3, "modelName": "gpt-4o"}, wantCode: http.StatusOK, wantName: "GPT-4o"},
		{name: "name only", selection: map[string]any{"modelName": "gpt-4O"}, wantCode: http.StatusOK, wantName: "GPT-4o"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := env.do(t, http.MethodPut, base+"/model", map[string]any{"unifiedModel": tt.selection})
			require.Equal(t, tt.wantCode, code, body)
			if tt.wantCode != http.StatusOK {
				return
			}
			unified := body["assignment"].(map[string]any)["unified"].(map[string]any)
			assert.Equal(t, tt.wantName, unified["modelName"])
			assert.EqualValues(t, 3, unified["modelId"])
		})
	}

	_, body = env.do(t, http.MethodGet, base, nil)
	unified := body["assignment"].(map[string]any)["unified"].(map[string]any)
	assert.NotEqualValues(t, 4, unified["modelId"])
}

func TestImportSessionReportsBlockingStep(t *testing.T) {
	env := newTestEnv(t)
	code, body := env.do(t, http.MethodPost, "/v0/imports", importDocument)
	require.Equal(t, http.StatusCreated, code, body)
	base := "/v0/imports/" + body["id"].(string)

	blocking, ok := body["blocking"].(map[string]any)
	require.True(t, ok, body)
	assert.Equal(t, "model", blocking["step"])
	assert.Equal(t, "select a model", blocking["message"])

	_, body = env.do(t, http.MethodPut, base+"/model", map[string]any{"unifiedModel": map[string]any{"modelId": 3}})
	assert.NotContains(t, body, "blocking")

	_, body = env.do(t, http.MethodPost, base+"/next", nil)
	blocking, ok = body["blocking"].(map[string]any)
	require.True(t, ok, body)
	assert.Equal(t, "fields", blocking["step"])
	assert.ElementsMatch(t, []any{"1::description", "1::tools[0].params.api_key"}, blocking["missing"])
}
