package v0_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentregistry-dev/agentconsole/internal/console/api/router"
	"github.com/agentregistry-dev/agentconsole/internal/console/database"
	servicetesting "github.com/agentregistry-dev/agentconsole/internal/console/service/testing"
	"github.com/agentregistry-dev/agentconsole/internal/console/sessions"
	"github.com/agentregistry-dev/agentconsole/internal/console/toolconfig"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

const importDocument = `{
  "agent_id": 1,
  "agent_info": {
    "1": {
      "name": "weather_agent",
      "display_name": "Weather Agent",
      "description": "<TO_CONFIG:Describe the agent, see [docs](https://docs.example.com)>",
      "business_description": "forecasts",
      "duty_prompt": "be helpful",
      "constraint_prompt": "",
      "few_shots_prompt": "",
      "model_id": 9,
      "model_name": "old-model",
      "business_logic_model_id": 9,
      "business_logic_model_name": "old-model",
      "tools": [
        {"class_name": "SearchTool", "name": "search", "source": "mcp", "params": {"api_key": "<TO_CONFIG>", "top_k": 3}}
      ]
    }
  },
  "mcp_info": [
    {"mcp_server_name": "weather", "mcp_url": "<TO_CONFIG>"}
  ]
}`

type testEnv struct {
	mux      *http.ServeMux
	platform *servicetesting.FakePlatform
	agents   database.AgentRepository
	sessions *sessions.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	platform := servicetesting.NewFakePlatform()
	platform.Models = []models.ModelOption{
		{ID: 3, ModelName: "gpt-4o", DisplayName: "GPT-4o", ConnectStatus: models.ConnectStatusAvailable},
		{ID: 4, ModelName: "offline", DisplayName: "Offline", ConnectStatus: "unavailable"},
	}
	platform.Tools = []models.ToolInfo{{
		ID:     11,
		Name:   "search",
		Source: "mcp",
		Params: []models.ToolParam{
			{Name: "api_key", Type: "string"},
			{Name: "top_k", Type: "int", Default: float64(5), Optional: true},
		},
	}}

	manager := sessions.NewManager(sessions.DefaultTTL)
	t.Cleanup(manager.Close)
	agents := database.NewMemory()

	mux := http.NewServeMux()
	router.NewHumaAPI(mux, router.Deps{
		Platform: platform,
		Agents:   agents,
		Sessions: manager,
		Editors:  toolconfig.NewEditors(),
	})
	return &testEnv{mux: mux, platform: platform, agents: agents, sessions: manager}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}
