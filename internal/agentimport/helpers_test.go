package agentimport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

const multiAgentDoc = `{
  "agent_id": 10,
  "agent_info": {
    "10": {
      "name": "planner",
      "display_name": "Trip Planner",
      "description": "Plans trips",
      "business_description": "<TO_CONFIG>",
      "duty_prompt": "<TO_CONFIG:Enter your duty>",
      "constraint_prompt": "be brief",
      "few_shots_prompt": "",
      "model_id": 1,
      "model_name": "old-model",
      "business_logic_model_id": 2,
      "business_logic_model_name": "old-bl",
      "tools": [
        {"tool_id": 3, "name": "web_search", "source": "local", "class_name": "WebSearchTool", "params": {"top_k": 5, "apiKey": "<TO_CONFIG:Get a key at [Exa](https://exa.ai)>"}},
        {"tool_id": 4, "name": "weather", "source": "mcp", "class_name": "WeatherTool", "params": {"region": "eu", "token": "<TO_CONFIG>"}}
      ],
      "managed_agents": [11]
    },
    "11": {
      "name": "researcher",
      "description": "<TO_CONFIG>",
      "business_description": "Finds facts",
      "duty_prompt": "research",
      "constraint_prompt": "",
      "few_shots_prompt": "",
      "tools": []
    }
  },
  "mcp_info": [
    {"mcp_server_name": "search", "mcp_url": "<TO_CONFIG>"},
    {"mcp_server_name": "weather", "mcp_url": "http://weather.local/mcp"}
  ]
}`

func loadDoc(t *testing.T, raw string) *models.AgentImportDocument {
	t.Helper()
	doc, err := models.ParseAgentImportDocument([]byte(raw))
	require.NoError(t, err)
	return doc
}

func singleAgentDoc(t *testing.T) *models.AgentImportDocument {
	return loadDoc(t, `{
  "agent_id": 1,
  "agent_info": {
    "1": {"name": "helper", "description": "d", "duty_prompt": "<TO_CONFIG:Enter your duty>", "tools": []}
  },
  "mcp_info": []
}`)
}

func intPtr(v int) *int { return &v }
