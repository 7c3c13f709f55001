package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret")
}

func TestNewClient(t *testing.T) {
	c := NewClient("", "")
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	require.NotNil(t, c.httpClient)
	assert.Equal(t, defaultTimeout, c.httpClient.Timeout)
}

func TestListModels(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bare list", body: `[{"id":1,"displayName":"GPT","connect_status":"available"},{"id":2,"displayName":"Old","connect_status":"unavailable"}]`},
		{name: "data envelope", body: `{"data":[{"id":1,"displayName":"GPT","connect_status":"available"},{"id":2,"displayName":"Old","connect_status":"unavailable"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/model/llm_list", r.URL.Path)
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
				_, _ = w.Write([]byte(tt.body))
			})
			got, err := c.ListModels(context.Background())
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "GPT", got[0].DisplayName)
			assert.True(t, got[0].Selectable())
			assert.False(t, got[1].Selectable())
		})
	}
}

func TestListMcpServersEmptyBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	got, err := c.ListMcpServers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddMcpServer(t *testing.T) {
	var gotURL, gotName string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mcp/add", r.URL.Path)
		gotURL = r.URL.Query().Get("mcp_url")
		gotName = r.URL.Query().Get("service_name")
		if gotName == "dup" {
			_, _ = w.Write([]byte(`{"success":false,"message":"service name already exists"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	require.NoError(t, c.AddMcpServer(context.Background(), "http://x/mcp?a=b", "search"))
	assert.Equal(t, "http://x/mcp?a=b", gotURL)
	assert.Equal(t, "search", gotName)

	err := c.AddMcpServer(context.Background(), "http://x", "dup")
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "service name already exists", opErr.BackendMessage())
	assert.Zero(t, opErr.StatusCode)
}

func TestImportAgent(t *testing.T) {
	var payload map[string]json.RawMessage
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agent/import", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte(`{"success":true,"message":"ok"}`))
	})

	doc, err := models.ParseAgentImportDocument([]byte(`{"agent_id": 3, "agent_info": {"3": {"name": "a"}}}`))
	require.NoError(t, err)
	require.NoError(t, c.ImportAgent(context.Background(), doc, models.ImportOptions{ForceImport: true}))

	assert.JSONEq(t, `true`, string(payload["force_import"]))
	var sent models.AgentImportDocument
	require.NoError(t, json.Unmarshal(payload["agent_info"], &sent))
	assert.Equal(t, models.AgentRef("3"), sent.AgentID)
	assert.Equal(t, "a", sent.AgentInfo.Get("3").Name)

	assert.Error(t, c.ImportAgent(context.Background(), nil, models.ImportOptions{}))
}

func TestHTTPErrorsCarryMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "json message", status: http.StatusBadRequest, body: `{"message":"agent name taken"}`, message: "agent name taken"},
		{name: "json detail", status: http.StatusConflict, body: `{"detail":"duplicate"}`, message: "duplicate"},
		{name: "plain text", status: http.StatusBadGateway, body: "upstream down", message: "upstream down"},
		{name: "empty body", status: http.StatusInternalServerError, body: "", message: "500 Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			err := c.RefreshTools(context.Background())
			var opErr *OperationError
			require.True(t, errors.As(err, &opErr))
			assert.Equal(t, tt.status, opErr.StatusCode)
			assert.Equal(t, tt.message, opErr.Message)
		})
	}
}

func TestRefreshAndPing(t *testing.T) {
	var paths []string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`[]`))
	})
	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.RefreshTools(context.Background()))
	require.NoError(t, c.RefreshAgents(context.Background()))
	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tools)
	assert.Equal(t, []string{"/health", "/tool/scan_tool", "/agent/list", "/tool/list"}, paths)
}
