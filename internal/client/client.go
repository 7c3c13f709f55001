package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/agentregistry-dev/agentconsole/internal/console/service"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

var _ service.PlatformService = (*Client)(nil)

// Client talks to the agent platform's JSON-over-HTTP services.
type Client struct {
	BaseURL    string
	httpClient *http.Client
	token      string
}

const (
	DefaultBaseURL = "http://localhost:5010/api"
	defaultTimeout = 30 * time.Second

	// EnvBaseURL and EnvToken configure NewClientFromEnv.
	EnvBaseURL = "AGENTCTL_PLATFORM_URL"
	EnvToken   = "AGENTCTL_PLATFORM_TOKEN"
)

// OperationError is a platform call that failed with a message the user should see.
type OperationError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *OperationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// BackendMessage returns the platform-provided message.
func (e *OperationError) BackendMessage() string { return e.Message }

// NewClientFromEnv constructs a client using environment variables
func NewClientFromEnv() (*Client, error) {
	c := NewClient(os.Getenv(EnvBaseURL), os.Getenv(EnvToken))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach platform at %s: %w", c.BaseURL, err)
	}
	return c, nil
}

// NewClient constructs a client with explicit baseURL and token
func NewClient(baseURL, token string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) newRequest(ctx context.Context, method, pathWithQuery string, in any) (*http.Request, error) {
	fullURL := strings.TrimRight(c.BaseURL, "/") + pathWithQuery
	var body io.Reader
	if in != nil {
		inBytes, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %T: %w", in, err)
		}
		body = bytes.NewReader(inBytes)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do sends the request and returns the response body of a 2xx answer.
func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &OperationError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(body, resp.Status)}
	}
	return body, nil
}

func (c *Client) getList(ctx context.Context, op, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	body, err := c.do(op, req)
	if err != nil {
		return err
	}
	raw := listPayload(body)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// operation performs a mutation answered with {success, message}.
func (c *Client) operation(ctx context.Context, op, method, path string, in any) error {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	body, err := c.do(op, req)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	success := gjson.GetBytes(body, "success")
	if success.Exists() && !success.Bool() {
		return &OperationError{Op: op, Message: errorMessage(body, "")}
	}
	return nil
}

// Ping checks connectivity to the platform
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	_, err = c.do("ping", req)
	return err
}

// ListModels returns the configured language models
func (c *Client) ListModels(ctx context.Context) ([]models.ModelOption, error) {
	var out []models.ModelOption
	if err := c.getList(ctx, "list models", "/model/llm_list", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMcpServers returns the registered MCP servers
func (c *Client) ListMcpServers(ctx context.Context) ([]models.McpServerRecord, error) {
	var out []models.McpServerRecord
	if err := c.getList(ctx, "list mcp servers", "/mcp/list", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMcpServer registers a remote MCP server
func (c *Client) AddMcpServer(ctx context.Context, mcpURL, name string) error {
	q := url.Values{}
	q.Set("mcp_url", mcpURL)
	q.Set("service_name", name)
	return c.operation(ctx, "add mcp server", http.MethodPost, "/mcp/add?"+q.Encode(), nil)
}

// ListTools returns the tool catalog
func (c *Client) ListTools(ctx context.Context) ([]models.ToolInfo, error) {
	var out []models.ToolInfo
	if err := c.getList(ctx, "list tools", "/tool/list", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RefreshTools asks the platform to rescan tools
func (c *Client) RefreshTools(ctx context.Context) error {
	return c.operation(ctx, "refresh tools", http.MethodGet, "/tool/scan_tool", nil)
}

// RefreshAgents asks the platform to reload its agent list
func (c *Client) RefreshAgents(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/agent/list", nil)
	if err != nil {
		return err
	}
	_, err = c.do("refresh agents", req)
	return err
}

type importRequest struct {
	AgentInfo   *models.AgentImportDocument `json:"agent_info"`
	ForceImport bool                        `json:"force_import"`
}

// ImportAgent submits an assembled import document
func (c *Client) ImportAgent(ctx context.Context, doc *models.AgentImportDocument, opts models.ImportOptions) error {
	if doc == nil {
		return errors.New("import agent: document is required")
	}
	return c.operation(ctx, "import agent", http.MethodPost, "/agent/import", importRequest{
		AgentInfo:   doc,
		ForceImport: opts.ForceImport,
	})
}

// listPayload returns the JSON list in body, which is either a bare array or
// wrapped in a "data" field.
func listPayload(body []byte) string {
	res := gjson.ParseBytes(body)
	if res.IsArray() {
		return res.Raw
	}
	if data := res.Get("data"); data.IsArray() {
		return data.Raw
	}
	return ""
}

// errorMessage extracts a human message from an error body.
func errorMessage(body []byte, fallback string) string {
	for _, path := range []string{"message", "detail", "error", "title"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && strings.TrimSpace(v.String()) != "" {
			return v.String()
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" && len(s) <= 1024 && !gjson.ValidBytes(body) {
		return s
	}
	if fallback != "" {
		return fallback
	}
	return "request failed"
}
