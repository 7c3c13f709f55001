package models

// ConnectStatusAvailable marks a model the platform can currently reach.
const ConnectStatusAvailable = "available"

// ModelOption is a language model offered by the platform's model listing service.
type ModelOption struct {
	ID            int    `json:"id"`
	ModelName     string `json:"model_name,omitempty"`
	DisplayName   string `json:"displayName"`
	ConnectStatus string `json:"connect_status"`
}

// Selectable reports whether the model can be assigned to an agent.
func (m ModelOption) Selectable() bool {
	return m.ConnectStatus == ConnectStatusAvailable
}

// McpServerRecord is an MCP server already registered on the platform.
type McpServerRecord struct {
	ServiceName string `json:"service_name"`
	McpURL      string `json:"mcp_url"`
	Status      bool   `json:"status,omitempty"`
	Remote      bool   `json:"remote_mcp_server,omitempty"`
}

// ToolParam describes one configurable parameter of a catalog tool.
type ToolParam struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
}

// ToolInfo is a tool as published by the platform's tool catalog.
type ToolInfo struct {
	ID          int         `json:"tool_id"`
	Name        string      `json:"name"`
	Source      string      `json:"source"`
	ClassName   string      `json:"class_name,omitempty"`
	Description string      `json:"description,omitempty"`
	Params      []ToolParam `json:"params"`
}

// OperationResult is the {success, message} envelope returned by platform mutations.
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ImportOptions are the flags sent alongside an assembled import document.
type ImportOptions struct {
	ForceImport bool `json:"force_import"`
}
