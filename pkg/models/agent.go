package models

import (
	"time"
)

// AgentRecord is an agent draft managed through the console.
type AgentRecord struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	DisplayName string           `json:"displayName,omitempty"`
	Description string           `json:"description,omitempty"`
	ModelID     *int             `json:"modelId,omitempty"`
	ModelName   string           `json:"modelName,omitempty"`
	Enabled     bool             `json:"enabled"`
	Tools       []ToolBinding    `json:"tools"`
	Definition  *AgentDefinition `json:"definition,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// AgentDraft is the writable part of an AgentRecord.
type AgentDraft struct {
	Name        string        `json:"name" minLength:"1" doc:"Agent name"`
	DisplayName string        `json:"displayName,omitempty" doc:"Name shown in the console"`
	Description string        `json:"description,omitempty" doc:"Agent description"`
	ModelID     *int          `json:"modelId,omitempty" doc:"Assigned model id"`
	ModelName   string        `json:"modelName,omitempty" doc:"Assigned model name"`
	Enabled     bool          `json:"enabled" doc:"Whether the agent is enabled"`
	Tools       []ToolBinding `json:"tools,omitempty" doc:"Tool bindings"`
}

type AgentMetadata struct {
	NextCursor string `json:"nextCursor,omitempty"`
	Count      int    `json:"count"`
}

type AgentListResponse struct {
	Agents   []AgentRecord `json:"agents"`
	Metadata AgentMetadata `json:"metadata"`
}

// Clone returns a deep copy of the record.
func (r *AgentRecord) Clone() *AgentRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.ModelID != nil {
		v := *r.ModelID
		out.ModelID = &v
	}
	out.Tools = CloneTools(r.Tools)
	out.Definition = r.Definition.Clone()
	return &out
}

// Apply copies the writable fields of d onto r.
func (r *AgentRecord) Apply(d AgentDraft) {
	r.Name = d.Name
	r.DisplayName = d.DisplayName
	r.Description = d.Description
	r.ModelID = nil
	if d.ModelID != nil {
		v := *d.ModelID
		r.ModelID = &v
	}
	r.ModelName = d.ModelName
	r.Enabled = d.Enabled
	r.Tools = CloneTools(d.Tools)
	if r.Tools == nil {
		r.Tools = []ToolBinding{}
	}
}
