package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// ErrMalformedDocument is returned when an import document cannot be mapped onto
// the agent import shape.
var ErrMalformedDocument = errors.New("malformed agent import document")

// AgentImportDocument is the payload produced by an agent export and consumed by
// the import endpoint.
type AgentImportDocument struct {
	AgentID   AgentRef             `json:"agent_id" yaml:"agent_id"`
	AgentInfo AgentInfo            `json:"agent_info" yaml:"agent_info"`
	McpInfo   []McpServerReference `json:"mcp_info" yaml:"mcp_info"`

	members *sourceMembers
}

// AgentDefinition is one agent's exported configuration. Any string field may
// hold a <TO_CONFIG> placeholder instead of a real value.
type AgentDefinition struct {
	AgentID                AgentRef      `json:"agent_id,omitempty" yaml:"agent_id,omitempty"`
	Name                   string        `json:"name" yaml:"name"`
	DisplayName            string        `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Description            string        `json:"description" yaml:"description"`
	BusinessDescription    string        `json:"business_description" yaml:"business_description"`
	MaxSteps               int           `json:"max_steps,omitempty" yaml:"max_steps,omitempty"`
	ProvideRunSummary      bool          `json:"provide_run_summary" yaml:"provide_run_summary"`
	DutyPrompt             string        `json:"duty_prompt" yaml:"duty_prompt"`
	ConstraintPrompt       string        `json:"constraint_prompt" yaml:"constraint_prompt"`
	FewShotsPrompt         string        `json:"few_shots_prompt" yaml:"few_shots_prompt"`
	Enabled                bool          `json:"enabled" yaml:"enabled"`
	ModelID                *int          `json:"model_id" yaml:"model_id"`
	ModelName              string        `json:"model_name" yaml:"model_name"`
	BusinessLogicModelID   *int          `json:"business_logic_model_id" yaml:"business_logic_model_id"`
	BusinessLogicModelName *string       `json:"business_logic_model_name" yaml:"business_logic_model_name"`
	Tools                  []ToolBinding `json:"tools" yaml:"tools"`
	ManagedAgents          []AgentRef    `json:"managed_agents" yaml:"managed_agents"`

	members *sourceMembers
}

// ToolBinding references a tool together with its instance parameters.
type ToolBinding struct {
	ID          int            `json:"tool_id,omitempty" yaml:"tool_id,omitempty"`
	ClassName   string         `json:"class_name" yaml:"class_name"`
	Name        string         `json:"name" yaml:"name"`
	Source      string         `json:"source" yaml:"source"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs      string         `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	OutputType  string         `json:"output_type,omitempty" yaml:"output_type,omitempty"`
	Usage       string         `json:"usage,omitempty" yaml:"usage,omitempty"`
	Params      map[string]any `json:"params" yaml:"params"`

	members *sourceMembers
}

// McpServerReference names an external MCP tool server an imported agent relies on.
type McpServerReference struct {
	McpServerName string `json:"mcp_server_name" yaml:"mcp_server_name"`
	McpURL        string `json:"mcp_url" yaml:"mcp_url"`

	members *sourceMembers
}

func (d AgentImportDocument) MarshalJSON() ([]byte, error) {
	type plain AgentImportDocument
	b, err := json.Marshal(plain(d))
	if err != nil {
		return nil, err
	}
	return d.members.encode(b)
}

func (d *AgentImportDocument) UnmarshalJSON(b []byte) error {
	type plain AgentImportDocument
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*d = AgentImportDocument(p)
	d.members = captureJSONMembers(b)
	return nil
}

func (d *AgentImportDocument) UnmarshalYAML(node *yaml.Node) error {
	type plain AgentImportDocument
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = AgentImportDocument(p)
	d.members = captureYAMLMembers(node)
	return nil
}

func (a AgentDefinition) MarshalJSON() ([]byte, error) {
	type plain AgentDefinition
	b, err := json.Marshal(plain(a))
	if err != nil {
		return nil, err
	}
	return a.members.encode(b)
}

func (a *AgentDefinition) UnmarshalJSON(b []byte) error {
	type plain AgentDefinition
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*a = AgentDefinition(p)
	a.members = captureJSONMembers(b)
	return nil
}

func (a *AgentDefinition) UnmarshalYAML(node *yaml.Node) error {
	type plain AgentDefinition
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*a = AgentDefinition(p)
	a.members = captureYAMLMembers(node)
	return nil
}

func (t ToolBinding) MarshalJSON() ([]byte, error) {
	type plain ToolBinding
	b, err := json.Marshal(plain(t))
	if err != nil {
		return nil, err
	}
	return t.members.encode(b)
}

func (t *ToolBinding) UnmarshalJSON(b []byte) error {
	type plain ToolBinding
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*t = ToolBinding(p)
	t.members = captureJSONMembers(b)
	return nil
}

func (t *ToolBinding) UnmarshalYAML(node *yaml.Node) error {
	type plain ToolBinding
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*t = ToolBinding(p)
	t.members = captureYAMLMembers(node)
	return nil
}

func (r McpServerReference) MarshalJSON() ([]byte, error) {
	type plain McpServerReference
	b, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	return r.members.encode(b)
}

func (r *McpServerReference) UnmarshalJSON(b []byte) error {
	type plain McpServerReference
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = McpServerReference(p)
	r.members = captureJSONMembers(b)
	return nil
}

func (r *McpServerReference) UnmarshalYAML(node *yaml.Node) error {
	type plain McpServerReference
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = McpServerReference(p)
	r.members = captureYAMLMembers(node)
	return nil
}

// AgentRef identifies an agent inside an import document. Exports write numeric
// ids, hand-edited documents frequently carry strings; both are accepted.
type AgentRef string

func (r *AgentRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = AgentRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: agent id must be a number or string", ErrMalformedDocument)
	}
	*r = AgentRef(n.String())
	return nil
}

func (r AgentRef) MarshalJSON() ([]byte, error) {
	if r == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(r), 10, 64); err == nil {
		return []byte(r), nil
	}
	return json.Marshal(string(r))
}

func (r *AgentRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: agent id must be a scalar", ErrMalformedDocument)
	}
	if node.Tag == "!!null" {
		*r = ""
		return nil
	}
	*r = AgentRef(node.Value)
	return nil
}

// AgentInfo maps agent keys to definitions while keeping the document's key order.
type AgentInfo struct {
	keys []string
	defs map[string]*AgentDefinition
}

// NewAgentInfo returns an empty AgentInfo ready for Set.
func NewAgentInfo() AgentInfo {
	return AgentInfo{defs: map[string]*AgentDefinition{}}
}

// Keys returns the agent keys in document order.
func (a AgentInfo) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

func (a AgentInfo) Len() int { return len(a.keys) }

// Get returns the definition for key, or nil.
func (a AgentInfo) Get(key string) *AgentDefinition {
	if a.defs == nil {
		return nil
	}
	return a.defs[key]
}

// Set inserts or replaces a definition; new keys are appended.
func (a *AgentInfo) Set(key string, def *AgentDefinition) {
	if a.defs == nil {
		a.defs = map[string]*AgentDefinition{}
	}
	if _, exists := a.defs[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.defs[key] = def
}

func (a AgentInfo) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(a.defs[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a *AgentInfo) UnmarshalJSON(b []byte) error {
	*a = NewAgentInfo()
	if !gjson.ValidBytes(b) {
		return fmt.Errorf("%w: agent_info is not valid JSON", ErrMalformedDocument)
	}
	res := gjson.ParseBytes(b)
	if res.Type == gjson.Null {
		return nil
	}
	if !res.IsObject() {
		return fmt.Errorf("%w: agent_info must be an object", ErrMalformedDocument)
	}
	var decodeErr error
	res.ForEach(func(key, value gjson.Result) bool {
		def := &AgentDefinition{}
		if value.Type != gjson.Null {
			if err := json.Unmarshal([]byte(value.Raw), def); err != nil {
				decodeErr = fmt.Errorf("%w: agent %q: %v", ErrMalformedDocument, key.String(), err)
				return false
			}
		}
		a.Set(key.String(), def)
		return true
	})
	return decodeErr
}

func (a AgentInfo) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range a.keys {
		val := &yaml.Node{}
		if err := val.Encode(a.defs[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, val)
	}
	return node, nil
}

func (a *AgentInfo) UnmarshalYAML(node *yaml.Node) error {
	*a = NewAgentInfo()
	if node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: agent_info must be a mapping", ErrMalformedDocument)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		def := &AgentDefinition{}
		if node.Content[i+1].Tag != "!!null" {
			if err := node.Content[i+1].Decode(def); err != nil {
				return fmt.Errorf("%w: agent %q: %v", ErrMalformedDocument, key, err)
			}
		}
		a.Set(key, def)
	}
	return nil
}

// ParseAgentImportDocument decodes a JSON or YAML import document and defaults
// missing collections to empty ones.
func ParseAgentImportDocument(data []byte) (*AgentImportDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedDocument)
	}
	doc := &AgentImportDocument{}
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, doc); err != nil {
			if errors.Is(err, ErrMalformedDocument) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, doc); err != nil {
			if errors.Is(err, ErrMalformedDocument) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
	}
	doc.Normalize()
	return doc, nil
}

// LoadAgentImportDocument reads and parses an import document from disk.
func LoadAgentImportDocument(path string) (*AgentImportDocument, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseAgentImportDocument(data)
}

// Normalize replaces absent collections with empty ones. The first call also
// records the decoded state, so members left untouched are written back as
// they were read and members the source lacked are not invented.
func (d *AgentImportDocument) Normalize() {
	if d.AgentInfo.defs == nil {
		d.AgentInfo = NewAgentInfo()
	}
	if d.McpInfo == nil {
		d.McpInfo = []McpServerReference{}
	}
	for _, key := range d.AgentInfo.keys {
		def := d.AgentInfo.defs[key]
		if def == nil {
			def = &AgentDefinition{}
			d.AgentInfo.defs[key] = def
		}
		if def.Tools == nil {
			def.Tools = []ToolBinding{}
		}
		for i := range def.Tools {
			tool := &def.Tools[i]
			if tool.Params == nil {
				tool.Params = map[string]any{}
			}
			tool.members = tool.members.withBaseline(typedJSON(tool))
		}
		def.members = def.members.withBaseline(typedJSON(def))
	}
	for i := range d.McpInfo {
		ref := &d.McpInfo[i]
		ref.members = ref.members.withBaseline(typedJSON(ref))
	}
	d.members = d.members.withBaseline(typedJSON(d))
}

// typedJSON encodes v the way MarshalJSON would before merging source
// members. Errors yield nil, which leaves the baseline empty.
func typedJSON(v any) []byte {
	var (
		b   []byte
		err error
	)
	switch tv := v.(type) {
	case *AgentImportDocument:
		type plain AgentImportDocument
		b, err = json.Marshal(plain(*tv))
	case *AgentDefinition:
		type plain AgentDefinition
		b, err = json.Marshal(plain(*tv))
	case *ToolBinding:
		type plain ToolBinding
		b, err = json.Marshal(plain(*tv))
	case *McpServerReference:
		type plain McpServerReference
		b, err = json.Marshal(plain(*tv))
	}
	if err != nil {
		return nil
	}
	return b
}

// IsPrimary reports whether key names the document's primary agent.
func (d *AgentImportDocument) IsPrimary(key string) bool {
	return d.AgentID != "" && strings.TrimSpace(key) == string(d.AgentID)
}

// Clone returns a deep copy of the document that shares no mutable state with d.
func (d *AgentImportDocument) Clone() *AgentImportDocument {
	if d == nil {
		return nil
	}
	out := &AgentImportDocument{
		AgentID:   d.AgentID,
		AgentInfo: NewAgentInfo(),
		members:   d.members,
	}
	for _, key := range d.AgentInfo.keys {
		out.AgentInfo.Set(key, d.AgentInfo.defs[key].Clone())
	}
	if d.McpInfo != nil {
		out.McpInfo = make([]McpServerReference, len(d.McpInfo))
		copy(out.McpInfo, d.McpInfo)
	}
	return out
}

// Clone returns a deep copy of the definition.
func (a *AgentDefinition) Clone() *AgentDefinition {
	if a == nil {
		return nil
	}
	out := *a
	if a.ModelID != nil {
		v := *a.ModelID
		out.ModelID = &v
	}
	if a.BusinessLogicModelID != nil {
		v := *a.BusinessLogicModelID
		out.BusinessLogicModelID = &v
	}
	if a.BusinessLogicModelName != nil {
		v := *a.BusinessLogicModelName
		out.BusinessLogicModelName = &v
	}
	if a.ManagedAgents != nil {
		out.ManagedAgents = make([]AgentRef, len(a.ManagedAgents))
		copy(out.ManagedAgents, a.ManagedAgents)
	}
	out.Tools = CloneTools(a.Tools)
	return &out
}

// CloneTools deep copies tool bindings, params included.
func CloneTools(tools []ToolBinding) []ToolBinding {
	if tools == nil {
		return nil
	}
	out := make([]ToolBinding, len(tools))
	for i, t := range tools {
		out[i] = t
		if t.Params != nil {
			out[i].Params = CloneParams(t.Params)
		}
	}
	return out
}

// CloneParams deep copies a params mapping.
func CloneParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	return cloneValue(params).(map[string]any)
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(tv))
		for k, val := range tv {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(tv))
		for i, val := range tv {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}
