package agentimport

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stoewer/go-strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

// keySeparator joins the agent key and field path of a resolution key.
const keySeparator = "::"

// ConfigField is one placeholder location that needs a value before import.
type ConfigField struct {
	Key      string        `json:"key"`
	AgentKey string        `json:"agentKey"`
	Path     string        `json:"path"`
	Label    string        `json:"label"`
	Hint     string        `json:"hint,omitempty"`
	HintText []HintSegment `json:"hintSegments,omitempty"`
}

// HasHint reports whether the placeholder carried hint text.
func (f ConfigField) HasHint() bool { return f.Hint != "" }

// ResolutionKey builds the store key for a field of an agent.
func ResolutionKey(agentKey, path string) string {
	return agentKey + keySeparator + path
}

type basicField struct {
	name  string
	label string
	get   func(*models.AgentDefinition) string
	set   func(*models.AgentDefinition, string)
}

// basicFields are scanned in this order for every agent.
var basicFields = []basicField{
	{
		name:  "description",
		label: "Description",
		get:   func(d *models.AgentDefinition) string { return d.Description },
		set:   func(d *models.AgentDefinition, v string) { d.Description = v },
	},
	{
		name:  "business_description",
		label: "Business Description",
		get:   func(d *models.AgentDefinition) string { return d.BusinessDescription },
		set:   func(d *models.AgentDefinition, v string) { d.BusinessDescription = v },
	},
	{
		name:  "duty_prompt",
		label: "Duty Prompt",
		get:   func(d *models.AgentDefinition) string { return d.DutyPrompt },
		set:   func(d *models.AgentDefinition, v string) { d.DutyPrompt = v },
	},
	{
		name:  "constraint_prompt",
		label: "Constraint Prompt",
		get:   func(d *models.AgentDefinition) string { return d.ConstraintPrompt },
		set:   func(d *models.AgentDefinition, v string) { d.ConstraintPrompt = v },
	},
	{
		name:  "few_shots_prompt",
		label: "Few-shot Examples",
		get:   func(d *models.AgentDefinition) string { return d.FewShotsPrompt },
		set:   func(d *models.AgentDefinition, v string) { d.FewShotsPrompt = v },
	},
}

func lookupBasicField(name string) (basicField, bool) {
	for _, f := range basicFields {
		if f.name == name {
			return f, true
		}
	}
	return basicField{}, false
}

// ParseConfigFields lists every placeholder in the document's agents, following
// agent_info key order. Tool params are visited in sorted key order.
func ParseConfigFields(doc *models.AgentImportDocument) []ConfigField {
	fields := []ConfigField{}
	if doc == nil {
		return fields
	}
	for _, key := range doc.AgentInfo.Keys() {
		def := doc.AgentInfo.Get(key)
		if def == nil {
			continue
		}
		prefix := ""
		if !doc.IsPrimary(key) {
			prefix = AgentLabel(key, def) + " - "
		}

		for _, bf := range basicFields {
			value := bf.get(def)
			if !IsPlaceholder(value) {
				continue
			}
			fields = append(fields, newConfigField(key, bf.name, prefix+bf.label, value))
		}

		for i, tool := range def.Tools {
			for _, param := range sortedKeys(tool.Params) {
				value := tool.Params[param]
				if !IsPlaceholder(value) {
					continue
				}
				path := toolParamPath(i, param)
				fields = append(fields, newConfigField(key, path, prefix+toolParamLabel(tool, param), value.(string)))
			}
		}
	}
	return fields
}

func newConfigField(agentKey, path, label, value string) ConfigField {
	f := ConfigField{
		Key:      ResolutionKey(agentKey, path),
		AgentKey: agentKey,
		Path:     path,
		Label:    label,
	}
	if hint, ok := PlaceholderHint(value); ok {
		f.Hint = hint
		f.HintText = HintSegments(hint)
	}
	return f
}

// AgentLabel names an agent for display: display name, then name, then its key.
func AgentLabel(key string, def *models.AgentDefinition) string {
	if def != nil {
		if s := strings.TrimSpace(def.DisplayName); s != "" {
			return s
		}
		if s := strings.TrimSpace(def.Name); s != "" {
			return s
		}
	}
	return fmt.Sprintf("Agent %s", key)
}

func toolParamPath(index int, param string) string {
	return fmt.Sprintf("tools[%d].params.%s", index, param)
}

func toolParamLabel(tool models.ToolBinding, param string) string {
	label := humanize(param)
	name := strings.TrimSpace(tool.Name)
	if name == "" {
		name = strings.TrimSpace(tool.ClassName)
	}
	if name == "" {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, name)
}

var titleCaser = cases.Title(language.English)

// humanize turns a parameter key such as "apiKey" or "max_results" into "Api Key".
func humanize(key string) string {
	words := strings.Fields(strings.ReplaceAll(strcase.SnakeCase(key), "_", " "))
	if len(words) == 0 {
		return key
	}
	return titleCaser.String(strings.Join(words, " "))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// McpInstallState tracks one referenced MCP server through the wizard.
type McpInstallState struct {
	Index       int    `json:"index"`
	Name        string `json:"mcpServerName"`
	OriginalURL string `json:"mcpUrl"`
	Installed   bool   `json:"isInstalled"`
	URLEditable bool   `json:"isUrlEditable"`
	EditedURL   string `json:"editedUrl"`
	Installing  bool   `json:"installing"`
	LastError   string `json:"lastError,omitempty"`
}

// EffectiveURL is the URL an install would register: the edited URL when set,
// otherwise the original one unless it is a placeholder.
func (s McpInstallState) EffectiveURL() string {
	if u := strings.TrimSpace(s.EditedURL); u != "" {
		return u
	}
	if IsPlaceholder(s.OriginalURL) {
		return ""
	}
	return strings.TrimSpace(s.OriginalURL)
}

// Ready reports whether the reference no longer blocks submission.
func (s McpInstallState) Ready() bool {
	return s.Installed || strings.TrimSpace(s.EditedURL) != ""
}

// ParseMcpServers pairs each mcp_info entry with its install state. A reference
// counts as installed only when a registered server has the same name and URL.
func ParseMcpServers(doc *models.AgentImportDocument, registered []models.McpServerRecord) []McpInstallState {
	states := []McpInstallState{}
	if doc == nil {
		return states
	}
	for i, ref := range doc.McpInfo {
		editable := IsPlaceholder(ref.McpURL)
		state := McpInstallState{
			Index:       i,
			Name:        ref.McpServerName,
			OriginalURL: ref.McpURL,
			URLEditable: editable,
		}
		if !editable {
			state.EditedURL = ref.McpURL
			state.Installed = isRegistered(ref, registered)
		}
		states = append(states, state)
	}
	return states
}

func isRegistered(ref models.McpServerReference, registered []models.McpServerRecord) bool {
	for _, r := range registered {
		if r.ServiceName == ref.McpServerName && r.McpURL == ref.McpURL {
			return true
		}
	}
	return false
}
