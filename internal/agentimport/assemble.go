package agentimport

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

var toolParamPathPattern = regexp.MustCompile(`^tools\[(\d+)\]\.params\.(.+)$`)

// Assemble builds the document to submit from a deep copy of doc: resolved
// models replace each agent's model (the business-logic model is cleared),
// non-empty field values are written back at their paths and edited MCP URLs
// replace the originals. doc itself is never modified. It returns nil only
// when doc is nil.
func Assemble(
	doc *models.AgentImportDocument,
	assignment *ModelAssignment,
	store *FieldStore,
	fields []ConfigField,
	mcpStates []McpInstallState,
) *models.AgentImportDocument {
	if doc == nil {
		return nil
	}
	out := doc.Clone()
	out.Normalize()

	if assignment != nil {
		for _, key := range out.AgentInfo.Keys() {
			slot, ok := assignment.Resolve(key)
			if !ok {
				continue
			}
			def := out.AgentInfo.Get(key)
			def.ModelID = slot.ModelID
			def.ModelName = slot.ModelName
			def.BusinessLogicModelID = nil
			def.BusinessLogicModelName = nil
		}
	}

	if store != nil {
		for _, f := range fields {
			value, ok := store.Get(f.Key)
			if !ok || value == "" {
				continue
			}
			writeField(out.AgentInfo.Get(f.AgentKey), f.Path, value)
		}
	}

	for _, s := range mcpStates {
		url := strings.TrimSpace(s.EditedURL)
		if s.Index < 0 || s.Index >= len(out.McpInfo) || url == "" {
			continue
		}
		if out.McpInfo[s.Index].McpServerName != s.Name {
			continue
		}
		out.McpInfo[s.Index].McpURL = url
	}
	return out
}

// writeField stores value at path. Unknown paths and out-of-range tool
// indices are ignored.
func writeField(def *models.AgentDefinition, path, value string) {
	if def == nil {
		return
	}
	if m := toolParamPathPattern.FindStringSubmatch(path); m != nil {
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 0 || idx >= len(def.Tools) {
			return
		}
		if def.Tools[idx].Params == nil {
			def.Tools[idx].Params = map[string]any{}
		}
		def.Tools[idx].Params[m[2]] = value
		return
	}
	if bf, ok := lookupBasicField(path); ok {
		bf.set(def, value)
	}
}
