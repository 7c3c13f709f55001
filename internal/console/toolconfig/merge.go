// Package toolconfig edits the parameters of a tool bound to an agent.
package toolconfig

import (
	"strings"

	"github.com/agentregistry-dev/agentconsole/internal/agentimport"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

// MergeParams builds the working parameter set for a tool: catalog defaults,
// overridden by the values saved on the agent. Saved keys the catalog no
// longer declares are dropped.
func MergeParams(catalog []models.ToolParam, saved map[string]any) map[string]any {
	out := make(map[string]any, len(catalog))
	for _, p := range catalog {
		if v, ok := saved[p.Name]; ok {
			out[p.Name] = v
			continue
		}
		out[p.Name] = p.Default
	}
	return models.CloneParams(out)
}

// MissingRequired lists the non-optional params that are unset, blank or
// still a placeholder, in catalog order.
func MissingRequired(catalog []models.ToolParam, values map[string]any) []string {
	var missing []string
	for _, p := range catalog {
		if p.Optional {
			continue
		}
		v, ok := values[p.Name]
		if !ok || v == nil || agentimport.IsPlaceholder(v) {
			missing = append(missing, p.Name)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, p.Name)
		}
	}
	return missing
}

// Binding turns a catalog tool and its params into an agent tool binding.
func Binding(info models.ToolInfo, params map[string]any) models.ToolBinding {
	params = models.CloneParams(params)
	if params == nil {
		params = map[string]any{}
	}
	return models.ToolBinding{
		ID:          info.ID,
		ClassName:   info.ClassName,
		Name:        info.Name,
		Source:      info.Source,
		Description: info.Description,
		Params:      params,
	}
}
