package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agentregistry-dev/agentconsole/internal/agentimport"
	"github.com/agentregistry-dev/agentconsole/internal/utils"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

// ImportPlan holds the answers for a non-interactive import.
type ImportPlan struct {
	// Model is the shared model; ignored when AgentModels is set.
	Model *utils.ModelRef
	// AgentModels assigns a model per agent key and selects individual mode.
	AgentModels map[string]utils.ModelRef
	// Values resolve placeholder fields by resolution key, field path or label.
	Values map[string]string
	// McpURLs replace MCP server URLs by server name.
	McpURLs map[string]string
}

// ResolveModel finds the selectable model matching ref. A ref with only an id
// or only a name is completed from the catalog.
func ResolveModel(ref utils.ModelRef, options []models.ModelOption) (agentimport.ModelSlot, error) {
	for _, opt := range agentimport.SelectableModels(options) {
		if ref.ID != nil && *ref.ID != opt.ID {
			continue
		}
		if ref.Name != "" && !strings.EqualFold(ref.Name, opt.DisplayName) && !strings.EqualFold(ref.Name, opt.ModelName) {
			continue
		}
		return agentimport.SlotFor(opt), nil
	}
	if ref.ID != nil {
		return agentimport.ModelSlot{}, fmt.Errorf("model %d is not available", *ref.ID)
	}
	return agentimport.ModelSlot{}, fmt.Errorf("model %q is not available", ref.Name)
}

// MatchField maps a user-supplied key to a resolution key. Full keys always
// match; a bare path or label must identify exactly one field.
func MatchField(key string, fields []agentimport.ConfigField) (string, error) {
	var byPath, byLabel []string
	for _, f := range fields {
		if f.Key == key {
			return f.Key, nil
		}
		if f.Path == key {
			byPath = append(byPath, f.Key)
		}
		if strings.EqualFold(f.Label, key) {
			byLabel = append(byLabel, f.Key)
		}
	}
	for _, matches := range [][]string{byPath, byLabel} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return "", fmt.Errorf("field %q is ambiguous; use one of %s", key, strings.Join(matches, ", "))
		}
	}
	return "", fmt.Errorf("unknown field %q", key)
}

// Apply feeds the plan into the session and installs every MCP reference that
// has a URL. It stops at the first error except for install failures, which
// are collected so every server gets a chance.
func (p ImportPlan) Apply(ctx context.Context, s *agentimport.Session, options []models.ModelOption) error {
	if err := p.applyModels(s, options); err != nil {
		return err
	}

	fields := s.Fields()
	for _, key := range sortedKeys(p.Values) {
		resolved, err := MatchField(key, fields)
		if err != nil {
			return err
		}
		if err := s.SetField(resolved, p.Values[key]); err != nil {
			return err
		}
	}

	states := s.McpStates()
	known := map[string]bool{}
	for _, st := range states {
		known[st.Name] = true
	}
	for _, name := range sortedKeys(p.McpURLs) {
		if !known[name] {
			return fmt.Errorf("document does not reference MCP server %q", name)
		}
	}

	var installErrs []error
	for _, st := range states {
		if u, ok := p.McpURLs[st.Name]; ok {
			if err := s.EditMcpURL(st.Index, u); err != nil {
				return err
			}
		}
		if st.Installed {
			continue
		}
		if err := s.InstallMcp(ctx, st.Index); err != nil && !errors.Is(err, agentimport.ErrURLRequired) {
			installErrs = append(installErrs, err)
		}
	}
	s.WaitForRefreshes()
	return errors.Join(installErrs...)
}

func (p ImportPlan) applyModels(s *agentimport.Session, options []models.ModelOption) error {
	if len(p.AgentModels) > 0 {
		if err := s.SetMode(agentimport.ModeIndividual); err != nil {
			return err
		}
		for _, key := range sortedKeys(p.AgentModels) {
			slot, err := ResolveModel(p.AgentModels[key], options)
			if err != nil {
				return fmt.Errorf("agent %s: %w", key, err)
			}
			if err := s.SetAgentModel(key, slot); err != nil {
				return err
			}
		}
		return nil
	}
	if p.Model == nil {
		return nil
	}
	slot, err := ResolveModel(*p.Model, options)
	if err != nil {
		return err
	}
	return s.SetUnifiedModel(slot)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
