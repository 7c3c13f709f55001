package agentimport

import (
	"fmt"
	"strings"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

// Mode selects how models are assigned to the agents of a document.
type Mode string

const (
	// ModeUnified assigns one model to every agent.
	ModeUnified Mode = "unified"
	// ModeIndividual assigns a model per agent key.
	ModeIndividual Mode = "individual"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeUnified:
		return ModeUnified, nil
	case ModeIndividual:
		return ModeIndividual, nil
	default:
		return "", fmt.Errorf("unknown model assignment mode %q", s)
	}
}

// ModelSlot holds one model choice.
type ModelSlot struct {
	ModelID   *int   `json:"modelId"`
	ModelName string `json:"modelName"`
}

// Complete reports whether both id and name are set.
func (s ModelSlot) Complete() bool {
	return s.ModelID != nil && strings.TrimSpace(s.ModelName) != ""
}

// SlotFor converts a platform model option into a slot.
func SlotFor(opt models.ModelOption) ModelSlot {
	id := opt.ID
	name := opt.DisplayName
	if strings.TrimSpace(name) == "" {
		name = opt.ModelName
	}
	return ModelSlot{ModelID: &id, ModelName: name}
}

// SelectableModels keeps the options whose connection status is "available".
func SelectableModels(options []models.ModelOption) []models.ModelOption {
	out := make([]models.ModelOption, 0, len(options))
	for _, opt := range options {
		if opt.Selectable() {
			out = append(out, opt)
		}
	}
	return out
}

// ModelAssignment records the model choices of the first wizard step.
// It is not safe for concurrent use; Session serialises access.
type ModelAssignment struct {
	mode      Mode
	agentKeys []string
	unified   ModelSlot
	agents    map[string]ModelSlot
}

// NewModelAssignment starts in unified mode with nothing selected.
func NewModelAssignment(agentKeys []string) *ModelAssignment {
	keys := make([]string, len(agentKeys))
	copy(keys, agentKeys)
	return &ModelAssignment{
		mode:      ModeUnified,
		agentKeys: keys,
		agents:    map[string]ModelSlot{},
	}
}

func (a *ModelAssignment) Mode() Mode { return a.mode }

// SetMode switches modes and discards every selection made in the previous one.
// Entering individual mode creates an empty slot for each agent key.
func (a *ModelAssignment) SetMode(mode Mode) error {
	if mode != ModeUnified && mode != ModeIndividual {
		return fmt.Errorf("unknown model assignment mode %q", mode)
	}
	if mode == a.mode {
		return nil
	}
	a.mode = mode
	a.unified = ModelSlot{}
	a.agents = map[string]ModelSlot{}
	if mode == ModeIndividual {
		for _, key := range a.agentKeys {
			a.agents[key] = ModelSlot{}
		}
	}
	return nil
}

// SetUnified sets the shared slot. It is only valid in unified mode.
func (a *ModelAssignment) SetUnified(slot ModelSlot) error {
	if a.mode != ModeUnified {
		return fmt.Errorf("shared model can only be set in %s mode", ModeUnified)
	}
	a.unified = copySlot(slot)
	return nil
}

// SetAgent sets the slot of one agent. It is only valid in individual mode.
func (a *ModelAssignment) SetAgent(agentKey string, slot ModelSlot) error {
	if a.mode != ModeIndividual {
		return fmt.Errorf("per-agent models can only be set in %s mode", ModeIndividual)
	}
	if _, ok := a.agents[agentKey]; !ok {
		return fmt.Errorf("unknown agent %q", agentKey)
	}
	a.agents[agentKey] = copySlot(slot)
	return nil
}

func (a *ModelAssignment) Unified() ModelSlot { return copySlot(a.unified) }

// Agent returns the individual slot for agentKey.
func (a *ModelAssignment) Agent(agentKey string) ModelSlot {
	return copySlot(a.agents[agentKey])
}

// CanProceed gates the model step: the shared slot must be complete in unified
// mode, every agent slot in individual mode.
func (a *ModelAssignment) CanProceed() bool {
	if a.mode == ModeUnified {
		return a.unified.Complete()
	}
	return len(a.Missing()) == 0
}

// Missing lists the agent keys whose model is not fully assigned.
func (a *ModelAssignment) Missing() []string {
	var missing []string
	for _, key := range a.agentKeys {
		if _, ok := a.Resolve(key); !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Resolve returns the model that applies to agentKey under the active mode.
func (a *ModelAssignment) Resolve(agentKey string) (ModelSlot, bool) {
	var slot ModelSlot
	if a.mode == ModeUnified {
		slot = a.unified
	} else {
		slot = a.agents[agentKey]
	}
	if !slot.Complete() {
		return ModelSlot{}, false
	}
	return copySlot(slot), true
}

// AssignmentView is the serialisable form of a ModelAssignment.
type AssignmentView struct {
	Mode       Mode                 `json:"mode"`
	Unified    ModelSlot            `json:"unified"`
	Agents     map[string]ModelSlot `json:"agents,omitempty"`
	CanProceed bool                 `json:"canProceed"`
}

func (a *ModelAssignment) View() AssignmentView {
	v := AssignmentView{
		Mode:       a.mode,
		Unified:    copySlot(a.unified),
		CanProceed: a.CanProceed(),
	}
	if a.mode == ModeIndividual {
		v.Agents = make(map[string]ModelSlot, len(a.agents))
		for k, s := range a.agents {
			v.Agents[k] = copySlot(s)
		}
	}
	return v
}

func copySlot(s ModelSlot) ModelSlot {
	if s.ModelID != nil {
		id := *s.ModelID
		s.ModelID = &id
	}
	return s
}
