package toolconfig

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

// State is the editor's mode. Exactly one holds at a time.
type State int

const (
	StateIdle State = iota
	StateAwaitingToolInfo
	StateConfiguringParams
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingToolInfo:
		return "awaiting_tool_info"
	case StateConfiguringParams:
		return "configuring_params"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrInvalidTransition = errors.New("invalid tool editor transition")
	ErrToolNotFound      = errors.New("tool not found in catalog")
	ErrUnknownParam      = errors.New("unknown tool parameter")
)

// MissingParamsError is returned by Save while required params are unset.
type MissingParamsError struct {
	Tool    string
	Missing []string
}

func (e *MissingParamsError) Error() string {
	return fmt.Sprintf("tool %s is missing required params: %v", e.Tool, e.Missing)
}

// Catalog looks up tools published by the platform.
type Catalog interface {
	ListTools(ctx context.Context) ([]models.ToolInfo, error)
}

// Snapshot is a copy of an editor's state.
type Snapshot struct {
	State  string             `json:"state"`
	Tool   string             `json:"tool"`
	Info   *models.ToolInfo   `json:"info,omitempty"`
	Params map[string]any     `json:"params,omitempty"`
	Schema []models.ToolParam `json:"schema,omitempty"`
}

// Editor configures one tool's params.
//
//	Idle --Open--> AwaitingToolInfo --catalog ok--> ConfiguringParams
//	AwaitingToolInfo --catalog error--> Idle
//	ConfiguringParams --Set--> ConfiguringParams
//	ConfiguringParams --Save--> Idle
//	any --Cancel--> Idle
type Editor struct {
	mu     sync.Mutex
	state  State
	tool   string
	info   *models.ToolInfo
	params map[string]any
}

func NewEditor() *Editor {
	return &Editor{}
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Open starts editing tool, seeding params from the catalog defaults and the
// values already saved on the agent. The catalog is queried without the lock.
func (e *Editor) Open(ctx context.Context, catalog Catalog, tool string, saved map[string]any) error {
	e.mu.Lock()
	if e.state != StateIdle {
		defer e.mu.Unlock()
		return fmt.Errorf("%w: open while %s", ErrInvalidTransition, e.state)
	}
	e.state = StateAwaitingToolInfo
	e.tool = tool
	e.mu.Unlock()

	info, err := findTool(ctx, catalog, tool)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateAwaitingToolInfo || e.tool != tool {
		// cancelled while the catalog was loading
		return fmt.Errorf("%w: editor was reset while loading %s", ErrInvalidTransition, tool)
	}
	if err != nil {
		e.reset()
		return err
	}
	e.info = info
	e.params = MergeParams(info.Params, saved)
	e.state = StateConfiguringParams
	return nil
}

// Set updates one param. Only params declared by the catalog are accepted.
func (e *Editor) Set(name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateConfiguringParams {
		return fmt.Errorf("%w: set while %s", ErrInvalidTransition, e.state)
	}
	if _, ok := e.params[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	e.params[name] = value
	return nil
}

// Save validates the params and returns the resulting binding. The editor
// returns to Idle only when the save succeeds.
func (e *Editor) Save() (models.ToolBinding, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateConfiguringParams {
		return models.ToolBinding{}, fmt.Errorf("%w: save while %s", ErrInvalidTransition, e.state)
	}
	if missing := MissingRequired(e.info.Params, e.params); len(missing) > 0 {
		return models.ToolBinding{}, &MissingParamsError{Tool: e.tool, Missing: missing}
	}
	binding := Binding(*e.info, e.params)
	e.reset()
	return binding, nil
}

// Cancel discards any pending edit.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{State: e.state.String(), Tool: e.tool}
	if e.info != nil {
		info := *e.info
		s.Info = &info
		s.Schema = append([]models.ToolParam(nil), e.info.Params...)
	}
	s.Params = models.CloneParams(e.params)
	return s
}

func (e *Editor) reset() {
	e.state = StateIdle
	e.tool = ""
	e.info = nil
	e.params = nil
}

func findTool(ctx context.Context, catalog Catalog, name string) (*models.ToolInfo, error) {
	tools, err := catalog.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tool catalog: %w", err)
	}
	for i := range tools {
		if tools[i].Name == name {
			info := tools[i]
			return &info, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
}

// Editors keeps one editor per agent and tool.
type Editors struct {
	mu      sync.Mutex
	editors map[string]*Editor
}

func NewEditors() *Editors {
	return &Editors{editors: make(map[string]*Editor)}
}

// For returns the editor for agentID/tool, creating it on first use.
func (r *Editors) For(agentID, tool string) *Editor {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := agentID + "/" + tool
	ed, ok := r.editors[key]
	if !ok {
		ed = NewEditor()
		r.editors[key] = ed
	}
	return ed
}

// Release drops an idle editor.
func (r *Editors) Release(agentID, tool string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := agentID + "/" + tool
	if ed, ok := r.editors[key]; ok && ed.State() == StateIdle {
		delete(r.editors, key)
	}
}
