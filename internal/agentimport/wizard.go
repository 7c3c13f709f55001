package agentimport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

// Step is a page of the import wizard.
type Step string

const (
	StepModel  Step = "model"
	StepFields Step = "fields"
	StepMcp    Step = "mcp"
	StepDone   Step = "done"
)

var (
	// ErrNoNextStep is returned by Next on the last step; use Submit instead.
	ErrNoNextStep = errors.New("already on the last step")

	// ErrSubmitInProgress is returned while a submission is in flight.
	ErrSubmitInProgress = errors.New("import submission already in progress")

	// ErrAlreadySubmitted is returned once the session has been imported.
	ErrAlreadySubmitted = errors.New("import already submitted")
)

// ValidationError explains why a step cannot be left yet.
type ValidationError struct {
	Step    Step
	Message string
	Missing []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("%s step: %s", e.Step, e.Message)
	}
	return fmt.Sprintf("%s step: %s: %s", e.Step, e.Message, strings.Join(e.Missing, ", "))
}

// Platform is the set of platform operations a wizard session calls.
type Platform interface {
	McpRegistrar
	RefreshNotifier
	ImportAgent(ctx context.Context, doc *models.AgentImportDocument, opts models.ImportOptions) error
}

// SubmitOptions are passed through to the import call.
type SubmitOptions struct {
	ForceImport bool
}

// Session is one run of the import wizard over an immutable source document.
type Session struct {
	mu         sync.Mutex
	source     *models.AgentImportDocument
	fields     []ConfigField
	steps      []Step
	step       Step
	assignment *ModelAssignment
	store      *FieldStore
	installer  *Installer
	platform   Platform
	logger     *slog.Logger

	submitting bool
	lastError  string
}

// NewSession derives the wizard state from doc. registered is the platform's
// current MCP server list and decides which references count as installed.
func NewSession(doc *models.AgentImportDocument, registered []models.McpServerRecord, platform Platform, logger *slog.Logger) (*Session, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: no document", models.ErrMalformedDocument)
	}
	if platform == nil {
		return nil, errors.New("platform is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	source := doc.Clone()
	source.Normalize()

	fields := ParseConfigFields(source)
	mcpStates := ParseMcpServers(source, registered)

	steps := []Step{StepModel}
	if len(fields) > 0 {
		steps = append(steps, StepFields)
	}
	if len(mcpStates) > 0 {
		steps = append(steps, StepMcp)
	}

	return &Session{
		source:     source,
		fields:     fields,
		steps:      steps,
		step:       StepModel,
		assignment: NewModelAssignment(source.AgentInfo.Keys()),
		store:      NewFieldStore(fields),
		installer:  NewInstaller(mcpStates, platform, platform, logger),
		platform:   platform,
		logger:     logger,
	}, nil
}

// Source returns a copy of the document the session was opened with.
func (s *Session) Source() *models.AgentImportDocument {
	return s.source.Clone()
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Steps lists the steps this document needs, in order.
func (s *Session) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// Fields returns the placeholder fields in document order.
func (s *Session) Fields() []ConfigField {
	out := make([]ConfigField, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Session) SetMode(mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.assignment.SetMode(mode)
}

func (s *Session) SetUnifiedModel(slot ModelSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.assignment.SetUnified(slot)
}

func (s *Session) SetAgentModel(agentKey string, slot ModelSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.assignment.SetAgent(agentKey, slot)
}

// SetField stores the value for one resolution key.
func (s *Session) SetField(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.store.Set(key, value)
}

// EditMcpURL changes the URL of one MCP reference.
func (s *Session) EditMcpURL(index int, url string) error {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.installer.EditURL(index, url)
}

// InstallMcp registers one MCP reference on the platform. It does not hold
// the session lock, so other references and steps stay usable meanwhile.
func (s *Session) InstallMcp(ctx context.Context, index int) error {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.installer.Install(ctx, index)
}

// McpStates returns a snapshot of every MCP reference.
func (s *Session) McpStates() []McpInstallState {
	return s.installer.States()
}

// WaitForRefreshes blocks until post-install refreshes have completed.
func (s *Session) WaitForRefreshes() {
	s.installer.Wait()
}

// Next validates the current step and moves to the following one.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	pos := s.position()
	if pos == len(s.steps)-1 {
		return ErrNoNextStep
	}
	if err := s.validate(s.step); err != nil {
		return err
	}
	s.step = s.steps[pos+1]
	return nil
}

// Back returns to the previous step; on the first step it does nothing.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if pos := s.position(); pos > 0 {
		s.step = s.steps[pos-1]
	}
	return nil
}

// Validate checks a single step without moving.
func (s *Session) Validate(step Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validate(step)
}

// Preview assembles the document as it would be submitted now.
func (s *Session) Preview() *models.AgentImportDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Assemble(s.source, s.assignment, s.store, s.fields, s.installer.States())
}

// Submit validates every step, assembles the document and imports it. If a
// step is incomplete the session moves to it and a *ValidationError is
// returned. A failed import leaves the session open for another attempt.
func (s *Session) Submit(ctx context.Context, opts SubmitOptions) (*models.AgentImportDocument, error) {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	for _, step := range s.steps {
		if err := s.validate(step); err != nil {
			s.step = step
			s.mu.Unlock()
			return nil, err
		}
	}
	out := Assemble(s.source, s.assignment, s.store, s.fields, s.installer.States())
	s.submitting = true
	s.lastError = ""
	s.mu.Unlock()

	err := s.platform.ImportAgent(ctx, out, models.ImportOptions{ForceImport: opts.ForceImport})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		s.lastError = err.Error()
		s.logger.Warn("agent import failed", "agent_id", string(s.source.AgentID), "error", err)
		return nil, fmt.Errorf("failed to import agent: %w", err)
	}
	s.step = StepDone
	s.logger.Info("agent imported", "agent_id", string(s.source.AgentID), "agents", out.AgentInfo.Len())
	return out, nil
}

// SessionView is a serialisable snapshot of a session.
type SessionView struct {
	Step        Step              `json:"step"`
	Steps       []Step            `json:"steps"`
	Assignment  AssignmentView    `json:"assignment"`
	Fields      []ConfigField     `json:"fields"`
	FieldValues map[string]string `json:"fieldValues"`
	McpServers  []McpInstallState `json:"mcpServers"`
	CanProceed  bool              `json:"canProceed"`
	Submitting  bool              `json:"submitting"`
	Submitted   bool              `json:"submitted"`
	LastError   string            `json:"lastError,omitempty"`
}

// View returns a snapshot of the whole session.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := SessionView{
		Step:        s.step,
		Steps:       append([]Step(nil), s.steps...),
		Assignment:  s.assignment.View(),
		Fields:      append([]ConfigField{}, s.fields...),
		FieldValues: s.store.Values(),
		McpServers:  s.installer.States(),
		Submitting:  s.submitting,
		Submitted:   s.step == StepDone,
		LastError:   s.lastError,
	}
	if s.step != StepDone {
		v.CanProceed = s.validate(s.step) == nil
	}
	return v
}

func (s *Session) checkOpen() error {
	if s.step == StepDone {
		return ErrAlreadySubmitted
	}
	return nil
}

func (s *Session) position() int {
	for i, step := range s.steps {
		if step == s.step {
			return i
		}
	}
	return 0
}

func (s *Session) validate(step Step) error {
	switch step {
	case StepModel:
		if !s.assignment.CanProceed() {
			return &ValidationError{Step: step, Message: "select a model", Missing: s.assignment.Missing()}
		}
	case StepFields:
		if missing := s.store.Missing(); len(missing) > 0 {
			return &ValidationError{Step: step, Message: "fill in every required field", Missing: missing}
		}
	case StepMcp:
		if pending := s.installer.Pending(); len(pending) > 0 {
			names := make([]string, 0, len(pending))
			states := s.installer.States()
			for _, i := range pending {
				names = append(names, mcpLabel(states[i]))
			}
			return &ValidationError{Step: step, Message: "install or provide a URL for every MCP server", Missing: names}
		}
	}
	return nil
}

func mcpLabel(s McpInstallState) string {
	if s.Name != "" {
		return s.Name
	}
	return "#" + strconv.Itoa(s.Index)
}
