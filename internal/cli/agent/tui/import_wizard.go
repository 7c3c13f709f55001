package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"

	"github.com/agentregistry-dev/agentconsole/internal/agentimport"
	"github.com/agentregistry-dev/agentconsole/internal/cli/agent/tui/theme"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

const defaultWidth = 80

var stepTitles = map[agentimport.Step]string{
	agentimport.StepModel:  "Model",
	agentimport.StepFields: "Configuration",
	agentimport.StepMcp:    "MCP servers",
}

type installDoneMsg struct {
	index int
	err   error
}

type submitDoneMsg struct {
	doc *models.AgentImportDocument
	err error
}

// ImportWizard walks an import session through its steps in the terminal.
// Every change is written to the session immediately; the wizard only keeps
// cursor and focus state.
type ImportWizard struct {
	ctx     context.Context
	session *agentimport.Session
	opts    agentimport.SubmitOptions

	width  int
	height int

	ok     bool
	result *models.AgentImportDocument
	errMsg string
	// busy blocks input while the import is submitted.
	busy string

	// model step
	modelOptions []models.ModelOption
	modelList    list.Model
	agentKeys    []string
	agentLabels  map[string]string
	agentCursor  int

	// fields step
	fields []agentimport.ConfigField
	inputs []textinput.Model
	focus  int

	// mcp step
	mcpCursor  int
	urlInput   textinput.Model
	editingURL bool
	// installing marks references whose install command has been issued and
	// not yet reported back.
	installing map[int]bool
}

// NewImportWizard builds a wizard over session. options is the platform's
// model list; only selectable models are offered.
func NewImportWizard(ctx context.Context, session *agentimport.Session, options []models.ModelOption, opts agentimport.SubmitOptions) *ImportWizard {
	source := session.Source()
	w := &ImportWizard{
		ctx:          ctx,
		session:      session,
		opts:         opts,
		width:        defaultWidth,
		modelOptions: agentimport.SelectableModels(options),
		agentKeys:    source.AgentInfo.Keys(),
		agentLabels:  map[string]string{},
		fields:       session.Fields(),
		installing:   map[int]bool{},
	}
	for _, key := range w.agentKeys {
		w.agentLabels[key] = agentimport.AgentLabel(key, source.AgentInfo.Get(key))
	}

	items := make([]list.Item, len(w.modelOptions))
	for i, opt := range w.modelOptions {
		items[i] = choiceItem{label: agentimport.SlotFor(opt).ModelName}
	}
	ml := list.New(items, choiceDelegate{}, 50, 10)
	ml.Title = "Choose a model"
	ml.SetShowStatusBar(false)
	ml.SetShowHelp(false)
	ml.SetFilteringEnabled(false)
	ml.DisableQuitKeybindings()
	ml.Styles.Title = lipgloss.NewStyle().Bold(true)
	w.modelList = ml

	values := session.View().FieldValues
	w.inputs = make([]textinput.Model, len(w.fields))
	for i, f := range w.fields {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.CharLimit = 0
		ti.Width = 60
		ti.SetValue(values[f.Key])
		w.inputs[i] = ti
	}

	w.urlInput = textinput.New()
	w.urlInput.Prompt = "> "
	w.urlInput.Placeholder = "https://"
	w.urlInput.Width = 60

	w.preselectModel()
	w.enterStep()
	return w
}

// Ok reports whether the import was submitted.
func (w *ImportWizard) Ok() bool { return w.ok }

// Result is the document that was imported, or nil.
func (w *ImportWizard) Result() *models.AgentImportDocument { return w.result }

func (w *ImportWizard) Init() tea.Cmd { return nil }

// Update routes messages to the active step.
func (w *ImportWizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		w.width, w.height = m.Width, m.Height
		w.modelList.SetSize(max(40, m.Width-10), max(6, m.Height-14))
		return w, nil
	case installDoneMsg:
		delete(w.installing, m.index)
		if m.err != nil {
			w.errMsg = m.err.Error()
		}
		return w, nil
	case submitDoneMsg:
		return w, w.onSubmitted(m)
	case tea.KeyMsg:
		if m.Type == tea.KeyCtrlC {
			return w, tea.Quit
		}
		if w.busy != "" {
			return w, nil
		}
		if m.Type == tea.KeyEsc {
			return w, w.onEsc()
		}
		switch w.session.Step() {
		case agentimport.StepModel:
			return w, w.updateModel(m)
		case agentimport.StepFields:
			return w, w.updateFields(m)
		case agentimport.StepMcp:
			return w, w.updateMcp(m)
		}
	}
	return w, nil
}

func (w *ImportWizard) onEsc() tea.Cmd {
	w.errMsg = ""
	if w.editingURL {
		w.editingURL = false
		w.urlInput.Blur()
		return nil
	}
	steps := w.session.Steps()
	if w.session.Step() == steps[0] {
		return tea.Quit
	}
	if err := w.session.Back(); err != nil {
		w.errMsg = err.Error()
		return nil
	}
	w.enterStep()
	return nil
}

// advance moves to the next step, or submits from the last one.
func (w *ImportWizard) advance() tea.Cmd {
	w.errMsg = ""
	err := w.session.Next()
	switch {
	case err == nil:
		w.enterStep()
		return nil
	case errors.Is(err, agentimport.ErrNoNextStep):
		return w.submit()
	default:
		w.errMsg = err.Error()
		return nil
	}
}

func (w *ImportWizard) submit() tea.Cmd {
	w.busy = "Importing agent..."
	session, ctx, opts := w.session, w.ctx, w.opts
	return func() tea.Msg {
		doc, err := session.Submit(ctx, opts)
		return submitDoneMsg{doc: doc, err: err}
	}
}

func (w *ImportWizard) onSubmitted(m submitDoneMsg) tea.Cmd {
	w.busy = ""
	if m.err != nil {
		w.errMsg = m.err.Error()
		// a validation failure moved the session to the incomplete step
		w.enterStep()
		return nil
	}
	w.ok = true
	w.result = m.doc
	return tea.Quit
}

// enterStep resets focus for whatever step the session is on.
func (w *ImportWizard) enterStep() {
	for i := range w.inputs {
		w.inputs[i].Blur()
	}
	switch w.session.Step() {
	case agentimport.StepModel:
		w.agentCursor = 0
	case agentimport.StepFields:
		if len(w.inputs) > 0 {
			w.focus = min(w.focus, len(w.inputs)-1)
			_ = w.inputs[w.focus].Focus()
		}
	case agentimport.StepMcp:
		if states := w.session.McpStates(); w.mcpCursor >= len(states) {
			w.mcpCursor = 0
		}
	}
}

func (w *ImportWizard) preselectModel() {
	slot := w.session.View().Assignment.Unified
	if slot.ModelID == nil {
		return
	}
	for i, opt := range w.modelOptions {
		if opt.ID == *slot.ModelID {
			w.modelList.Select(i)
			return
		}
	}
}

func (w *ImportWizard) mode() agentimport.Mode {
	return w.session.View().Assignment.Mode
}

func (w *ImportWizard) updateModel(m tea.KeyMsg) tea.Cmd {
	switch m.Type {
	case tea.KeyTab:
		next := agentimport.ModeIndividual
		if w.mode() == agentimport.ModeIndividual {
			next = agentimport.ModeUnified
		}
		if err := w.session.SetMode(next); err != nil {
			w.errMsg = err.Error()
		}
		w.agentCursor = 0
		return nil
	case tea.KeyEnter:
		return w.chooseModel()
	}
	var cmd tea.Cmd
	w.modelList, cmd = w.modelList.Update(m)
	return cmd
}

func (w *ImportWizard) chooseModel() tea.Cmd {
	w.errMsg = ""
	idx := w.modelList.Index()
	if idx < 0 || idx >= len(w.modelOptions) {
		w.errMsg = "no model is available on the platform"
		return nil
	}
	slot := agentimport.SlotFor(w.modelOptions[idx])
	if w.mode() == agentimport.ModeUnified {
		if err := w.session.SetUnifiedModel(slot); err != nil {
			w.errMsg = err.Error()
			return nil
		}
		return w.advance()
	}
	if len(w.agentKeys) == 0 {
		return w.advance()
	}

	if err := w.session.SetAgentModel(w.agentKeys[w.agentCursor], slot); err != nil {
		w.errMsg = err.Error()
		return nil
	}
	w.agentCursor++
	if w.agentCursor < len(w.agentKeys) {
		return nil
	}
	w.agentCursor = len(w.agentKeys) - 1
	return w.advance()
}

func (w *ImportWizard) updateFields(m tea.KeyMsg) tea.Cmd {
	if len(w.inputs) == 0 {
		if m.Type == tea.KeyEnter {
			return w.advance()
		}
		return nil
	}
	switch m.Type {
	case tea.KeyTab, tea.KeyDown:
		w.moveFocus(1)
		return nil
	case tea.KeyShiftTab, tea.KeyUp:
		w.moveFocus(-1)
		return nil
	case tea.KeyEnter:
		if w.focus < len(w.inputs)-1 {
			w.moveFocus(1)
			return nil
		}
		return w.advance()
	}

	var cmd tea.Cmd
	w.inputs[w.focus], cmd = w.inputs[w.focus].Update(m)
	if err := w.session.SetField(w.fields[w.focus].Key, w.inputs[w.focus].Value()); err != nil {
		w.errMsg = err.Error()
	}
	return cmd
}

func (w *ImportWizard) moveFocus(delta int) {
	w.inputs[w.focus].Blur()
	w.focus = (w.focus + delta + len(w.inputs)) % len(w.inputs)
	_ = w.inputs[w.focus].Focus()
}

func (w *ImportWizard) updateMcp(m tea.KeyMsg) tea.Cmd {
	states := w.session.McpStates()
	if w.editingURL {
		if m.Type == tea.KeyEnter {
			w.editingURL = false
			w.urlInput.Blur()
			if err := w.session.EditMcpURL(w.mcpCursor, w.urlInput.Value()); err != nil {
				w.errMsg = err.Error()
			}
			return nil
		}
		var cmd tea.Cmd
		w.urlInput, cmd = w.urlInput.Update(m)
		return cmd
	}

	switch m.String() {
	case "up", "k":
		if w.mcpCursor > 0 {
			w.mcpCursor--
		}
	case "down", "j":
		if w.mcpCursor < len(states)-1 {
			w.mcpCursor++
		}
	case "e":
		if len(states) == 0 {
			return nil
		}
		st := states[w.mcpCursor]
		if st.Installed {
			w.errMsg = fmt.Sprintf("%s is already installed", st.Name)
			return nil
		}
		w.errMsg = ""
		w.editingURL = true
		w.urlInput.SetValue(st.EditedURL)
		w.urlInput.CursorEnd()
		_ = w.urlInput.Focus()
	case "i":
		if len(states) == 0 {
			return nil
		}
		return w.install(states[w.mcpCursor])
	case "enter":
		return w.advance()
	}
	return nil
}

func (w *ImportWizard) install(st agentimport.McpInstallState) tea.Cmd {
	if st.Installed {
		w.errMsg = fmt.Sprintf("%s is already installed", st.Name)
		return nil
	}
	if st.Installing || w.installing[st.Index] {
		w.errMsg = fmt.Sprintf("%s is already being installed", st.Name)
		return nil
	}
	w.errMsg = ""
	w.installing[st.Index] = true
	session, ctx, index := w.session, w.ctx, st.Index
	return func() tea.Msg {
		return installDoneMsg{index: index, err: session.InstallMcp(ctx, index)}
	}
}

// View renders the current step.
func (w *ImportWizard) View() string {
	var body string
	switch w.session.Step() {
	case agentimport.StepModel:
		body = w.modelView()
	case agentimport.StepFields:
		body = w.fieldsView()
	case agentimport.StepMcp:
		body = w.mcpView()
	}
	parts := []string{w.header(), "", body, "", w.footer()}
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (w *ImportWizard) header() string {
	steps := w.session.Steps()
	current := w.session.Step()
	pos := 1
	for i, s := range steps {
		if s == current {
			pos = i + 1
		}
	}
	return theme.HeadingStyle().Render(fmt.Sprintf("Import Agent  ·  Step %d/%d  ·  %s", pos, len(steps), stepTitles[current]))
}

func (w *ImportWizard) modelView() string {
	var sb strings.Builder
	unified, individual := "[unified]", "individual"
	if w.mode() == agentimport.ModeIndividual {
		unified, individual = "unified", "[individual]"
	}
	sb.WriteString(theme.StatusStyle().Render("Mode: ") + unified + " " + individual + "\n\n")

	if w.mode() == agentimport.ModeIndividual && len(w.agentKeys) == 0 {
		sb.WriteString(theme.StatusStyle().Render("The document has no agents to assign.") + "\n\n")
	}
	if w.mode() == agentimport.ModeIndividual {
		assignment := w.session.View().Assignment
		for i, key := range w.agentKeys {
			name := "-"
			if slot, ok := assignment.Agents[key]; ok && slot.Complete() {
				name = slot.ModelName
			}
			line := fmt.Sprintf("%s: %s", w.agentLabels[key], name)
			if i == w.agentCursor {
				line = theme.SelectedStyle().Render("> " + line)
			} else {
				line = "  " + line
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}
	if len(w.modelOptions) == 0 {
		sb.WriteString(theme.ErrorStyle().Render("No model is currently available on the platform."))
		return sb.String()
	}
	sb.WriteString(w.modelList.View())
	return sb.String()
}

func (w *ImportWizard) fieldsView() string {
	if len(w.fields) == 0 {
		return theme.StatusStyle().Render("Nothing to configure.")
	}
	width := w.contentWidth()
	var sb strings.Builder
	for _, group := range agentimport.GroupByAgent(w.fields) {
		if len(w.agentKeys) > 1 {
			sb.WriteString(theme.HeadingStyle().Render(w.agentLabels[group.AgentKey]) + "\n")
		}
		for _, f := range group.Fields {
			i := w.fieldIndex(f.Key)
			sb.WriteString(wordwrap.String(f.Label, width) + "\n")
			if f.HasHint() {
				sb.WriteString(RenderHint(f.HintText, width) + "\n")
			}
			sb.WriteString(w.inputs[i].View() + "\n\n")
		}
	}
	return sb.String()
}

func (w *ImportWizard) fieldIndex(key string) int {
	for i, f := range w.fields {
		if f.Key == key {
			return i
		}
	}
	return 0
}

func (w *ImportWizard) mcpView() string {
	states := w.session.McpStates()
	var sb strings.Builder
	for i, st := range states {
		status := theme.ErrorStyle().Render("not installed")
		switch {
		case st.Installed:
			status = theme.SuccessStyle().Render("installed")
		case st.Installing || w.installing[st.Index]:
			status = theme.StatusStyle().Render("installing...")
		}
		url := st.EffectiveURL()
		if url == "" {
			url = theme.StatusStyle().Render("(URL required)")
		}
		line := fmt.Sprintf("%s  %s  %s", st.Name, url, status)
		if i == w.mcpCursor {
			sb.WriteString(theme.SelectedStyle().Render("> "+line) + "\n")
		} else {
			sb.WriteString("  " + line + "\n")
		}
		if st.LastError != "" {
			sb.WriteString("    " + theme.ErrorStyle().Render(wordwrap.String(st.LastError, w.contentWidth()-4)) + "\n")
		}
	}
	if w.editingURL {
		sb.WriteString("\n" + theme.StatusStyle().Render("MCP URL: ") + w.urlInput.View() + "\n")
	}
	return sb.String()
}

func (w *ImportWizard) footer() string {
	var help string
	switch w.session.Step() {
	case agentimport.StepModel:
		help = "enter select · tab switch mode · esc back · ctrl+c quit"
	case agentimport.StepFields:
		help = "tab/shift+tab move · enter next · esc back · ctrl+c quit"
	case agentimport.StepMcp:
		help = "e edit URL · i install · enter import · esc back · ctrl+c quit"
	}
	out := theme.StatusStyle().Render(help)
	if w.busy != "" {
		out = theme.StatusStyle().Render(w.busy) + "\n" + out
	}
	if strings.TrimSpace(w.errMsg) != "" {
		out = theme.ErrorStyle().Render(wordwrap.String("Error: "+w.errMsg, w.contentWidth())) + "\n" + out
	}
	return out
}

func (w *ImportWizard) contentWidth() int {
	return max(20, w.width-6)
}

// RenderHint joins hint segments, turning link segments into OSC 8 terminal
// hyperlinks, and wraps the result to width.
func RenderHint(segments []agentimport.HintSegment, width int) string {
	var sb strings.Builder
	for _, seg := range segments {
		if !seg.IsLink() {
			sb.WriteString(theme.StatusStyle().Render(seg.Text))
			continue
		}
		sb.WriteString(ansi.SetHyperlink(seg.URL))
		sb.WriteString(theme.LinkStyle().Render(seg.Text))
		sb.WriteString(ansi.ResetHyperlink())
	}
	return ansi.Wordwrap(sb.String(), width, "")
}

// choice list items
type choiceItem struct{ label string }

func (i choiceItem) Title() string       { return i.label }
func (i choiceItem) Description() string { return "" }
func (i choiceItem) FilterValue() string { return i.label }

type choiceDelegate struct{}

func (d choiceDelegate) Height() int                             { return 1 }
func (d choiceDelegate) Spacing() int                            { return 0 }
func (d choiceDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d choiceDelegate) Render(w io.Writer, m list.Model, index int, it list.Item) {
	i, ok := it.(choiceItem)
	if !ok {
		return
	}
	str := fmt.Sprintf("%d. %s", index+1, i.Title())
	if index == m.Index() {
		_, _ = w.Write([]byte(theme.SelectedStyle().Render("> " + str)))
	} else {
		_, _ = w.Write([]byte(lipgloss.NewStyle().PaddingLeft(2).Render(str)))
	}
}
