// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package editor provides the terminal host: a bubbletea textarea whose text
// is scanned for slash commands after every key, with the pending
// suggestion drawn in a box below it.
package editor

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/slashwrite/internal/commands"
	"github.com/jeranaias/slashwrite/internal/suggest"
	"github.com/jeranaias/slashwrite/internal/ui/styles"
	"github.com/jeranaias/slashwrite/internal/util"
)

// maxCompletions caps the hint line.
const maxCompletions = 4

// =============================================================================
// MESSAGES
// =============================================================================

// resolutionMsg carries a finished fetch back to Update.
type resolutionMsg suggest.Resolution

// =============================================================================
// MODEL
// =============================================================================

// Options configures the editor.
type Options struct {
	Transformer suggest.Transformer
	Parser      *commands.Parser
	Keys        suggest.Keys
	Recorder    suggest.Recorder
	Logger      *zap.Logger
	Theme       *styles.Theme

	// Context bounds every fetch started by the editor
	Context context.Context

	// Backend is shown in the header
	Backend string

	// InitialText seeds the editor
	InitialText string
}

// Model is the bubbletea model for the terminal editor.
type Model struct {
	theme     *styles.Theme
	input     *textarea.Model
	surface   *textareaSurface
	box       *suggestionBox
	lc        *suggest.Lifecycle
	completer *commands.Completer
	ctx       context.Context
	backend   string
	logger    *zap.Logger

	width  int
	height int
}

// New creates the editor model.
func New(opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Parser == nil {
		opts.Parser = commands.NewParser()
	}

	ta := textarea.New()
	ta.Placeholder = "Type text, then a command such as /ai or /s ... /e /translate Spanish"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Prompt = ""
	ta.SetValue(opts.InitialText)
	ta.Focus()

	box := &suggestionBox{}
	lcOpts := []suggest.Option{
		suggest.WithParser(opts.Parser),
		suggest.WithKeys(opts.Keys),
		suggest.WithLogger(opts.Logger),
	}
	if opts.Recorder != nil {
		lcOpts = append(lcOpts, suggest.WithRecorder(opts.Recorder))
	}

	return Model{
		theme:     opts.Theme,
		input:     &ta,
		surface:   &textareaSurface{id: "terminal", input: &ta},
		box:       box,
		lc:        suggest.NewLifecycle(opts.Transformer, box, lcOpts...),
		completer: commands.NewCompleter(opts.Parser.Registry()),
		ctx:       opts.Context,
		backend:   opts.Backend,
		logger:    opts.Logger,
		width:     80,
		height:    24,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.scan())
}

// Value returns the editor text.
func (m Model) Value() string {
	return m.input.Value()
}

// State returns the suggestion lifecycle state.
func (m Model) State() suggest.State {
	return m.lc.State()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case resolutionMsg:
		if m.lc.Resolve(suggest.Resolution(msg)) {
			m.logger.Debug("suggestion ready", zap.Uint64("request_id", msg.RequestID))
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	*m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey runs the key through the lifecycle before the textarea sees it,
// then rescans the text the way a browser key-up would.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	out := m.lc.KeyDown(DOMKey(msg))

	var cmds []tea.Cmd
	if !out.PreventDefault {
		var cmd tea.Cmd
		*m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, m.scan())
	return m, tea.Batch(cmds...)
}

// scan rescans the textarea and returns the fetch command, if any.
func (m Model) scan() tea.Cmd {
	fetch, ok := m.lc.TextChanged(m.surface)
	if !ok {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return resolutionMsg(fetch.Run(ctx))
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.theme.SetSize(width, height)

	// header + hint line + borders, and room for the suggestion box
	editorHeight := height - 4 - height/3
	if editorHeight < 3 {
		editorHeight = 3
	}
	m.input.SetWidth(max(width-4, 10))
	m.input.SetHeight(editorHeight)
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	sections := []string{
		m.viewHeader(),
		m.theme.EditorFocused.Render(m.input.View()),
	}
	if m.box.visible() {
		sections = append(sections, m.viewSuggestion())
	}
	sections = append(sections, m.viewHints())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewHeader() string {
	title := m.theme.HeaderTitle.Render("slashwrite")
	if m.backend == "" {
		return m.theme.Header.Render(title)
	}
	return m.theme.Header.Render(title + "  " + m.theme.HeaderSubtitle.Render(m.backend))
}

func (m Model) viewSuggestion() string {
	keys := m.lc.Keys()
	width := max(m.width-4, 10)
	maxLines := max(m.height/3-2, 1)

	lines := strings.Split(m.box.text, "\n")
	if len(lines) > maxLines {
		lines = append(lines[:maxLines-1], "...")
	}
	for i, line := range lines {
		lines[i] = util.TruncateWidth(line, width-2)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.SuggestionTitle.Render("Suggestion"),
		m.theme.SuggestionText.Render(strings.Join(lines, "\n")),
		m.theme.ShortcutKey.Render(keys.Accept)+m.theme.ShortcutDesc.Render(" accept  ")+
			m.theme.ShortcutKey.Render(keys.Reject)+m.theme.ShortcutDesc.Render(" reject"),
	)
	return m.theme.SuggestionBox.Width(width).Render(body)
}

func (m Model) viewHints() string {
	state := m.lc.State()
	var badge string
	switch state {
	case suggest.StatePendingFetch:
		badge = m.theme.StatePending.Render(styles.StatusIndicators.Pending + " " + state.String())
	case suggest.StateReady:
		badge = m.theme.StateReady.Render(styles.StatusIndicators.Active + " " + state.String())
	default:
		badge = m.theme.StateIdle.Render(state.String())
	}

	hints := m.completionHints()
	if hints == "" {
		hints = m.theme.ShortcutKey.Render("ctrl+c") + m.theme.ShortcutDesc.Render(" quit")
	}
	return m.theme.HintBar.Width(m.width).Render(badge + "  " + hints)
}

// completionHints lists keywords matching the trailing slash token.
func (m Model) completionHints() string {
	comps := m.completer.Complete(m.input.Value())
	if len(comps) == 0 {
		return ""
	}
	if len(comps) > maxCompletions {
		comps = comps[:maxCompletions]
	}

	descWidth := 24
	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		descWidth = 0
	}
	parts := make([]string, 0, len(comps))
	for _, c := range comps {
		part := m.theme.Keyword.Render(c.Value)
		if descWidth > 0 && c.Description != "" {
			part += m.theme.ShortcutDesc.Render(" " + util.TruncateWidth(c.Description, descWidth))
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "  ")
}
