// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/slashwrite/internal/suggest"
	"github.com/jeranaias/slashwrite/internal/transform"
)

type upper struct{}

func (upper) Dispatch(_ context.Context, req transform.Request) string {
	return strings.ToUpper(req.Source)
}

func newTestModel(text string) Model {
	m := New(Options{
		Transformer: upper{},
		InitialText: text,
		Backend:     "test",
	})
	// A blinking cursor hands back commands that sleep.
	m.input.Cursor.SetMode(cursor.CursorStatic)
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends msg and executes any fetch it starts, the way the bubbletea
// runtime would, returning the updated model.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for _, res := range collect(cmd) {
		next, _ = m.Update(res)
		m = next.(Model)
	}
	return m
}

// collect runs cmd and returns the resolution messages it yields.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch msg := msg.(type) {
	case resolutionMsg:
		return []tea.Msg{msg}
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	}
	return nil
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		if r == ' ' {
			m = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		m = press(t, m, runes(string(r)))
	}
	return m
}

func TestEditor_TypeCommandAndAccept(t *testing.T) {
	m := newTestModel("")
	m = typeText(t, m, "hello there /ai")

	require.Equal(t, suggest.StateReady, m.State())
	assert.Contains(t, m.View(), "HELLO THERE")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "HELLO THERE", m.Value(), "accept replaces the text and the tab is not inserted")
	assert.Equal(t, suggest.StateIdle, m.State())
	assert.NotContains(t, m.View(), "Suggestion")
}

func TestEditor_EscapeRejects(t *testing.T) {
	m := newTestModel("")
	m = typeText(t, m, "keep /ai")
	require.Equal(t, suggest.StateReady, m.State())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "keep /ai", m.Value())
	assert.Equal(t, suggest.StateIdle, m.State())

	// Moving the cursor afterwards does not bring the suggestion back.
	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, suggest.StateIdle, m.State())
}

func TestEditor_TypingRejects(t *testing.T) {
	m := newTestModel("")
	m = typeText(t, m, "draft /ai")
	require.Equal(t, suggest.StateReady, m.State())

	m = press(t, m, runes("x"))
	assert.Equal(t, "draft /aix", m.Value())
	assert.Equal(t, suggest.StateIdle, m.State())
}

func TestEditor_InitialTextIsScanned(t *testing.T) {
	m := newTestModel("/s from start /e /elaborate")
	for _, msg := range collect(m.Init()) {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	assert.Equal(t, suggest.StateReady, m.State())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "FROM START", m.Value())
}

func TestEditor_CompletionHints(t *testing.T) {
	m := newTestModel("")
	m = press(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m = typeText(t, m, "note /tr")
	assert.Contains(t, m.View(), "/translate")
}

func TestEditor_CtrlCQuits(t *testing.T) {
	m := newTestModel("")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestDOMKey(t *testing.T) {
	tests := []struct {
		msg  tea.KeyMsg
		want string
	}{
		{tea.KeyMsg{Type: tea.KeyTab}, suggest.KeyTab},
		{tea.KeyMsg{Type: tea.KeyEsc}, suggest.KeyEscape},
		{tea.KeyMsg{Type: tea.KeyEnter}, suggest.KeyEnter},
		{tea.KeyMsg{Type: tea.KeyShiftLeft}, suggest.KeyArrowLeft},
		{tea.KeyMsg{Type: tea.KeyBackspace}, "Backspace"},
		{runes("a"), "a"},
		{runes("paste"), "Unidentified"},
		{tea.KeyMsg{Type: tea.KeyCtrlA}, "ctrl+a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DOMKey(tt.msg), tt.msg.String())
	}
}
