// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/slashwrite/internal/suggest"
)

// domKeys maps terminal keys to DOM key names so one key policy serves both
// hosts. Shifted and ctrl-modified arrows still only move the cursor.
var domKeys = map[tea.KeyType]string{
	tea.KeyTab:            suggest.KeyTab,
	tea.KeyEsc:            suggest.KeyEscape,
	tea.KeyEnter:          suggest.KeyEnter,
	tea.KeyLeft:           suggest.KeyArrowLeft,
	tea.KeyRight:          suggest.KeyArrowRight,
	tea.KeyUp:             suggest.KeyArrowUp,
	tea.KeyDown:           suggest.KeyArrowDown,
	tea.KeyShiftLeft:      suggest.KeyArrowLeft,
	tea.KeyShiftRight:     suggest.KeyArrowRight,
	tea.KeyShiftUp:        suggest.KeyArrowUp,
	tea.KeyShiftDown:      suggest.KeyArrowDown,
	tea.KeyCtrlLeft:       suggest.KeyArrowLeft,
	tea.KeyCtrlRight:      suggest.KeyArrowRight,
	tea.KeyCtrlUp:         suggest.KeyArrowUp,
	tea.KeyCtrlDown:       suggest.KeyArrowDown,
	tea.KeyCtrlShiftLeft:  suggest.KeyArrowLeft,
	tea.KeyCtrlShiftRight: suggest.KeyArrowRight,
	tea.KeyCtrlShiftUp:    suggest.KeyArrowUp,
	tea.KeyCtrlShiftDown:  suggest.KeyArrowDown,
	tea.KeyBackspace:      "Backspace",
	tea.KeyDelete:         "Delete",
	tea.KeySpace:          " ",
	tea.KeyHome:           "Home",
	tea.KeyEnd:            "End",
	tea.KeyPgUp:           "PageUp",
	tea.KeyPgDown:         "PageDown",
	tea.KeyShiftTab:       suggest.KeyTab,
}

// DOMKey returns the DOM key name for a terminal key press.
func DOMKey(msg tea.KeyMsg) string {
	if name, ok := domKeys[msg.Type]; ok {
		return name
	}
	if msg.Type == tea.KeyRunes && len(msg.Runes) > 0 {
		if len(msg.Runes) == 1 && !msg.Alt {
			return string(msg.Runes)
		}
		// Pastes and alt chords are typing all the same.
		return "Unidentified"
	}
	return msg.String()
}
