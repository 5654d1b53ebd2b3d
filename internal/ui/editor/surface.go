// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	"github.com/charmbracelet/bubbles/textarea"
)

// textareaSurface exposes the editor's textarea as a suggestion surface.
// It is only touched from the bubbletea update goroutine.
type textareaSurface struct {
	id    string
	input *textarea.Model
}

func (s *textareaSurface) ID() string { return s.id }

func (s *textareaSurface) ReadText() (string, error) {
	return s.input.Value(), nil
}

func (s *textareaSurface) WriteText(text string) error {
	s.input.SetValue(text)
	s.input.CursorEnd()
	return nil
}
