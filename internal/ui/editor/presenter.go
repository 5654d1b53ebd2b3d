// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	"github.com/jeranaias/slashwrite/internal/suggest"
)

// suggestionBox is the terminal Presenter: it remembers what to draw below
// the editor. View renders it.
type suggestionBox struct {
	seq     int
	current int
	text    string
}

func (b *suggestionBox) Show(_ suggest.Surface, text string) suggest.Handle {
	b.seq++
	b.current = b.seq
	b.text = text
	return b.seq
}

func (b *suggestionBox) Hide(h suggest.Handle) {
	if id, ok := h.(int); ok && id == b.current {
		b.current = 0
		b.text = ""
	}
}

func (b *suggestionBox) visible() bool {
	return b.current != 0
}
