// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package surface

import (
	"sync"
)

// =============================================================================
// FIELD
// =============================================================================

// Field is a plain value surface.
type Field struct {
	id    string
	mu    sync.RWMutex
	value string
}

// NewField creates a field holding value.
func NewField(id, value string) *Field {
	return &Field{id: id, value: value}
}

// ID returns the surface id.
func (f *Field) ID() string { return f.id }

// ReadText returns the value.
func (f *Field) ReadText() (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value, nil
}

// WriteText replaces the value.
func (f *Field) WriteText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = text
	return nil
}

// =============================================================================
// RICH TEXT
// =============================================================================

// RichText is a markup surface. Reads render the visible text; writes
// discard all formatting.
type RichText struct {
	id     string
	mu     sync.RWMutex
	markup string
}

// NewRichText creates a rich surface holding markup.
func NewRichText(id, markup string) *RichText {
	return &RichText{id: id, markup: markup}
}

// ID returns the surface id.
func (r *RichText) ID() string { return r.id }

// ReadText renders the markup to text.
func (r *RichText) ReadText() (string, error) {
	r.mu.RLock()
	markup := r.markup
	r.mu.RUnlock()
	return Render(markup)
}

// WriteText replaces the markup with text.
func (r *RichText) WriteText(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markup = Markup(text)
	return nil
}

// Markup returns the current markup.
func (r *RichText) Markup() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.markup
}
