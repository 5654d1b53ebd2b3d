// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package suggest

// DOM key names used by the lifecycle.
const (
	KeyTab        = "Tab"
	KeyEscape     = "Escape"
	KeyEnter      = "Enter"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyShift      = "Shift"
	KeyControl    = "Control"
	KeyAlt        = "Alt"
	KeyMeta       = "Meta"
	KeyCapsLock   = "CapsLock"
)

// navigationKeys never count as typing.
var navigationKeys = map[string]struct{}{
	KeyArrowLeft:  {},
	KeyArrowRight: {},
	KeyArrowUp:    {},
	KeyArrowDown:  {},
	KeyShift:      {},
	KeyControl:    {},
	KeyAlt:        {},
	KeyMeta:       {},
	KeyCapsLock:   {},
	KeyEnter:      {},
}

// Keys holds the accept and reject keys.
type Keys struct {
	Accept string
	Reject string
}

// DefaultKeys returns Tab to accept and Escape to reject.
func DefaultKeys() Keys {
	return Keys{Accept: KeyTab, Reject: KeyEscape}
}

// Reserved reports whether key is a navigation, modifier, accept or reject
// key. Any other key is ordinary typing.
func (k Keys) Reserved(key string) bool {
	if key == k.Accept || key == k.Reject {
		return true
	}
	_, ok := navigationKeys[key]
	return ok
}
