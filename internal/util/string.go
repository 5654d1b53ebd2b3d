// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TruncateWidth truncates a string to a maximum display width, counting
// wide (CJK, emoji) characters as two columns. "..." marks truncation.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// SingleLine collapses every whitespace run, newlines included, to a space.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Preview renders s on one line within maxWidth columns.
func Preview(s string, maxWidth int) string {
	return TruncateWidth(SingleLine(s), maxWidth)
}
