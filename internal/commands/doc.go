// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the inline slash command grammar.
//
// A command is recognized only at the end of the text (trailing whitespace
// is ignored) and keyword matching is case-insensitive. Three forms are
// tried in order; the first that matches wins.
//
// # Forms
//
//   - Block: "/start <text> /end /ai", "/s <text> /e /translate Spanish".
//     Replaces only the block, so surrounding text survives.
//   - Suffix: "<text>/ai", "<text> /elaborate". Replaces the whole text.
//     Translate is not accepted here.
//   - Delimited: "<text> /translate French/" (closing "/", "/e" or "/end").
//     Replaces from the keyword to the end.
//
// # Usage
//
//	cmd, ok := commands.Parse(text)
//	if ok {
//	    proposed := cmd.Apply(text, transformed)
//	}
package commands
