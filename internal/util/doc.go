// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across slashwrite.
//
// String helpers are display-width aware (go-runewidth) so suggestion
// previews fit their boxes:
//
//	line := util.Preview(suggestion, 40)
//
// File helpers write config and key files crash-safely:
//
//	err := util.AtomicWriteFileWithDir(path, data, 0600, 0700)
package util
