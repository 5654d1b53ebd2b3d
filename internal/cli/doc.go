// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the slashwrite command tree.
//
// # Commands
//
//   - tui (default): terminal editor with inline suggestions
//   - browser: run suggestions inside a Chrome page
//   - parse: show how a text would be parsed
//   - apply: transform the command at the end of a text and print the result
//   - key set|clear|status: manage the API key file
//   - config show|path|init: inspect or create the config file
//   - history: list recent suggestion outcomes
//   - version
//
// Every command accepts --json for machine-readable output, --config to
// select a config file and --verbose for debug logging. Logs go to the log
// file, never to the terminal.
package cli
