// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transform routes a parsed command to a completion backend.
//
// Dispatch never fails: a missing credential, a throttled or cancelled wait,
// a backend error and an empty completion all return the source text
// unchanged. Failures are logged at warn level and a missing credential at
// debug level, which is the only way to tell them from a service that echoed
// its input.
package transform
