// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package browser hosts the suggestion lifecycle inside a Chrome page over
// the DevTools protocol.
//
// A small script is injected into every document. It tags each editing
// element it sees with a stable id, queues its key and input events, and
// cancels the accept key while a suggestion is showing for that element.
// The host drains the queue on an interval and feeds the events, in order,
// to a suggest.Loop. Surfaces read and write the live DOM; rich editors go
// through surface.Render and surface.Markup.
package browser
