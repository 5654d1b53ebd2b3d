// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package suggest implements the suggestion lifecycle: a single-slot state
// machine that turns recognized slash commands into one pending suggestion
// and resolves it through accept, reject and supersession.
//
// # States
//
//	Idle ──command──▶ PendingFetch ──result──▶ Ready ──accept/reject──▶ Idle
//	                    │  ▲  ▲                  │
//	                    └──┘  └────command───────┘ (supersession)
//	                  command
//
// Keys pressed while a fetch is pending are ignored.
//
// Every recognized command receives a new request id. Results carrying an
// older id are dropped without a trace.
//
// # Hosts
//
// A Lifecycle is not safe for concurrent use. Hosts with their own event
// loop (the bubbletea terminal host) call it directly and run Fetch.Run in a
// command. Hosts without one (the browser host) go through Loop, which
// serializes every event onto a single goroutine.
package suggest
