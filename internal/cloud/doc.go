// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the OpenAI completions backend.
//
// One call sends one prompt and returns the text of the first choice. The
// request carries the model, the prompt, a max token count and a sampling
// temperature.
//
// # Key Types
//
//   - Client: HTTP client with retry and response size limits
//   - APIError: error object reported by the service
//   - CompletionRequest / CompletionResponse: wire bodies
//
// # Usage
//
//	client := cloud.NewClient().WithModel("gpt-3.5-turbo-instruct")
//	text, err := client.Complete(ctx, apiKey, prompt)
//
// # Security
//
// API keys are never logged; only a SHA-256 fingerprint is shown. All
// requests use TLS 1.2+.
package cloud
