// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for a local Ollama server.
//
// It serves as a credential-free transformation backend: Complete sends one
// non-streaming /api/generate request and returns the response text.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - ClientError: typed error with an ErrorType for errors.As checks
//   - GenerateRequest / GenerateResponse: wire bodies
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{DefaultModel: "llama3.2"})
//	text, err := client.Complete(ctx, "", prompt)
//	if ollama.IsNotRunning(err) {
//	    // start the server
//	}
package ollama
