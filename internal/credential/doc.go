// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package credential supplies the backend API key.
//
// The key lives in a small TOML file (api_key = "...") written atomically
// with 0600 permissions. SLASHWRITE_API_KEY overrides the file. A Provider
// loads the key in the background and reloads it whenever the file changes,
// so "slashwrite key set" takes effect in a running host.
//
// Usage:
//
//	p := credential.NewProvider(path, credential.WithLogger(logger))
//	if err := p.Start(ctx); err != nil {
//	    return err
//	}
//	defer p.Close()
//	key, ok := p.Key()
package credential
