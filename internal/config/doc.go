// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for slashwrite.
//
// Configuration is a single TOML file with sensible defaults, environment
// variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: Provider, endpoint and sampling settings
//   - KeysConfig: Accept and reject keys for suggestions
//   - ValidateErrors: Every invalid field found by Validate
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SLASHWRITE_*)
//   - ~/.slashwrite/config.toml (or $SLASHWRITE_HOME/config.toml)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	model := cfg.Backend.ResolvedModel()
package config
