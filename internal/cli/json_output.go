// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the envelope every command prints in --json mode.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is when the response was generated (RFC 3339, UTC)
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response as indented JSON.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// printJSON writes v as indented JSON without the envelope.
func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// RangeData is a byte range in the scanned text.
type RangeData struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ParseData is the parse command's result. Matched is false when the text
// holds no command.
type ParseData struct {
	Matched  bool       `json:"matched"`
	Kind     string     `json:"kind,omitempty"`
	Source   string     `json:"source,omitempty"`
	Language string     `json:"language,omitempty"`
	Form     string     `json:"form,omitempty"`
	Range    *RangeData `json:"range,omitempty"`
}

// ApplyData is the apply command's result.
type ApplyData struct {
	Kind     string `json:"kind"`
	Original string `json:"original"`
	Result   string `json:"result"`
	Changed  bool   `json:"changed"`
}

// KeyStatusData describes the configured credential without revealing it.
type KeyStatusData struct {
	Configured bool   `json:"configured"`
	Source     string `json:"source,omitempty"` // "env" or "file"
	Masked     string `json:"masked"`
	Path       string `json:"path"`
	Provider   string `json:"provider"`
	NeedsKey   bool   `json:"needs_key"`
	LooksValid bool   `json:"looks_valid"`
}

// ConfigPathData is the config path command's result.
type ConfigPathData struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// HistoryEntryData is one journaled outcome.
type HistoryEntryData struct {
	ID        string `json:"id"`
	RequestID uint64 `json:"request_id"`
	Surface   string `json:"surface"`
	Kind      string `json:"kind"`
	Outcome   string `json:"outcome"`
	Source    string `json:"source"`
	Proposed  string `json:"proposed"`
	CreatedAt string `json:"created_at"`
}

// HistoryData is the history command's result.
type HistoryData struct {
	Entries []HistoryEntryData `json:"entries"`
	Counts  map[string]int     `json:"counts"`
	Path    string             `json:"path"`
}

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}
