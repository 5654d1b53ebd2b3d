// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema is the SQLite schema for the suggestion journal.
const Schema = `
-- Metadata table for schema version
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- One row per suggestion outcome
CREATE TABLE IF NOT EXISTS suggestions (
    id TEXT PRIMARY KEY,
    request_id INTEGER NOT NULL,
    surface TEXT NOT NULL,
    kind TEXT NOT NULL,
    source TEXT NOT NULL,
    proposed TEXT NOT NULL,
    outcome TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_suggestions_created ON suggestions(created_at);
CREATE INDEX IF NOT EXISTS idx_suggestions_outcome ON suggestions(outcome);
`

// InitMetadata initializes the metadata table with default values
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
`
