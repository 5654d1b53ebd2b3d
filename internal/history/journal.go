// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history journals suggestion outcomes to a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/slashwrite/internal/commands"
	"github.com/jeranaias/slashwrite/internal/suggest"
)

// DefaultLimit is used by Recent when limit is not positive.
const DefaultLimit = 20

// Entry is one journaled outcome.
type Entry struct {
	ID        string
	RequestID uint64
	SurfaceID string
	Kind      commands.Kind
	Source    string
	Proposed  string
	Outcome   suggest.Event
	CreatedAt time.Time
}

// Journal is a suggest.Recorder backed by SQLite. It is safe for concurrent
// use.
type Journal struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(j *Journal) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) {
		if now != nil {
			j.now = now
		}
	}
}

// Open opens (creating if needed) the journal at path.
func Open(path string, opts ...Option) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	j := &Journal{
		db:     db,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	if err := j.checkVersion(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) checkVersion() error {
	var value string
	err := j.db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&value)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid schema version %q: %w", value, err)
	}
	if v > SchemaVersion {
		return fmt.Errorf("history database schema v%d is newer than supported v%d", v, SchemaVersion)
	}
	return nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record implements suggest.Recorder. Failures are logged, never returned.
func (j *Journal) Record(r suggest.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := j.Insert(ctx, r); err != nil {
		j.logger.Warn("failed to journal suggestion",
			zap.String("outcome", string(r.Event)),
			zap.Uint64("request_id", r.RequestID),
			zap.Error(err),
		)
	}
}

// Insert stores r and returns the stored entry.
func (j *Journal) Insert(ctx context.Context, r suggest.Record) (Entry, error) {
	e := Entry{
		ID:        uuid.New().String(),
		RequestID: r.RequestID,
		SurfaceID: r.SurfaceID,
		Kind:      r.Kind,
		Source:    r.Source,
		Proposed:  r.Proposed,
		Outcome:   r.Event,
		CreatedAt: j.now().UTC(),
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO suggestions (id, request_id, surface, kind, source, proposed, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, int64(e.RequestID), e.SurfaceID, string(e.Kind), e.Source, e.Proposed,
		string(e.Outcome), e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to insert suggestion: %w", err)
	}
	return e, nil
}

// Recent returns the newest entries first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, request_id, surface, kind, source, proposed, outcome, created_at
		FROM suggestions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			requestID int64
			kind      string
			outcome   string
			created   int64
		)
		if err := rows.Scan(&e.ID, &requestID, &e.SurfaceID, &kind, &e.Source, &e.Proposed, &outcome, &created); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		e.RequestID = uint64(requestID)
		e.Kind = commands.Kind(kind)
		e.Outcome = suggest.Event(outcome)
		e.CreatedAt = time.Unix(0, created).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Counts returns the number of entries per outcome.
func (j *Journal) Counts(ctx context.Context) (map[suggest.Event]int, error) {
	rows, err := j.db.QueryContext(ctx, "SELECT outcome, COUNT(*) FROM suggestions GROUP BY outcome")
	if err != nil {
		return nil, fmt.Errorf("failed to count suggestions: %w", err)
	}
	defer rows.Close()

	counts := make(map[suggest.Event]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[suggest.Event(outcome)] = n
	}
	return counts, rows.Err()
}
