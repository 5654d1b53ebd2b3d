// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jeranaias/slashwrite/internal/commands"
	"github.com/jeranaias/slashwrite/internal/suggest"
)

// stepClock advances one second per call so ordering is deterministic.
func stepClock() func() time.Time {
	t := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func openTestJournal(t *testing.T, opts ...Option) *Journal {
	t.Helper()
	opts = append([]Option{WithClock(stepClock())}, opts...)
	j, err := Open(filepath.Join(t.TempDir(), "db", "history.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func record(id uint64, event suggest.Event) suggest.Record {
	return suggest.Record{
		Event:     event,
		RequestID: id,
		SurfaceID: "textarea-1",
		Kind:      commands.KindImprove,
		Source:    "pls fix",
		Proposed:  "Please fix this.",
	}
}

func TestJournal_InsertAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	first, err := j.Insert(ctx, record(1, suggest.EventShown))
	require.NoError(t, err)
	_, err = uuid.Parse(first.ID)
	require.NoError(t, err, "ids are UUIDs")

	_, err = j.Insert(ctx, record(1, suggest.EventAccepted))
	require.NoError(t, err)
	_, err = j.Insert(ctx, record(2, suggest.EventShown))
	require.NoError(t, err)

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, uint64(2), entries[0].RequestID, "newest first")
	assert.Equal(t, suggest.EventAccepted, entries[1].Outcome)
	assert.Equal(t, first.ID, entries[2].ID)
	assert.Equal(t, commands.KindImprove, entries[2].Kind)
	assert.Equal(t, "Please fix this.", entries[2].Proposed)
	assert.Equal(t, "textarea-1", entries[2].SurfaceID)
	assert.True(t, entries[0].CreatedAt.After(entries[2].CreatedAt))
}

func TestJournal_RecentLimit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	for i := uint64(1); i <= DefaultLimit+5; i++ {
		_, err := j.Insert(ctx, record(i, suggest.EventShown))
		require.NoError(t, err)
	}

	entries, err := j.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = j.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultLimit)
}

func TestJournal_Counts(t *testing.T) {
	j := openTestJournal(t)
	j.Record(record(1, suggest.EventShown))
	j.Record(record(1, suggest.EventRejected))
	j.Record(record(2, suggest.EventShown))
	j.Record(record(2, suggest.EventAccepted))
	j.Record(record(3, suggest.EventShown))

	counts, err := j.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[suggest.Event]int{
		suggest.EventShown:    3,
		suggest.EventRejected: 1,
		suggest.EventAccepted: 1,
	}, counts)
}

func TestJournal_ReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	j, err := Open(path)
	require.NoError(t, err)
	j.Record(record(7, suggest.EventAccepted))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(7), entries[0].RequestID)
}

func TestJournal_RecordLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	j, err := Open(filepath.Join(t.TempDir(), "history.db"), WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j.Record(record(1, suggest.EventShown))
	assert.Equal(t, 1, logs.FilterMessage("failed to journal suggestion").Len())
}

func TestJournal_ImplementsRecorder(t *testing.T) {
	var _ suggest.Recorder = (*Journal)(nil)
}
