// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package suggest

import (
	"context"

	"github.com/jeranaias/slashwrite/internal/commands"
	"github.com/jeranaias/slashwrite/internal/transform"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// Surface is an editable text-bearing element. Implementations are chosen
// once per element and may disappear at any time; read and write errors are
// expected.
type Surface interface {
	// ID identifies the surface across events
	ID() string

	ReadText() (string, error)
	WriteText(text string) error
}

// Handle identifies one displayed suggestion.
type Handle interface{}

// Presenter displays and removes suggestions.
type Presenter interface {
	Show(s Surface, text string) Handle
	Hide(h Handle)
}

// Transformer produces the replacement text for a command. It never fails;
// on error it returns the source text.
type Transformer interface {
	Dispatch(ctx context.Context, req transform.Request) string
}

// =============================================================================
// OUTCOME JOURNAL
// =============================================================================

// Event names what happened to a displayed suggestion.
type Event string

const (
	EventShown      Event = "shown"
	EventAccepted   Event = "accepted"
	EventRejected   Event = "rejected"
	EventSuperseded Event = "superseded"
)

// Record describes a displayed suggestion at the moment of an Event.
type Record struct {
	Event     Event
	RequestID uint64
	SurfaceID string
	Kind      commands.Kind
	Source    string
	Proposed  string
}

// Recorder receives every Event for displayed suggestions. It is called on
// the lifecycle's goroutine and should return quickly.
type Recorder interface {
	Record(r Record)
}

type nopRecorder struct{}

func (nopRecorder) Record(Record) {}
