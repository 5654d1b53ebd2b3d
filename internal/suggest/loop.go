// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package suggest

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrLoopStopped is returned when an event is posted to a stopped loop.
var ErrLoopStopped = errors.New("suggestion loop stopped")

// Snapshot is a read-only view of the lifecycle taken on the loop.
type Snapshot struct {
	State   State
	Pending Pending
	HasSlot bool
}

// Loop serializes lifecycle events from many goroutines onto one. Fetches
// run on their own goroutines and post their resolutions back.
type Loop struct {
	lc     *Lifecycle
	logger *zap.Logger

	events chan func(ctx context.Context)
	done   chan struct{}

	// resolved is signalled after each applied or dropped resolution
	resolved func(Resolution, bool)

	fetches sync.WaitGroup
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithResolveHook is called on the loop after each resolution with whether
// it was applied.
func WithResolveHook(fn func(Resolution, bool)) LoopOption {
	return func(l *Loop) {
		l.resolved = fn
	}
}

// WithLoopLogger sets the logger.
func WithLoopLogger(logger *zap.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoop wraps lc. Call Run to start processing.
func NewLoop(lc *Lifecycle, opts ...LoopOption) *Loop {
	l := &Loop{
		lc:       lc,
		logger:   zap.NewNop(),
		events:   make(chan func(ctx context.Context)),
		done:     make(chan struct{}),
		resolved: func(Resolution, bool) {},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes events until ctx is done, then waits for in-flight fetches
// to return. Their results are discarded.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		close(l.done)
		l.fetches.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-l.events:
			ev(ctx)
		}
	}
}

// post runs fn on the loop and waits for it to finish.
func (l *Loop) post(ctx context.Context, fn func(ctx context.Context)) error {
	finished := make(chan struct{})
	wrapped := func(loopCtx context.Context) {
		defer close(finished)
		fn(loopCtx)
	}
	select {
	case l.events <- wrapped:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// KeyDown forwards a key press.
func (l *Loop) KeyDown(ctx context.Context, key string) (Outcome, error) {
	var out Outcome
	err := l.post(ctx, func(context.Context) {
		out = l.lc.KeyDown(key)
	})
	return out, err
}

// TextChanged rescans s and starts a fetch when a command is recognized.
func (l *Loop) TextChanged(ctx context.Context, s Surface) error {
	return l.post(ctx, func(loopCtx context.Context) {
		fetch, ok := l.lc.TextChanged(s)
		if !ok {
			return
		}
		l.start(loopCtx, fetch)
	})
}

// Snapshot returns the current state.
func (l *Loop) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := l.post(ctx, func(context.Context) {
		snap.State = l.lc.State()
		snap.Pending, snap.HasSlot = l.lc.Pending()
	})
	return snap, err
}

// start runs fetch off the loop. The underlying call is never cancelled by
// supersession; a stale result is simply dropped by Resolve.
func (l *Loop) start(ctx context.Context, fetch *Fetch) {
	l.fetches.Add(1)
	go func() {
		defer l.fetches.Done()
		res := fetch.Run(ctx)

		select {
		case l.events <- func(context.Context) {
			applied := l.lc.Resolve(res)
			l.resolved(res, applied)
		}:
		case <-l.done:
		}
	}()
}
