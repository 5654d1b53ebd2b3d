// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package suggest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/slashwrite/internal/transform"
)

// gatedTransformer blocks each source until the test releases it.
type gatedTransformer struct {
	mu    sync.Mutex
	gates map[string]chan string
}

func newGatedTransformer() *gatedTransformer {
	return &gatedTransformer{gates: make(map[string]chan string)}
}

func (g *gatedTransformer) gate(source string) chan string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[source]
	if !ok {
		ch = make(chan string, 1)
		g.gates[source] = ch
	}
	return ch
}

func (g *gatedTransformer) release(source, result string) {
	g.gate(source) <- result
}

func (g *gatedTransformer) Dispatch(ctx context.Context, req transform.Request) string {
	select {
	case text := <-g.gate(req.Source):
		return text
	case <-ctx.Done():
		return req.Source
	}
}

// lockedSurface guards fakeSurface for use from the test and loop goroutines.
type lockedSurface struct {
	mu sync.Mutex
	fakeSurface
}

func (s *lockedSurface) ReadText() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fakeSurface.ReadText()
}

func (s *lockedSurface) WriteText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fakeSurface.WriteText(text)
}

func (s *lockedSurface) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

type resolvedEvent struct {
	id      uint64
	applied bool
}

func startLoop(t *testing.T, lc *Lifecycle) (*Loop, chan resolvedEvent, func()) {
	t.Helper()
	resolved := make(chan resolvedEvent, 16)
	loop := NewLoop(lc, WithResolveHook(func(r Resolution, applied bool) {
		resolved <- resolvedEvent{r.RequestID, applied}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	stop := func() {
		cancel()
		select {
		case err := <-errc:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("loop did not stop")
		}
	}
	return loop, resolved, stop
}

func waitResolved(t *testing.T, ch chan resolvedEvent) resolvedEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no resolution")
		return resolvedEvent{}
	}
}

func TestLoop_SupersessionRace(t *testing.T) {
	defer goleak.VerifyNone(t)

	gates := newGatedTransformer()
	presenter := &fakePresenter{}
	lc := NewLifecycle(gates, presenter)
	loop, resolved, stop := startLoop(t, lc)
	defer stop()

	ctx := context.Background()
	first := &lockedSurface{fakeSurface: fakeSurface{id: "a", text: "first /ai"}}
	second := &lockedSurface{fakeSurface: fakeSurface{id: "b", text: "second /ai"}}

	require.NoError(t, loop.TextChanged(ctx, first))
	require.NoError(t, loop.TextChanged(ctx, second))

	// The newer fetch finishes first; the older one arrives late.
	gates.release("second", "Second.")
	ev := waitResolved(t, resolved)
	assert.Equal(t, resolvedEvent{2, true}, ev)

	gates.release("first", "First.")
	ev = waitResolved(t, resolved)
	assert.Equal(t, resolvedEvent{1, false}, ev)

	snap, err := loop.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateReady, snap.State)
	require.True(t, snap.HasSlot)
	assert.Equal(t, uint64(2), snap.Pending.RequestID)
	assert.Equal(t, "Second.", snap.Pending.ProposedText)

	shows, _, active := presenter.snapshot()
	assert.Equal(t, []shown{{"b", "Second."}}, shows)
	assert.Equal(t, 1, active)

	out, err := loop.KeyDown(ctx, KeyTab)
	require.NoError(t, err)
	assert.True(t, out.PreventDefault)
	assert.Equal(t, 1, second.writeCount())
	assert.Zero(t, first.writeCount())
}

func TestLoop_ConcurrentEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	presenter := &fakePresenter{}
	lc := NewLifecycle(upperTransformer{}, presenter)
	loop, resolved, stop := startLoop(t, lc)
	defer stop()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := &lockedSurface{fakeSurface: fakeSurface{id: string(rune('a' + i)), text: "text /ai"}}
			assert.NoError(t, loop.TextChanged(ctx, s))
			_, err := loop.KeyDown(ctx, KeyArrowLeft)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		waitResolved(t, resolved)
	}

	snap, err := loop.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, uint64(8), snap.Pending.RequestID, "the newest request owns the slot")

	_, _, active := presenter.snapshot()
	assert.Equal(t, 1, active, "superseded suggestions are hidden")
}

func TestLoop_StopDiscardsInFlightFetch(t *testing.T) {
	defer goleak.VerifyNone(t)

	gates := newGatedTransformer()
	presenter := &fakePresenter{}
	lc := NewLifecycle(gates, presenter)
	loop, _, stop := startLoop(t, lc)

	ctx := context.Background()
	require.NoError(t, loop.TextChanged(ctx, &lockedSurface{fakeSurface: fakeSurface{id: "a", text: "never /ai"}}))
	stop()

	_, err := loop.KeyDown(ctx, KeyTab)
	assert.True(t, errors.Is(err, ErrLoopStopped))

	shows, _, _ := presenter.snapshot()
	assert.Empty(t, shows)
}

func TestLoop_PostHonorsCallerContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	lc := NewLifecycle(upperTransformer{}, &fakePresenter{})
	loop := NewLoop(lc)

	// Run was never started, so only the caller's context can end the wait.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := loop.KeyDown(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
