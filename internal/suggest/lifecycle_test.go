// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package suggest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jeranaias/slashwrite/internal/commands"
	"github.com/jeranaias/slashwrite/internal/transform"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeSurface struct {
	id       string
	text     string
	readErr  error
	writeErr error
	writes   []string
}

func (s *fakeSurface) ID() string { return s.id }

func (s *fakeSurface) ReadText() (string, error) {
	if s.readErr != nil {
		return "", s.readErr
	}
	return s.text, nil
}

func (s *fakeSurface) WriteText(text string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes = append(s.writes, text)
	s.text = text
	return nil
}

type shown struct {
	surface string
	text    string
}

type fakePresenter struct {
	mu     sync.Mutex
	shows  []shown
	hides  int
	active int
}

func (p *fakePresenter) Show(s Surface, text string) Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shows = append(p.shows, shown{s.ID(), text})
	p.active++
	return len(p.shows)
}

func (p *fakePresenter) Hide(Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hides++
	p.active--
}

func (p *fakePresenter) snapshot() ([]shown, int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shown(nil), p.shows...), p.hides, p.active
}

// upperTransformer uppercases the source, standing in for a backend.
type upperTransformer struct{}

func (upperTransformer) Dispatch(_ context.Context, req transform.Request) string {
	return strings.ToUpper(req.Source)
}

type recorder struct {
	mu      sync.Mutex
	records []Record
}

func (r *recorder) Record(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *recorder) events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Event)
	}
	return out
}

func newTestLifecycle(opts ...Option) (*Lifecycle, *fakePresenter, *recorder) {
	p := &fakePresenter{}
	rec := &recorder{}
	opts = append([]Option{WithRecorder(rec)}, opts...)
	return NewLifecycle(upperTransformer{}, p, opts...), p, rec
}

// ready drives s to the Ready state and returns the applied resolution.
func ready(t *testing.T, lc *Lifecycle, s *fakeSurface) Resolution {
	t.Helper()
	fetch, ok := lc.TextChanged(s)
	require.True(t, ok, "expected a command in %q", s.text)
	require.Equal(t, StatePendingFetch, lc.State())
	res := fetch.Run(context.Background())
	require.True(t, lc.Resolve(res))
	require.Equal(t, StateReady, lc.State())
	return res
}

// =============================================================================
// ACCEPT / REJECT
// =============================================================================

func TestLifecycle_AcceptWritesProposedTextOnce(t *testing.T) {
	lc, p, rec := newTestLifecycle()
	s := &fakeSurface{id: "a", text: "Hello world/ai"}

	ready(t, lc, s)

	pending, ok := lc.Pending()
	require.True(t, ok)
	assert.Equal(t, "Hello world/ai", pending.OriginalText)
	assert.Equal(t, "HELLO WORLD", pending.ProposedText)

	out := lc.KeyDown(KeyTab)
	assert.Equal(t, Outcome{Handled: true, PreventDefault: true}, out)
	assert.Equal(t, []string{"HELLO WORLD"}, s.writes)
	assert.Equal(t, StateIdle, lc.State())
	_, ok = lc.Pending()
	assert.False(t, ok)

	shows, hides, active := p.snapshot()
	assert.Equal(t, []shown{{"a", "HELLO WORLD"}}, shows)
	assert.Equal(t, 1, hides)
	assert.Zero(t, active)
	assert.Equal(t, []Event{EventShown, EventAccepted}, rec.events())
}

func TestLifecycle_AcceptReplacesOnlyBlockRange(t *testing.T) {
	lc, _, _ := newTestLifecycle()
	s := &fakeSurface{id: "a", text: "Dear team, /s pls fix /e /ai"}

	ready(t, lc, s)
	lc.KeyDown(KeyTab)

	assert.Equal(t, []string{"Dear team, PLS FIX"}, s.writes)
}

func TestLifecycle_AcceptedTextIsNotReoffered(t *testing.T) {
	lc, _, _ := newTestLifecycle()
	s := &fakeSurface{id: "a", text: "note /ai"}

	ready(t, lc, s)
	lc.KeyDown(KeyTab)

	_, ok := lc.TextChanged(s)
	assert.False(t, ok)
	assert.Equal(t, StateIdle, lc.State())
}

func TestLifecycle_RejectKey(t *testing.T) {
	lc, p, rec := newTestLifecycle()
	s := &fakeSurface{id: "a", text: "Hello world/ai"}

	ready(t, lc, s)

	out := lc.KeyDown(KeyEscape)
	assert.Equal(t, Outcome{Handled: true}, out)
	assert.Empty(t, s.writes)
	assert.Equal(t, StateIdle, lc.State())
	_, hides, _ := p.snapshot()
	assert.Equal(t, 1, hides)
	assert.Equal(t, []Event{EventShown, EventRejected}, rec.events())

	// The key-up that follows sees the same text and must not refetch.
	_, ok := lc.TextChanged(s)
	assert.False(t, ok)
}

func TestLifecycle_TypingRejects(t *testing.T) {
	for _, key := range []string{"a", " ", "Backspace", "Delete", "1", "."} {
		t.Run(key, func(t *testing.T) {
			lc, _, rec := newTestLifecycle()
			s := &fakeSurface{id: "a", text: "Hello world/ai"}
			ready(t, lc, s)

			out := lc.KeyDown(key)
			assert.Equal(t, Outcome{}, out)
			assert.Empty(t, s.writes)
			assert.Equal(t, StateIdle, lc.State())
			assert.Equal(t, []Event{EventShown, EventRejected}, rec.events())
		})
	}
}

func TestLifecycle_ReservedKeysKeepSuggestion(t *testing.T) {
	reserved := []string{
		KeyArrowLeft, KeyArrowRight, KeyArrowUp, KeyArrowDown,
		KeyShift, KeyControl, KeyAlt, KeyMeta, KeyCapsLock, KeyEnter,
	}
	lc, _, _ := newTestLifecycle()
	s := &fakeSurface{id: "a", text: "Hello world/ai"}
	ready(t, lc, s)

	for _, key := range reserved {
		out := lc.KeyDown(key)
		assert.Equal(t, Outcome{}, out, key)
		assert.Equal(t, StateReady, lc.State(), key)
	}
	assert.Empty(t, s.writes)
}

func TestLifecycle_IdleIgnoresKeys(t *testing.T) {
	lc, p, rec := newTestLifecycle()
	for _, key := range []string{KeyTab, KeyEscape, "a"} {
		assert.Equal(t, Outcome{}, lc.KeyDown(key))
	}
	assert.Equal(t, StateIdle, lc.State())
	shows, hides, _ := p.snapshot()
	assert.Empty(t, shows)
	assert.Zero(t, hides)
	assert.Empty(t, rec.events())
}

func TestLifecycle_CustomKeys(t *testing.T) {
	lc, _, _ := newTestLifecycle(WithKeys(Keys{Accept: KeyArrowRight}))
	assert.Equal(t, Keys{Accept: KeyArrowRight, Reject: KeyEscape}, lc.Keys())

	s := &fakeSurface{id: "a", text: "x /ai"}
	ready(t, lc, s)

	// Tab is ordinary typing once it is not the accept key.
	assert.Equal(t, Outcome{}, lc.KeyDown(KeyTab))
	assert.Equal(t, StateIdle, lc.State())

	s.text = "y /ai"
	ready(t, lc, s)
	assert.Equal(t, Outcome{Handled: true, PreventDefault: true}, lc.KeyDown(KeyArrowRight))
	assert.Equal(t, []string{"Y"}, s.writes)
}

// =============================================================================
// SUPERSESSION
// =============================================================================

func TestLifecycle_LaterCommandSupersedesEarlierFetch(t *testing.T) {
	lc, p, rec := newTestLifecycle()
	first := &fakeSurface{id: "a", text: "first /ai"}
	second := &fakeSurface{id: "b", text: "second /elaborate"}

	fetch1, ok := lc.TextChanged(first)
	require.True(t, ok)
	fetch2, ok := lc.TextChanged(second)
	require.True(t, ok)
	assert.Greater(t, fetch2.RequestID, fetch1.RequestID)

	res1 := fetch1.Run(context.Background())
	res2 := fetch2.Run(context.Background())

	// Second resolves first, then the stale first result arrives.
	require.True(t, lc.Resolve(res2))
	assert.False(t, lc.Resolve(res1))

	shows, _, active := p.snapshot()
	assert.Equal(t, []shown{{"b", "SECOND"}}, shows)
	assert.Equal(t, 1, active)

	pending, ok := lc.Pending()
	require.True(t, ok)
	assert.Equal(t, fetch2.RequestID, pending.RequestID)
	assert.Equal(t, []Event{EventShown}, rec.events(), "stale results are not reported")
}

func TestLifecycle_StaleResultWhileNewerPending(t *testing.T) {
	lc, p, _ := newTestLifecycle()
	s := &fakeSurface{id: "a", text: "one /ai"}

	fetch1, ok := lc.TextChanged(s)
	require.True(t, ok)
	s.text = "two /ai"
	fetch2, ok := lc.TextChanged(s)
	require.True(t, ok)

	assert.False(t, lc.Resolve(fetch1.Run(context.Background())))
	assert.Equal(t, StatePendingFetch, lc.State())

	assert.True(t, lc.Resolve(fetch2.Run(context.Background())))
	shows, _, _ := p.snapshot()
	assert.Equal(t, []shown{{"a", "TWO"}}, shows)
}

func TestLifecycle_CommandSupersedesReadySuggestion(t *testing.T) {
	lc, p, rec := newTestLifecycle()
	first := &fakeSurface{id: "a", text: "first /ai"}
	ready(t, lc, first)

	second := &fakeSurface{id: "b", text: "second /ai"}
	_, ok := lc.TextChanged(second)
	require.True(t, ok)

	assert.Equal(t, StatePendingFetch, lc.State())
	_, hides, active := p.snapshot()
	assert.Equal(t, 1, hides)
	assert.Zero(t, active)
	assert.Equal(t, []Event{EventShown, EventSuperseded}, rec.events())
	assert.Empty(t, first.writes)
}

func TestLifecycle_DuplicateResolveIgnored(t *testing.T) {
	lc, p, _ := newTestLifecycle()
	s := &fakeSurface{id: "a", text: "x /ai"}
	res := ready(t, lc, s)

	assert.False(t, lc.Resolve(res))
	shows, _, _ := p.snapshot()
	assert.Len(t, shows, 1)
}

// =============================================================================
// PENDING FETCH
// =============================================================================

func TestLifecycle_TypingKeepsPendingFetch(t *testing.T) {
	lc, p, rec := newTestLifecycle()
	s := &fakeSurface{id: "a", text: "Hello world /ai"}

	fetch, ok := lc.TextChanged(s)
	require.True(t, ok)

	assert.Equal(t, Outcome{}, lc.KeyDown("x"))
	assert.Equal(t, StatePendingFetch, lc.State())

	assert.True(t, lc.Resolve(fetch.Run(context.Background())))
	assert.Equal(t, StateReady, lc.State())
	shows, _, _ := p.snapshot()
	assert.Len(t, shows, 1)
	assert.Equal(t, []Event{EventShown}, rec.events())
}

func TestLifecycle_RejectKeyWhilePendingIsIgnored(t *testing.T) {
	lc, p, _ := newTestLifecycle()
	s := &fakeSurface{id: "a", text: "draft /ai"}

	fetch, ok := lc.TextChanged(s)
	require.True(t, ok)

	assert.Equal(t, Outcome{}, lc.KeyDown(KeyEscape))
	assert.Equal(t, StatePendingFetch, lc.State())

	assert.True(t, lc.Resolve(fetch.Run(context.Background())))
	assert.Equal(t, StateReady, lc.State())
	shows, _, _ := p.snapshot()
	assert.Len(t, shows, 1)
}

func TestLifecycle_AcceptKeyWhilePendingIsIgnored(t *testing.T) {
	lc, _, _ := newTestLifecycle()
	s := &fakeSurface{id: "a", text: "draft /ai"}

	fetch, ok := lc.TextChanged(s)
	require.True(t, ok)

	assert.Equal(t, Outcome{}, lc.KeyDown(KeyTab))
	assert.Equal(t, StatePendingFetch, lc.State())
	assert.True(t, lc.Resolve(fetch.Run(context.Background())))
}

// =============================================================================
// SCANNING
// =============================================================================

func TestLifecycle_NoCommandNoTransition(t *testing.T) {
	lc, _, _ := newTestLifecycle()
	s := &fakeSurface{id: "a", text: "just some text"}

	_, ok := lc.TextChanged(s)
	assert.False(t, ok)
	assert.Equal(t, StateIdle, lc.State())
}

func TestLifecycle_NoCommandKeepsReadySuggestion(t *testing.T) {
	lc, _, _ := newTestLifecycle()
	a := &fakeSurface{id: "a", text: "x /ai"}
	ready(t, lc, a)

	_, ok := lc.TextChanged(&fakeSurface{id: "b", text: "plain"})
	assert.False(t, ok)
	assert.Equal(t, StateReady, lc.State())
}

func TestLifecycle_UnchangedTextNotRescanned(t *testing.T) {
	lc, _, _ := newTestLifecycle()
	s := &fakeSurface{id: "a", text: "x /ai"}

	_, ok := lc.TextChanged(s)
	require.True(t, ok)
	_, ok = lc.TextChanged(s)
	assert.False(t, ok, "navigation key-ups must not refetch")

	// The same text on another surface is a new scan.
	_, ok = lc.TextChanged(&fakeSurface{id: "b", text: "x /ai"})
	assert.True(t, ok)
}

func TestLifecycle_FetchCarriesRequest(t *testing.T) {
	lc, _, _ := newTestLifecycle()
	s := &fakeSurface{id: "a", text: "/s Hola /e /t German"}

	fetch, ok := lc.TextChanged(s)
	require.True(t, ok)
	assert.Equal(t, transform.Request{Kind: commands.KindTranslate, Source: "Hola", Language: "German"}, fetch.Request)
}

// =============================================================================
// SURFACE FAILURES
// =============================================================================

func TestLifecycle_ReadErrorIgnored(t *testing.T) {
	lc, _, _ := newTestLifecycle()
	s := &fakeSurface{id: "gone", readErr: errors.New("detached")}

	_, ok := lc.TextChanged(s)
	assert.False(t, ok)
	assert.Equal(t, StateIdle, lc.State())

	_, ok = lc.TextChanged(nil)
	assert.False(t, ok)
}

func TestLifecycle_WriteErrorClearsSuggestion(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	lc, p, rec := newTestLifecycle(WithLogger(zap.New(core)))
	s := &fakeSurface{id: "a", text: "x /ai"}
	ready(t, lc, s)

	s.writeErr = errors.New("element removed")
	out := lc.KeyDown(KeyTab)

	assert.Equal(t, Outcome{Handled: true, PreventDefault: true}, out)
	assert.Equal(t, StateIdle, lc.State())
	_, hides, _ := p.snapshot()
	assert.Equal(t, 1, hides)
	assert.Equal(t, []Event{EventShown}, rec.events())
	require.Equal(t, 1, logs.FilterMessage("surface write failed").Len())
}

func TestLifecycle_FailedTransformOffersUnchangedText(t *testing.T) {
	echo := transformerFunc(func(_ context.Context, req transform.Request) string { return req.Source })
	p := &fakePresenter{}
	lc := NewLifecycle(echo, p)
	s := &fakeSurface{id: "a", text: "keep me /ai"}

	fetch, ok := lc.TextChanged(s)
	require.True(t, ok)
	require.True(t, lc.Resolve(fetch.Run(context.Background())))

	pending, _ := lc.Pending()
	assert.Equal(t, "keep me", pending.ProposedText)
}

type transformerFunc func(ctx context.Context, req transform.Request) string

func (f transformerFunc) Dispatch(ctx context.Context, req transform.Request) string {
	return f(ctx, req)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "pending", StatePendingFetch.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestKeys_Reserved(t *testing.T) {
	k := DefaultKeys()
	assert.True(t, k.Reserved(KeyTab))
	assert.True(t, k.Reserved(KeyEscape))
	assert.True(t, k.Reserved(KeyEnter))
	assert.False(t, k.Reserved("a"))
	assert.False(t, k.Reserved("Backspace"))
}
