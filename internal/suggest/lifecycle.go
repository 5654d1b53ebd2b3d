// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package suggest

import (
	"context"

	"go.uber.org/zap"

	"github.com/jeranaias/slashwrite/internal/commands"
	"github.com/jeranaias/slashwrite/internal/transform"
)

// =============================================================================
// STATE
// =============================================================================

// State is the lifecycle state.
type State int

const (
	StateIdle State = iota
	StatePendingFetch
	StateReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingFetch:
		return "pending"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Pending is the single suggestion slot.
type Pending struct {
	RequestID uint64
	Surface   Surface
	Command   commands.Command

	// OriginalText is the surface text when the command was recognized
	OriginalText string

	// Result and ProposedText are set once the fetch resolves
	Result       string
	ProposedText string

	handle Handle
}

// Outcome tells the host what happened to a key.
type Outcome struct {
	// Handled is true when the key accepted or rejected a suggestion
	Handled bool

	// PreventDefault is true when the key's normal editing effect must be
	// suppressed
	PreventDefault bool
}

// Resolution carries a finished fetch back to the lifecycle.
type Resolution struct {
	RequestID uint64
	Text      string
}

// Fetch is one transformation call. It is safe to run on any goroutine.
type Fetch struct {
	RequestID   uint64
	Request     transform.Request
	transformer Transformer
}

// Run performs the transformation. It never fails.
func (f *Fetch) Run(ctx context.Context) Resolution {
	return Resolution{
		RequestID: f.RequestID,
		Text:      f.transformer.Dispatch(ctx, f.Request),
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Lifecycle owns the suggestion slot. All methods must be called from one
// goroutine.
type Lifecycle struct {
	transformer Transformer
	presenter   Presenter
	parser      *commands.Parser
	recorder    Recorder
	keys        Keys
	logger      *zap.Logger

	state   State
	pending *Pending
	nextID  uint64

	// last scanned text per surface; unchanged text is not rescanned
	lastSurface string
	lastText    string
	scanned     bool
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithParser replaces the default command parser.
func WithParser(p *commands.Parser) Option {
	return func(l *Lifecycle) {
		if p != nil {
			l.parser = p
		}
	}
}

// WithKeys sets the accept and reject keys. Empty names keep the defaults.
func WithKeys(k Keys) Option {
	return func(l *Lifecycle) {
		if k.Accept != "" {
			l.keys.Accept = k.Accept
		}
		if k.Reject != "" {
			l.keys.Reject = k.Reject
		}
	}
}

// WithRecorder reports suggestion outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(l *Lifecycle) {
		if r != nil {
			l.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Lifecycle) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLifecycle creates an idle lifecycle.
func NewLifecycle(transformer Transformer, presenter Presenter, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		transformer: transformer,
		presenter:   presenter,
		parser:      commands.NewParser(),
		recorder:    nopRecorder{},
		keys:        DefaultKeys(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current state.
func (l *Lifecycle) State() State {
	return l.state
}

// Pending returns a copy of the slot.
func (l *Lifecycle) Pending() (Pending, bool) {
	if l.pending == nil {
		return Pending{}, false
	}
	return *l.pending, true
}

// Keys returns the configured keys.
func (l *Lifecycle) Keys() Keys {
	return l.keys
}

// =============================================================================
// TEXT CHANGES
// =============================================================================

// TextChanged rescans s after an edit. When a command is recognized it
// supersedes whatever the slot held and returns the Fetch to run.
func (l *Lifecycle) TextChanged(s Surface) (*Fetch, bool) {
	if s == nil {
		return nil, false
	}
	text, err := s.ReadText()
	if err != nil {
		l.logger.Debug("surface read failed", zap.String("surface", s.ID()), zap.Error(err))
		return nil, false
	}

	if l.scanned && l.lastSurface == s.ID() && l.lastText == text {
		return nil, false
	}
	l.scanned, l.lastSurface, l.lastText = true, s.ID(), text

	cmd, ok := l.parser.Parse(text)
	if !ok {
		return nil, false
	}

	l.supersede()

	l.nextID++
	l.pending = &Pending{
		RequestID:    l.nextID,
		Surface:      s,
		Command:      cmd,
		OriginalText: text,
	}
	l.state = StatePendingFetch

	l.logger.Debug("command recognized",
		zap.Uint64("request_id", l.nextID),
		zap.String("surface", s.ID()),
		zap.String("kind", string(cmd.Kind)),
		zap.String("form", string(cmd.Form)),
	)

	return &Fetch{
		RequestID:   l.nextID,
		Request:     transform.RequestFor(cmd),
		transformer: l.transformer,
	}, true
}

// Resolve applies a finished fetch. Results for anything but the current
// pending request are dropped and Resolve reports false.
func (l *Lifecycle) Resolve(r Resolution) bool {
	if l.state != StatePendingFetch || l.pending == nil || l.pending.RequestID != r.RequestID {
		return false
	}

	p := l.pending
	p.Result = r.Text
	p.ProposedText = p.Command.Apply(p.OriginalText, r.Text)
	p.handle = l.presenter.Show(p.Surface, r.Text)
	l.state = StateReady

	l.record(EventShown)
	return true
}

// =============================================================================
// KEYS
// =============================================================================

// KeyDown handles a key press before its default effect.
func (l *Lifecycle) KeyDown(key string) Outcome {
	// Keys never touch a pending fetch; only a newer command supersedes it.
	switch l.state {
	case StateReady:
		switch {
		case key == l.keys.Accept:
			l.accept()
			return Outcome{Handled: true, PreventDefault: true}
		case key == l.keys.Reject:
			l.reject()
			return Outcome{Handled: true}
		case !l.keys.Reserved(key):
			l.reject()
			return Outcome{}
		}
	}
	return Outcome{}
}

func (l *Lifecycle) accept() {
	p := l.pending
	if err := p.Surface.WriteText(p.ProposedText); err != nil {
		l.logger.Warn("surface write failed",
			zap.String("surface", p.Surface.ID()),
			zap.Uint64("request_id", p.RequestID),
			zap.Error(err),
		)
		l.hide()
		l.clear()
		return
	}
	l.hide()
	l.record(EventAccepted)
	l.clear()
}

func (l *Lifecycle) reject() {
	l.hide()
	l.record(EventRejected)
	l.clear()
}

// supersede empties the slot for a newer command.
func (l *Lifecycle) supersede() {
	if l.state == StateReady {
		l.hide()
		l.record(EventSuperseded)
	}
	l.clear()
}

func (l *Lifecycle) hide() {
	if l.pending != nil && l.pending.handle != nil {
		l.presenter.Hide(l.pending.handle)
		l.pending.handle = nil
	}
}

func (l *Lifecycle) clear() {
	l.pending = nil
	l.state = StateIdle
}

func (l *Lifecycle) record(e Event) {
	p := l.pending
	l.recorder.Record(Record{
		Event:     e,
		RequestID: p.RequestID,
		SurfaceID: p.Surface.ID(),
		Kind:      p.Command.Kind,
		Source:    p.Command.Source,
		Proposed:  p.ProposedText,
	})
}
