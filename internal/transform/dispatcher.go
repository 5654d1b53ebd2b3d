// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transform

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/slashwrite/internal/commands"
)

// =============================================================================
// TYPES
// =============================================================================

// Request is one transformation to perform.
type Request struct {
	Kind     commands.Kind
	Source   string
	Language string // translate only
}

// RequestFor builds the request for a parsed command.
func RequestFor(cmd commands.Command) Request {
	return Request{Kind: cmd.Kind, Source: cmd.Source, Language: cmd.Language}
}

// Backend performs one completion call. The key may be ignored by backends
// that need none.
type Backend interface {
	Complete(ctx context.Context, apiKey, prompt string) (string, error)
}

// KeySource provides the current credential.
type KeySource interface {
	Key() (string, bool)
}

// Errors seen only in logs; Dispatch never returns them.
var (
	ErrUnknownKind     = errors.New("unknown command kind")
	ErrMissingLanguage = errors.New("translate requires a language")
	ErrEmptyResult     = errors.New("backend returned empty text")
)

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher maps a command kind to one backend call and absorbs every
// failure by returning the source text unchanged.
type Dispatcher struct {
	backend    Backend
	keys       KeySource
	prompts    Prompts
	limiter    *rate.Limiter
	requireKey bool
	logger     *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPrompts replaces the prompt templates. Empty templates keep the default.
func WithPrompts(p Prompts) Option {
	return func(d *Dispatcher) {
		d.prompts = p.withDefaults()
	}
}

// WithRequestsPerMinute throttles backend calls. Zero or less disables it.
func WithRequestsPerMinute(rpm int) Option {
	return func(d *Dispatcher) {
		if rpm <= 0 {
			d.limiter = nil
			return
		}
		d.limiter = rate.NewLimiter(rate.Limit(rpm)/60.0, rpm)
	}
}

// WithLimiter sets the limiter directly.
func WithLimiter(l *rate.Limiter) Option {
	return func(d *Dispatcher) {
		d.limiter = l
	}
}

// WithoutCredential is for backends that need no key (local Ollama).
func WithoutCredential() Option {
	return func(d *Dispatcher) {
		d.requireKey = false
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher over backend. keys may be nil when
// WithoutCredential is given.
func NewDispatcher(backend Backend, keys KeySource, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend:    backend,
		keys:       keys,
		prompts:    DefaultPrompts(),
		requireKey: true,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch returns the transformed text, or req.Source when the credential is
// missing or anything fails. The result is trimmed.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) string {
	log := d.logger.With(zap.String("kind", string(req.Kind)))

	var apiKey string
	if d.requireKey {
		key, ok := d.key()
		if !ok {
			log.Debug("no credential, leaving text unchanged")
			return req.Source
		}
		apiKey = key
	}

	prompt, err := d.prompts.Render(req)
	if err != nil {
		log.Warn("transformation failed", zap.Error(err))
		return req.Source
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			log.Warn("transformation failed", zap.Error(err))
			return req.Source
		}
	}

	text, err := d.backend.Complete(ctx, apiKey, prompt)
	if err != nil {
		log.Warn("transformation failed", zap.Error(err))
		return req.Source
	}

	text = strings.TrimSpace(text)
	if text == "" {
		log.Warn("transformation failed", zap.Error(ErrEmptyResult))
		return req.Source
	}
	return text
}

func (d *Dispatcher) key() (string, bool) {
	if d.keys == nil {
		return "", false
	}
	key, ok := d.keys.Key()
	key = strings.TrimSpace(key)
	return key, ok && key != ""
}
