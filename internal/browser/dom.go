// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package browser

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/jeranaias/slashwrite/internal/surface"
)

// ErrDetached is returned when a surface's element is no longer in the page.
var ErrDetached = errors.New("element detached")

// evaluator runs a JS function in the page. *rod.Page satisfies it.
type evaluator interface {
	Eval(js string, args ...interface{}) (*proto.RuntimeRemoteObject, error)
}

// =============================================================================
// PAGE EVENTS
// =============================================================================

const (
	eventKeyDown = "keydown"
	eventKeyUp   = "keyup"
	eventInput   = "input"
)

// pageEvent is one queued DOM event.
type pageEvent struct {
	Type    string      `json:"type"`
	Key     string      `json:"key"`
	Surface elementInfo `json:"surface"`
}

// elementInfo is what the hook reports about an event target.
type elementInfo struct {
	ID              string   `json:"id"`
	Tag             string   `json:"tag"`
	Type            string   `json:"type"`
	ContentEditable bool     `json:"contentEditable"`
	Classes         []string `json:"classes"`
}

func (e elementInfo) descriptor() surface.Descriptor {
	return surface.Descriptor{
		Tag:             e.Tag,
		Type:            e.Type,
		ContentEditable: e.ContentEditable,
		Classes:         e.Classes,
	}
}

// drain takes every queued event from the page.
func drain(page evaluator) ([]pageEvent, error) {
	res, err := page.Eval(drainSource)
	if err != nil {
		return nil, err
	}
	return decodeEvents(res.Value)
}

func decodeEvents(v gson.JSON) ([]pageEvent, error) {
	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal page events: %w", err)
	}
	var events []pageEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("decode page events: %w", err)
	}
	return events, nil
}

// =============================================================================
// DOM SURFACE
// =============================================================================

// domSurface reads and writes one tagged element.
type domSurface struct {
	id     string
	family surface.Family
	page   evaluator
}

func (s *domSurface) ID() string { return s.id }

func (s *domSurface) rich() bool { return s.family == surface.FamilyRich }

func (s *domSurface) ReadText() (string, error) {
	res, err := s.page.Eval(readSource, s.id, s.rich())
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.id, err)
	}
	if res.Value.Nil() {
		return "", ErrDetached
	}
	if s.rich() {
		return surface.Render(res.Value.Str())
	}
	return res.Value.Str(), nil
}

func (s *domSurface) WriteText(text string) error {
	value := text
	if s.rich() {
		value = surface.Markup(text)
	}
	res, err := s.page.Eval(writeSource, s.id, s.rich(), value)
	if err != nil {
		return fmt.Errorf("write %s: %w", s.id, err)
	}
	if !res.Value.Bool() {
		return ErrDetached
	}
	return nil
}

// =============================================================================
// SURFACE REGISTRY
// =============================================================================

// registry classifies each element once, the first time it is seen.
type registry struct {
	page    evaluator
	known   map[string]*domSurface
	ignored map[string]struct{}
}

func newRegistry(page evaluator) *registry {
	return &registry{
		page:    page,
		known:   make(map[string]*domSurface),
		ignored: make(map[string]struct{}),
	}
}

// resolve returns the surface for an element, or false when the element is
// not an editing surface.
func (r *registry) resolve(info elementInfo) (*domSurface, bool) {
	if info.ID == "" {
		return nil, false
	}
	if s, ok := r.known[info.ID]; ok {
		return s, true
	}
	if _, ok := r.ignored[info.ID]; ok {
		return nil, false
	}

	family, ok := surface.Classify(info.descriptor())
	if !ok {
		r.ignored[info.ID] = struct{}{}
		return nil, false
	}
	s := &domSurface{id: info.ID, family: family, page: r.page}
	r.known[info.ID] = s
	return s, true
}
