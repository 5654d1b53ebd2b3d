// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transform

import (
	"fmt"
	"strings"

	"github.com/jeranaias/slashwrite/internal/commands"
)

// Placeholders substituted into prompt templates.
const (
	PlaceholderText     = "{text}"
	PlaceholderLanguage = "{language}"
)

// Default prompt templates, one per command kind.
const (
	DefaultImprovePrompt   = "Rewrite the following text to make it more professional:\n\n{text}\n\nImproved text:"
	DefaultElaboratePrompt = "Elaborate on the following text with more detail but keep it to the point. Don't write more than thrice the words there were initially.:\n\n{text}\n\nElaborated text:"
	DefaultTranslatePrompt = "Translate the following text into {language}:\n\n{text}\n\nTranslation:"
)

// Prompts holds the template for each command kind.
type Prompts struct {
	Improve   string
	Elaborate string
	Translate string
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() Prompts {
	return Prompts{
		Improve:   DefaultImprovePrompt,
		Elaborate: DefaultElaboratePrompt,
		Translate: DefaultTranslatePrompt,
	}
}

// withDefaults fills empty templates from the built-ins.
func (p Prompts) withDefaults() Prompts {
	d := DefaultPrompts()
	if strings.TrimSpace(p.Improve) == "" {
		p.Improve = d.Improve
	}
	if strings.TrimSpace(p.Elaborate) == "" {
		p.Elaborate = d.Elaborate
	}
	if strings.TrimSpace(p.Translate) == "" {
		p.Translate = d.Translate
	}
	return p
}

// Template returns the template for kind.
func (p Prompts) Template(kind commands.Kind) (string, bool) {
	switch kind {
	case commands.KindImprove:
		return p.Improve, true
	case commands.KindElaborate:
		return p.Elaborate, true
	case commands.KindTranslate:
		return p.Translate, true
	}
	return "", false
}

// Render builds the prompt for req.
func (p Prompts) Render(req Request) (string, error) {
	tmpl, ok := p.Template(req.Kind)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}
	if req.Kind.TakesArgument() && strings.TrimSpace(req.Language) == "" {
		return "", ErrMissingLanguage
	}
	r := strings.NewReplacer(
		PlaceholderText, req.Source,
		PlaceholderLanguage, req.Language,
	)
	return r.Replace(tmpl), nil
}
