// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strings"
	"unicode"
)

// =============================================================================
// COMPLETION
// =============================================================================

// Completion is a keyword or marker the user may be in the middle of typing.
type Completion struct {
	Value       string
	Description string
	Score       int
}

// Completer suggests keywords for the trailing token of the text.
type Completer struct {
	registry *Registry
}

// NewCompleter creates a completer over the given registry.
func NewCompleter(registry *Registry) *Completer {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Completer{registry: registry}
}

// Complete returns completions for the slash token at the end of text.
// Text that does not end in a partial slash token yields nothing.
func (c *Completer) Complete(text string) []Completion {
	partial := trailingToken(text)
	if !strings.HasPrefix(partial, "/") {
		return nil
	}

	var out []Completion
	add := func(value, desc string) {
		if hasPrefixFold(value, partial) {
			out = append(out, Completion{
				Value:       value,
				Description: desc,
				Score:       calculateScore(value, partial),
			})
		}
	}

	for _, kw := range c.registry.keywords {
		add(kw.Spelling, kw.Description)
	}
	for _, m := range startMarkers {
		add(m, "Start of the text to transform")
	}
	for _, m := range endMarkers {
		add(m, "End of the text to transform")
	}

	sortCompletions(out)
	return out
}

// trailingToken returns the whitespace-free run at the very end of text.
func trailingToken(text string) string {
	i := strings.LastIndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return text
	}
	return text[lastSpaceEnd(text):]
}

// calculateScore ranks completions. Higher score = better match.
func calculateScore(value, partial string) int {
	value = strings.ToLower(value)
	partial = strings.ToLower(partial)

	score := 100
	if value == partial {
		return score + 100
	}
	if strings.HasPrefix(value, partial) {
		score += 50
		score += 20 - len(value)
	}
	score -= len(value) / 2
	return score
}

// sortCompletions sorts completions by score (descending), then alphabetically.
func sortCompletions(completions []Completion) {
	sort.Slice(completions, func(i, j int) bool {
		if completions[i].Score != completions[j].Score {
			return completions[i].Score > completions[j].Score
		}
		return completions[i].Value < completions[j].Value
	})
}
