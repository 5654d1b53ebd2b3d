// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import "strings"

// =============================================================================
// COMMAND KINDS
// =============================================================================

// Kind identifies which transformation a command asks for.
type Kind string

const (
	KindImprove   Kind = "improve"
	KindElaborate Kind = "elaborate"
	KindTranslate Kind = "translate"
)

// Kinds lists every recognized kind in registration order.
var Kinds = []Kind{KindImprove, KindElaborate, KindTranslate}

// TakesArgument reports whether the kind carries an argument (the language).
func (k Kind) TakesArgument() bool {
	return k == KindTranslate
}

// ParseKind maps a kind name back to a Kind.
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds {
		if strings.EqualFold(string(k), name) {
			return k, true
		}
	}
	return "", false
}

// =============================================================================
// KEYWORDS AND MARKERS
// =============================================================================

// Keyword is one spelling of a command keyword.
type Keyword struct {
	// Spelling is the slash-prefixed text typed by the user (e.g., "/ai")
	Spelling string

	// Kind is the command the spelling resolves to
	Kind Kind

	// Description is shown in completion hints
	Description string
}

// Block markers. Long spellings come first so they are tried first at any
// given position.
var (
	startMarkers = []string{"/start", "/s"}
	endMarkers   = []string{"/end", "/e"}

	// closingMarkers terminate the delimited-argument form.
	closingMarkers = []string{"/end", "/e", "/"}
)

// Registry holds the keyword spellings known to the grammar.
type Registry struct {
	keywords []Keyword
	byKind   map[Kind][]Keyword
}

// NewRegistry creates a registry with the built-in keywords.
func NewRegistry() *Registry {
	r := &Registry{byKind: make(map[Kind][]Keyword)}
	r.registerBuiltins()
	return r
}

// Register adds a keyword spelling.
func (r *Registry) Register(kw Keyword) {
	r.keywords = append(r.keywords, kw)
	r.byKind[kw.Kind] = append(r.byKind[kw.Kind], kw)
}

// Lookup resolves a spelling, ignoring case.
func (r *Registry) Lookup(spelling string) (Keyword, bool) {
	for _, kw := range r.keywords {
		if strings.EqualFold(kw.Spelling, spelling) {
			return kw, true
		}
	}
	return Keyword{}, false
}

// All returns every registered keyword.
func (r *Registry) All() []Keyword {
	out := make([]Keyword, len(r.keywords))
	copy(out, r.keywords)
	return out
}

// ForKind returns the spellings of one kind, long spelling first.
func (r *Registry) ForKind(k Kind) []Keyword {
	return r.byKind[k]
}

// withoutArgument returns the spellings usable by the simple suffix form.
func (r *Registry) withoutArgument() []Keyword {
	var out []Keyword
	for _, kw := range r.keywords {
		if !kw.Kind.TakesArgument() {
			out = append(out, kw)
		}
	}
	return out
}

func (r *Registry) registerBuiltins() {
	r.Register(Keyword{
		Spelling:    "/ai",
		Kind:        KindImprove,
		Description: "Rewrite the text to sound more professional",
	})
	r.Register(Keyword{
		Spelling:    "/improve",
		Kind:        KindImprove,
		Description: "Rewrite the text to sound more professional",
	})
	r.Register(Keyword{
		Spelling:    "/elaborate",
		Kind:        KindElaborate,
		Description: "Add detail without tripling the length",
	})
	r.Register(Keyword{
		Spelling:    "/translate",
		Kind:        KindTranslate,
		Description: "Translate the text (language argument, default English)",
	})
	r.Register(Keyword{
		Spelling:    "/t",
		Kind:        KindTranslate,
		Description: "Short form of /translate",
	})
}
