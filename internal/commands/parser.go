// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultLanguage is used when a translate command omits its argument.
const DefaultLanguage = "English"

// =============================================================================
// PARSE RESULT
// =============================================================================

// Form names the syntax a command was written in.
type Form string

const (
	FormBlock     Form = "block"
	FormSuffix    Form = "suffix"
	FormDelimited Form = "delimited"
)

// Range is a half-open [Start, End) byte range into the scanned text.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered.
func (r Range) Len() int {
	return r.End - r.Start
}

// Command is the result of a successful parse. It is a value; every parse
// produces a fresh one.
type Command struct {
	// Kind is the requested transformation
	Kind Kind

	// Source is the trimmed text to transform (never empty)
	Source string

	// Language is set only for KindTranslate
	Language string

	// Range is what acceptance replaces in the scanned text
	Range Range

	// Form is the syntax that matched
	Form Form
}

// Apply returns text with the command's range replaced by replacement.
// The range is clamped to text so a shorter text never panics.
func (c Command) Apply(text, replacement string) string {
	start := clamp(c.Range.Start, 0, len(text))
	end := clamp(c.Range.End, start, len(text))
	return text[:start] + replacement + text[end:]
}

// =============================================================================
// PARSER
// =============================================================================

// Parser recognizes commands at the end of freeform text.
type Parser struct {
	registry        *Registry
	defaultLanguage string
}

// Option configures a Parser.
type Option func(*Parser)

// WithDefaultLanguage sets the language used when translate has no argument.
func WithDefaultLanguage(lang string) Option {
	return func(p *Parser) {
		if strings.TrimSpace(lang) != "" {
			p.defaultLanguage = strings.TrimSpace(lang)
		}
	}
}

// WithRegistry replaces the built-in keyword registry.
func WithRegistry(r *Registry) Option {
	return func(p *Parser) {
		if r != nil {
			p.registry = r
		}
	}
}

// NewParser creates a parser with the built-in keywords.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		registry:        NewRegistry(),
		defaultLanguage: DefaultLanguage,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the parser's keyword registry.
func (p *Parser) Registry() *Registry {
	return p.registry
}

var defaultParser = NewParser()

// Parse parses text with the default parser.
func Parse(text string) (Command, bool) {
	return defaultParser.Parse(text)
}

// match is what a single form extracts before trimming and range policy.
type match struct {
	kind     Kind
	source   string
	language string
	start    int
}

// Parse tries the block, suffix and delimited forms in that order against
// the right-trimmed text. The first form that matches decides the result;
// an empty source in that form is no match.
func (p *Parser) Parse(text string) (Command, bool) {
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	if trimmed == "" {
		return Command{}, false
	}

	forms := []struct {
		form Form
		fn   func(string) (match, bool)
	}{
		{FormBlock, p.parseBlock},
		{FormSuffix, p.parseSuffix},
		{FormDelimited, p.parseDelimited},
	}

	for _, f := range forms {
		m, ok := f.fn(trimmed)
		if !ok {
			continue
		}
		source := strings.TrimSpace(m.source)
		if source == "" {
			return Command{}, false
		}
		cmd := Command{
			Kind:     m.kind,
			Source:   source,
			Language: m.language,
			Form:     f.form,
			Range:    Range{Start: m.start, End: len(text)},
		}
		// Without block markers there is no safe partial boundary.
		if f.form == FormSuffix {
			cmd.Range.Start = 0
		}
		return cmd, true
	}
	return Command{}, false
}

// =============================================================================
// BLOCK FORM
// =============================================================================

// blockTail is a valid "end-marker WS keyword [WS+ argument]" suffix.
type blockTail struct {
	at       int // where the end marker begins
	kind     Kind
	argument string
}

// parseBlock matches "/start body /end /keyword [argument]". The leftmost
// start marker wins, and for it the shortest body that reaches a valid tail.
func (p *Parser) parseBlock(s string) (match, bool) {
	tails := p.blockTails(s)
	if len(tails) == 0 {
		return match{}, false
	}

	for i := 0; i < len(s); i++ {
		if s[i] != '/' {
			continue
		}
		for _, marker := range startMarkers {
			if !hasPrefixFold(s[i:], marker) {
				continue
			}
			bodyStart := i + len(marker)
			t, ok := nearestTail(tails, bodyStart)
			if !ok {
				continue
			}
			m := match{
				kind:   t.kind,
				source: s[bodyStart:t.at],
				start:  i,
			}
			if t.kind.TakesArgument() {
				m.language = trimClosingMarker(t.argument)
				if m.language == "" {
					m.language = p.defaultLanguage
				}
			}
			return m, true
		}
	}
	return match{}, false
}

// blockTails finds every position where a block tail can start. The tail is
// anchored at the end of s, so there are at most a couple of candidates.
func (p *Parser) blockTails(s string) []blockTail {
	var tails []blockTail

	// With an argument: the last whitespace-free run is the argument and the
	// keyword ends where the whitespace before it begins.
	if argStart := lastSpaceEnd(s); argStart > 0 && argStart < len(s) {
		kwEnd := strings.TrimRightFunc(s[:argStart], unicode.IsSpace)
		if t, ok := p.tailBeforeKeyword(kwEnd); ok {
			t.argument = s[argStart:]
			tails = append(tails, t)
		}
	}

	// Without an argument: the keyword ends the text.
	if t, ok := p.tailBeforeKeyword(s); ok {
		tails = append(tails, t)
	}

	// Keep ascending order so nearestTail can stop at the first hit.
	if len(tails) == 2 && tails[1].at < tails[0].at {
		tails[0], tails[1] = tails[1], tails[0]
	}
	return tails
}

// tailBeforeKeyword checks that s ends with "end-marker WS keyword".
func (p *Parser) tailBeforeKeyword(s string) (blockTail, bool) {
	for _, kw := range p.registry.keywords {
		if !hasSuffixFold(s, kw.Spelling) {
			continue
		}
		rest := s[:len(s)-len(kw.Spelling)]
		r, size := utf8.DecodeLastRuneInString(rest)
		if size == 0 || !unicode.IsSpace(r) {
			continue
		}
		rest = rest[:len(rest)-size]
		for _, marker := range endMarkers {
			if hasSuffixFold(rest, marker) {
				return blockTail{at: len(rest) - len(marker), kind: kw.Kind}, true
			}
		}
	}
	return blockTail{}, false
}

func nearestTail(tails []blockTail, from int) (blockTail, bool) {
	for _, t := range tails {
		if t.at >= from {
			return t, true
		}
	}
	return blockTail{}, false
}

// =============================================================================
// SIMPLE SUFFIX FORM
// =============================================================================

// parseSuffix matches "text/keyword" for keywords that take no argument.
// Translate is deliberately absent so it always needs markers or a closing
// delimiter.
func (p *Parser) parseSuffix(s string) (match, bool) {
	for _, kw := range p.registry.withoutArgument() {
		if hasSuffixFold(s, kw.Spelling) {
			return match{
				kind:   kw.Kind,
				source: s[:len(s)-len(kw.Spelling)],
				start:  0,
			}, true
		}
	}
	return match{}, false
}

// =============================================================================
// DELIMITED-ARGUMENT FORM
// =============================================================================

// parseDelimited matches "text /translate language/" where the closing
// marker is "/", "/e" or "/end". The argument cannot contain a slash, so the
// keyword starts at the slash before the closing marker.
func (p *Parser) parseDelimited(s string) (match, bool) {
	closeAt := strings.LastIndexByte(s, '/')
	if closeAt < 0 || !isClosingMarker(s[closeAt:]) {
		return match{}, false
	}
	kwAt := strings.LastIndexByte(s[:closeAt], '/')
	if kwAt < 0 {
		return match{}, false
	}
	segment := s[kwAt:closeAt]

	for _, kw := range p.registry.keywords {
		if !kw.Kind.TakesArgument() || !hasPrefixFold(segment, kw.Spelling) {
			continue
		}
		rest := segment[len(kw.Spelling):]
		r, size := utf8.DecodeRuneInString(rest)
		if size == 0 || !unicode.IsSpace(r) || len(rest) == size {
			continue
		}
		language := strings.TrimSpace(rest[size:])
		if language == "" {
			return match{}, false
		}
		return match{
			kind:     kw.Kind,
			source:   s[:kwAt],
			language: language,
			start:    kwAt,
		}, true
	}
	return match{}, false
}

func isClosingMarker(s string) bool {
	for _, m := range closingMarkers {
		if strings.EqualFold(s, m) {
			return true
		}
	}
	return false
}

// trimClosingMarker drops one trailing closing marker, so "French/" and
// "French/end" both name French.
func trimClosingMarker(s string) string {
	for _, m := range closingMarkers {
		if hasSuffixFold(s, m) {
			return s[:len(s)-len(m)]
		}
	}
	return s
}

// =============================================================================
// HELPERS
// =============================================================================

// hasPrefixFold reports whether s begins with prefix, ignoring case.
func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// hasSuffixFold reports whether s ends with suffix, ignoring case.
func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

// lastSpaceEnd returns the index just past the last whitespace rune in s,
// or 0 if s has none.
func lastSpaceEnd(s string) int {
	i := strings.LastIndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return 0
	}
	_, size := utf8.DecodeRuneInString(s[i:])
	return i + size
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
