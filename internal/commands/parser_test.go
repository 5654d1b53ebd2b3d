// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Command
	}{
		{
			name:  "suffix improve consumes everything",
			input: "Hello world/ai",
			want: Command{
				Kind: KindImprove, Source: "Hello world",
				Range: Range{0, 14}, Form: FormSuffix,
			},
		},
		{
			name:  "suffix improve with space",
			input: "Hello world /ai",
			want: Command{
				Kind: KindImprove, Source: "Hello world",
				Range: Range{0, 15}, Form: FormSuffix,
			},
		},
		{
			name:  "suffix elaborate is case-insensitive",
			input: "Ship it /ELABORATE",
			want: Command{
				Kind: KindElaborate, Source: "Ship it",
				Range: Range{0, 18}, Form: FormSuffix,
			},
		},
		{
			name:  "suffix spans lines",
			input: "line one\nline two /ai",
			want: Command{
				Kind: KindImprove, Source: "line one\nline two",
				Range: Range{0, 21}, Form: FormSuffix,
			},
		},
		{
			name:  "block translate with language",
			input: "/s Hello there /e /translate Spanish",
			want: Command{
				Kind: KindTranslate, Source: "Hello there", Language: "Spanish",
				Range: Range{0, 36}, Form: FormBlock,
			},
		},
		{
			name:  "block short translate defaults to English",
			input: "/s Hi /e /t",
			want: Command{
				Kind: KindTranslate, Source: "Hi", Language: "English",
				Range: Range{0, 11}, Form: FormBlock,
			},
		},
		{
			name:  "block argument drops a closing marker",
			input: "/s a /e /t French/",
			want: Command{
				Kind: KindTranslate, Source: "a", Language: "French",
				Range: Range{0, 18}, Form: FormBlock,
			},
		},
		{
			name:  "block argument that is only a marker takes the default",
			input: "/s a /e /t /END",
			want: Command{
				Kind: KindTranslate, Source: "a", Language: "English",
				Range: Range{0, 15}, Form: FormBlock,
			},
		},
		{
			name:  "block long markers",
			input: "Dear team, /start pls fix asap /end /ai",
			want: Command{
				Kind: KindImprove, Source: "pls fix asap",
				Range: Range{11, 39}, Form: FormBlock,
			},
		},
		{
			name:  "block argument ignored for improve",
			input: "/s text /e /ai please",
			want: Command{
				Kind: KindImprove, Source: "text",
				Range: Range{0, 21}, Form: FormBlock,
			},
		},
		{
			name:  "block wins over suffix",
			input: "Intro /S body /E /AI",
			want: Command{
				Kind: KindImprove, Source: "body",
				Range: Range{6, 20}, Form: FormBlock,
			},
		},
		{
			name:  "block body may span lines",
			input: "keep\n/s first\nsecond /e /elaborate",
			want: Command{
				Kind: KindElaborate, Source: "first\nsecond",
				Range: Range{5, 34}, Form: FormBlock,
			},
		},
		{
			name:  "delimited translate with slash",
			input: "Hola amigo /translate French/",
			want: Command{
				Kind: KindTranslate, Source: "Hola amigo", Language: "French",
				Range: Range{11, 29}, Form: FormDelimited,
			},
		},
		{
			name:  "delimited short keyword and end marker",
			input: "Good morning /t Brazilian Portuguese /e",
			want: Command{
				Kind: KindTranslate, Source: "Good morning", Language: "Brazilian Portuguese",
				Range: Range{13, 39}, Form: FormDelimited,
			},
		},
		{
			name:  "trailing whitespace is consumed",
			input: "Hello /ai  \n",
			want: Command{
				Kind: KindImprove, Source: "Hello",
				Range: Range{0, 12}, Form: FormSuffix,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Parse(tc.input)
			require.True(t, ok, "expected a command in %q", tc.input)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tc.input, diff)
			}
			assert.True(t, got.Range.Start >= 0 && got.Range.Start <= got.Range.End && got.Range.End <= len(tc.input))
		})
	}
}

func TestParse_NoMatch(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"just some text",
		"/ai",
		"   /ai   ",
		"the /ai keyword mid text",
		"Hello /translate Spanish",
		"Hello /t Spanish",
		"Hello /translate",
		"Hello /t",
		"/s   /e /ai",
		"/s/e /ai",
		"Hello /translate  /",
		"/s text /e /summarize",
		"Hello /unknown",
		"Hello /e",
	}

	for _, input := range tests {
		if got, ok := Parse(input); ok {
			t.Errorf("Parse(%q) = %+v, want no match", input, got)
		}
	}
}

func TestParse_BlockRangeIndependentOfLeadingText(t *testing.T) {
	block := "/start make this better /end /ai"
	for _, lead := range []string{"", "x", "Some intro.\n", "a /ai b ", strings.Repeat("word ", 50)} {
		input := lead + block
		got, ok := Parse(input)
		require.True(t, ok, "input %q", input)
		assert.Equal(t, FormBlock, got.Form)
		assert.Equal(t, "make this better", got.Source)
		assert.Equal(t, Range{len(lead), len(input)}, got.Range)
	}
}

func TestParse_BlockPrefersLeftmostStartAndShortestBody(t *testing.T) {
	input := "/s one /e two /s three /e /ai"
	got, ok := Parse(input)
	require.True(t, ok)
	// The leftmost start marker is kept, so the body runs to the only valid tail.
	assert.Equal(t, "one /e two /s three", got.Source)
	assert.Equal(t, 0, got.Range.Start)
}

func TestParse_SuffixNeverTranslates(t *testing.T) {
	for _, input := range []string{
		"Hello /translate",
		"Hello/translate",
		"Hello /translate German",
		"Hello /T German",
	} {
		got, ok := Parse(input)
		if ok {
			assert.NotEqual(t, FormSuffix, got.Form, "input %q", input)
		}
	}
}

func TestParse_EmptySourceDoesNotFallThrough(t *testing.T) {
	// The block form matches with an empty body; the suffix form would
	// otherwise take "/s /e" as source.
	_, ok := Parse("/s /e /ai")
	assert.False(t, ok)
}

func TestParse_DefaultLanguageOption(t *testing.T) {
	p := NewParser(WithDefaultLanguage("German"))
	got, ok := p.Parse("/s Hi /e /translate")
	require.True(t, ok)
	assert.Equal(t, "German", got.Language)

	got, ok = p.Parse("/s Hi /e /t Italian")
	require.True(t, ok)
	assert.Equal(t, "Italian", got.Language)
}

func TestParse_LanguageOnlyForTranslate(t *testing.T) {
	got, ok := Parse("/s Hi /e /elaborate Spanish")
	require.True(t, ok)
	assert.Equal(t, KindElaborate, got.Kind)
	assert.Empty(t, got.Language)
}

func TestCommandApply(t *testing.T) {
	input := "Dear team, /s pls fix /e /ai"
	cmd, ok := Parse(input)
	require.True(t, ok)
	assert.Equal(t, "Dear team, Please fix this.", cmd.Apply(input, "Please fix this."))

	input = "hey /ai"
	cmd, ok = Parse(input)
	require.True(t, ok)
	assert.Equal(t, "Hello.", cmd.Apply(input, "Hello."))

	// A range past the end of a shorter text is clamped.
	short := Command{Range: Range{5, 50}}
	assert.Equal(t, "abcX", short.Apply("abc", "X"))
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("Translate")
	require.True(t, ok)
	assert.Equal(t, KindTranslate, k)
	assert.True(t, k.TakesArgument())

	_, ok = ParseKind("summarize")
	assert.False(t, ok)
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	kw, ok := r.Lookup("/AI")
	require.True(t, ok)
	assert.Equal(t, KindImprove, kw.Kind)

	assert.Len(t, r.ForKind(KindTranslate), 2)
	assert.Equal(t, "/translate", r.ForKind(KindTranslate)[0].Spelling)

	_, ok = r.Lookup("/nope")
	assert.False(t, ok)
}

// =============================================================================
// COMPLETION TESTS
// =============================================================================

func TestComplete(t *testing.T) {
	c := NewCompleter(nil)

	got := c.Complete("Some text /tr")
	require.Len(t, got, 1)
	assert.Equal(t, "/translate", got[0].Value)

	got = c.Complete("Some text /e")
	values := make([]string, 0, len(got))
	for _, comp := range got {
		values = append(values, comp.Value)
	}
	assert.Equal(t, []string{"/e", "/end", "/elaborate"}, values)

	assert.Empty(t, c.Complete("no slash here"))
	assert.Empty(t, c.Complete("trailing space /ai "))
	assert.Empty(t, c.Complete("/xyz"))
}
