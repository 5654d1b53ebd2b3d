// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package surface

import (
	"fmt"
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxDepth bounds recursion on pathological markup.
const maxDepth = 256

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true,
	atom.Blockquote: true, atom.Dd: true, atom.Div: true, atom.Dl: true,
	atom.Dt: true, atom.Fieldset: true, atom.Figcaption: true,
	atom.Figure: true, atom.Footer: true, atom.Form: true, atom.H1: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true,
	atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Table: true, atom.Tr: true, atom.Ul: true,
}

var skippedElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Template: true,
	atom.Noscript: true, atom.Head: true,
}

// Render returns the visible text of an HTML fragment: block elements and
// <br> become line breaks, whitespace runs collapse, and script and style
// content is skipped.
func Render(markup string) (string, error) {
	parent := &xhtml.Node{Type: xhtml.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := xhtml.ParseFragment(strings.NewReader(markup), parent)
	if err != nil {
		return "", fmt.Errorf("failed to parse markup: %w", err)
	}

	r := &renderer{}
	for _, n := range nodes {
		r.walk(n, 0, false)
	}
	return r.text(), nil
}

type renderer struct {
	sb strings.Builder
}

func (r *renderer) walk(n *xhtml.Node, depth int, pre bool) {
	if depth > maxDepth {
		return
	}

	switch n.Type {
	case xhtml.TextNode:
		if pre {
			r.sb.WriteString(n.Data)
		} else {
			r.sb.WriteString(collapse(n.Data))
		}
		return
	case xhtml.ElementNode:
		if skippedElements[n.DataAtom] {
			return
		}
		if n.DataAtom == atom.Br {
			r.sb.WriteByte('\n')
			return
		}
	case xhtml.CommentNode, xhtml.DoctypeNode:
		return
	}

	block := n.Type == xhtml.ElementNode && blockElements[n.DataAtom]
	if block {
		r.lineBreak()
	}
	childPre := pre || n.DataAtom == atom.Pre
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c, depth+1, childPre)
	}
	if block {
		r.lineBreak()
	}
}

// lineBreak ends the current line unless it is already empty.
func (r *renderer) lineBreak() {
	s := r.sb.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		r.sb.WriteByte('\n')
	}
}

// text trims each line the way a browser drops collapsible edge spaces.
func (r *renderer) text() string {
	lines := strings.Split(r.sb.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Trim(line, " ")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// collapse folds runs of ASCII whitespace into one space. Non-breaking
// spaces survive.
func collapse(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				sb.WriteByte(' ')
				space = true
			}
		default:
			sb.WriteRune(r)
			space = false
		}
	}
	return sb.String()
}

// Markup converts plain text to escaped markup with <br> line breaks.
func Markup(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = html.EscapeString(line)
	}
	return strings.Join(lines, "<br>")
}
