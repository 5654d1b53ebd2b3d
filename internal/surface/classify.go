// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package surface

import "strings"

// Family selects a read/write strategy.
type Family string

const (
	FamilyField Family = "field"
	FamilyRich  Family = "rich"
)

// Descriptor is what a host knows about an element when first observing it.
type Descriptor struct {
	Tag             string
	Type            string // input type attribute
	ContentEditable bool
	Classes         []string
}

// richClasses mark editors that keep their text in rendered markup.
var richClasses = map[string]struct{}{
	"ql-editor":  {},
	"cm-editor":  {},
	"cm-content": {},
}

// textInputTypes are the input types that hold freeform text. Passwords are
// never surfaces.
var textInputTypes = map[string]struct{}{
	"":       {},
	"text":   {},
	"search": {},
	"email":  {},
	"url":    {},
	"tel":    {},
}

// Classify picks the family for an element, or reports false when the
// element is not an editing surface.
func Classify(d Descriptor) (Family, bool) {
	switch strings.ToLower(d.Tag) {
	case "textarea":
		return FamilyField, true
	case "input":
		if _, ok := textInputTypes[strings.ToLower(d.Type)]; ok {
			return FamilyField, true
		}
		return "", false
	}

	if d.ContentEditable {
		return FamilyRich, true
	}
	for _, c := range d.Classes {
		if _, ok := richClasses[c]; ok {
			return FamilyRich, true
		}
	}
	return "", false
}
