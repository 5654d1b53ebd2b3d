// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package surface provides the editing surface families.
//
// A surface is classified once, when first observed, into a Family that
// fixes how its text is read and written:
//
//   - FamilyField: input and textarea elements; the value is the text.
//   - FamilyRich: contentEditable, Quill and CodeMirror editors; the text is
//     the rendered markup, and writing replaces the markup with plain text.
//
// Field and RichText are in-memory implementations of both families. The
// browser host reuses Render and Markup for its DOM-backed surfaces.
package surface
