// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the slashwrite terminal
editor.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. Theme bundles the styles for the header, the editor, the
suggestion box and the hint bar; NewTheme probes the terminal with termenv.

The Render* helpers print accessible status lines (shape indicator plus
high contrast color) for CLI output.
*/
package styles
