// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigrun-chat/internal/config"
)

// =============================================================================
// PALETTE
// =============================================================================

// Palette is the set of colors for one theme mode. The mode is chosen by
// the user and persisted, so colors are concrete rather than adaptive.
type Palette struct {
	// Surfaces
	Background lipgloss.Color
	Surface    lipgloss.Color
	SurfaceDim lipgloss.Color
	Border     lipgloss.Color

	// Text
	Text         lipgloss.Color
	TextMuted    lipgloss.Color
	TextFaint    lipgloss.Color
	TextOnAccent lipgloss.Color

	// Accents
	Accent  lipgloss.Color
	Link    lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	// Bubbles
	UserBg      lipgloss.Color
	UserFg      lipgloss.Color
	AssistantBg lipgloss.Color
	AssistantFg lipgloss.Color

	// Code
	CodeBg       lipgloss.Color
	InlineCodeFg lipgloss.Color

	// ChromaStyle names the chroma style for syntax highlighting.
	ChromaStyle string
}

// LightPalette mirrors the light web theme: white surfaces, blue user
// bubbles, gray assistant bubbles.
var LightPalette = Palette{
	Background: "#F9FAFB",
	Surface:    "#FFFFFF",
	SurfaceDim: "#F3F4F6",
	Border:     "#E5E7EB",

	Text:         "#111827",
	TextMuted:    "#6B7280",
	TextFaint:    "#9CA3AF",
	TextOnAccent: "#FFFFFF",

	Accent:  "#2563EB",
	Link:    "#2563EB",
	Success: "#15803D",
	Warning: "#D97706",
	Error:   "#DC2626",

	UserBg:      "#2563EB",
	UserFg:      "#FFFFFF",
	AssistantBg: "#F3F4F6",
	AssistantFg: "#111827",

	CodeBg:       "#1F2937",
	InlineCodeFg: "#BE185D",

	ChromaStyle: "github",
}

// DarkPalette is the dark counterpart.
var DarkPalette = Palette{
	Background: "#111827",
	Surface:    "#1F2937",
	SurfaceDim: "#374151",
	Border:     "#4B5563",

	Text:         "#F3F4F6",
	TextMuted:    "#9CA3AF",
	TextFaint:    "#6B7280",
	TextOnAccent: "#FFFFFF",

	Accent:  "#3B82F6",
	Link:    "#60A5FA",
	Success: "#22C55E",
	Warning: "#F59E0B",
	Error:   "#EF4444",

	UserBg:      "#1D4ED8",
	UserFg:      "#FFFFFF",
	AssistantBg: "#1F2937",
	AssistantFg: "#F3F4F6",

	CodeBg:       "#0B1220",
	InlineCodeFg: "#F472B6",

	ChromaStyle: "monokai",
}

// PaletteFor returns the palette for a theme mode.
func PaletteFor(mode config.Theme) Palette {
	if mode == config.ThemeDark {
		return DarkPalette
	}
	return LightPalette
}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicators are ASCII markers shown next to colored status text so
// the state is readable without color.
var StatusIndicators = struct {
	Success string
	Error   string
	Warning string
	Info    string
}{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
}
