// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/rigrun-chat/internal/config"
)

// Theme holds the styled components for one theme mode.
type Theme struct {
	Mode    config.Theme
	Palette Palette

	// ColorProfile is what the terminal supports. Ascii drops every escape
	// sequence; borders and padding still apply.
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER AND STATUS
	// ==========================================================================

	Header       lipgloss.Style
	HeaderTitle  lipgloss.Style
	HeaderMeta   lipgloss.Style
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Spinner      lipgloss.Style
	Composing    lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	RoleLabel       lipgloss.Style
	Timestamp       lipgloss.Style
	Selected        lipgloss.Style
	RatingActive    lipgloss.Style
	RatingIdle      lipgloss.Style
	AttachmentChip  lipgloss.Style
	QuickPrompt     lipgloss.Style

	// ==========================================================================
	// DOCUMENT BLOCKS
	// ==========================================================================

	Plain      lipgloss.Style
	Heading    [6]lipgloss.Style
	Bold       lipgloss.Style
	Italic     lipgloss.Style
	InlineCode lipgloss.Style
	Link       lipgloss.Style
	QuoteBar   lipgloss.Style
	Bullet     lipgloss.Style
	Rule       lipgloss.Style

	CodeBlock     lipgloss.Style
	CodeLangBadge lipgloss.Style
	CodeLineNum   lipgloss.Style

	TableHeader lipgloss.Style
	TableCell   lipgloss.Style
	TableBorder lipgloss.Style

	Action         lipgloss.Style
	ActionCopied   lipgloss.Style
	Menu           lipgloss.Style
	MenuItem       lipgloss.Style
	MenuItemActive lipgloss.Style

	// ==========================================================================
	// INPUT AND FEEDBACK
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
}

// NewTheme builds the theme for mode using the terminal's color profile.
func NewTheme(mode config.Theme) *Theme {
	return NewThemeWithProfile(mode, termenv.ColorProfile())
}

// NewThemeWithProfile builds the theme for an explicit color profile.
func NewThemeWithProfile(mode config.Theme, profile termenv.Profile) *Theme {
	t := &Theme{
		Mode:         mode,
		Palette:      PaletteFor(mode),
		ColorProfile: profile,
		Width:        80,
	}
	t.initStyles()
	return t
}

// Toggle returns the theme for the other mode, keeping dimensions.
func (t *Theme) Toggle() *Theme {
	next := NewThemeWithProfile(t.Mode.Toggle(), t.ColorProfile)
	next.SetSize(t.Width, t.Height)
	return next
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// BubbleWidth is the width of a message bubble: most of the screen, never
// less than 20 columns.
func (t *Theme) BubbleWidth() int {
	return max(t.Width*4/5, 20)
}

func (t *Theme) initStyles() {
	p := t.Palette
	renderer := lipgloss.NewRenderer(io.Discard)
	renderer.SetColorProfile(t.ColorProfile)
	renderer.SetHasDarkBackground(t.Mode == config.ThemeDark)
	style := renderer.NewStyle

	// Header and status
	t.Header = style().
		Foreground(p.Text).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(p.Border).
		Padding(0, 1)
	t.HeaderTitle = style().Bold(true).Foreground(p.Text)
	t.HeaderMeta = style().Foreground(p.TextMuted)
	t.StatusBar = style().Foreground(p.TextMuted).Padding(0, 1)
	t.ShortcutKey = style().Bold(true).Foreground(p.Accent)
	t.ShortcutDesc = style().Foreground(p.TextMuted)
	t.Spinner = style().Foreground(p.Accent)
	t.Composing = style().Italic(true).Foreground(p.TextMuted)

	// Messages
	t.UserBubble = style().
		Foreground(p.UserFg).
		Background(p.UserBg).
		Padding(0, 1)
	t.AssistantBubble = style().
		Foreground(p.AssistantFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)
	t.RoleLabel = style().Bold(true).Foreground(p.TextMuted)
	t.Timestamp = style().Foreground(p.TextFaint)
	t.Selected = style().BorderForeground(p.Accent)
	t.RatingActive = style().Bold(true).Foreground(p.Accent)
	t.RatingIdle = style().Foreground(p.TextFaint)
	t.AttachmentChip = style().
		Foreground(p.Text).
		Background(p.SurfaceDim).
		Padding(0, 1)
	t.QuickPrompt = style().
		Foreground(p.Text).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)

	// Document blocks
	t.Plain = style()
	for i := range t.Heading {
		t.Heading[i] = style().Bold(true).Foreground(p.Text)
	}
	t.Heading[0] = t.Heading[0].Underline(true)
	t.Heading[1] = t.Heading[1].Foreground(p.Accent)
	t.Bold = style().Bold(true)
	t.Italic = style().Italic(true)
	t.InlineCode = style().Foreground(p.InlineCodeFg)
	t.Link = style().Foreground(p.Link).Underline(true)
	t.QuoteBar = style().Foreground(p.Border)
	t.Bullet = style().Foreground(p.TextMuted)
	t.Rule = style().Foreground(p.Border)

	t.CodeBlock = style().
		Background(p.CodeBg).
		Padding(0, 1)
	t.CodeLangBadge = style().Bold(true).Foreground(p.TextMuted)
	t.CodeLineNum = style().Foreground(p.TextFaint)

	t.TableHeader = style().Bold(true).Foreground(p.Text)
	t.TableCell = style().Foreground(p.Text)
	t.TableBorder = style().Foreground(p.Border)

	t.Action = style().Foreground(p.TextMuted)
	t.ActionCopied = style().Bold(true).Foreground(p.Success)
	t.Menu = style().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)
	t.MenuItem = style().Foreground(p.Text)
	t.MenuItemActive = style().Bold(true).Foreground(p.Accent)

	// Input and feedback
	t.InputContainer = style().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)
	t.InputPrompt = style().Bold(true).Foreground(p.Accent)
	t.InputPlaceholder = style().Foreground(p.TextFaint)

	t.Muted = style().Foreground(p.TextMuted)
	t.Success = style().Bold(true).Foreground(p.Success)
	t.Warning = style().Bold(true).Foreground(p.Warning)
	t.Error = style().Bold(true).Foreground(p.Error)
	t.Info = style().Foreground(p.Accent)
}

// RenderError renders an error with its ASCII marker.
func (t *Theme) RenderError(message string) string {
	return t.Error.Render(StatusIndicators.Error + " " + message)
}

// RenderSuccess renders a success message with its ASCII marker.
func (t *Theme) RenderSuccess(message string) string {
	return t.Success.Render(StatusIndicators.Success + " " + message)
}

// RenderWarning renders a warning with its ASCII marker.
func (t *Theme) RenderWarning(message string) string {
	return t.Warning.Render(StatusIndicators.Warning + " " + message)
}

// RenderInfo renders an informational message with its ASCII marker.
func (t *Theme) RenderInfo(message string) string {
	return t.Info.Render(StatusIndicators.Info + " " + message)
}
