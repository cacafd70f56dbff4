// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/render"
	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE - One chat message with its chrome
// =============================================================================

// Rating controls shown under assistant messages.
const (
	ThumbUpLabel   = "[+]"
	ThumbDownLabel = "[-]"
)

// MessageBubble renders one message. User messages are right-aligned plain
// text; assistant messages are projected documents with copy actions and
// rating controls.
type MessageBubble struct {
	Message       model.Message
	Theme         *styles.Theme
	Width         int
	State         render.State
	Focus         string
	Selected      bool
	ShowTimestamp bool
}

// NewMessageBubble creates a bubble for msg.
func NewMessageBubble(theme *styles.Theme, msg model.Message, width int) MessageBubble {
	return MessageBubble{Message: msg, Theme: theme, Width: width, ShowTimestamp: true}
}

// Tree is the presentation tree the bubble renders for an assistant message.
func (b MessageBubble) Tree() render.Tree {
	return render.ProjectText(b.Message.Content, b.State)
}

// Render returns the bubble as terminal text.
func (b MessageBubble) Render() string {
	if b.Message.Role == model.RoleUser {
		return b.renderUser()
	}
	return b.renderAssistant()
}

// ==========================================================================
// USER BUBBLE
// ==========================================================================

func (b MessageBubble) renderUser() string {
	t := b.Theme
	inner := max(b.bubbleWidth()-2, minContentWidth)

	var parts []string
	if content := strings.TrimSpace(b.Message.Content); content != "" {
		parts = append(parts, strings.Join(wrapPlain(content, inner), "\n"))
	}
	if chips := b.attachments(inner); chips != "" {
		parts = append(parts, chips)
	}
	style := t.UserBubble
	if b.Selected {
		style = style.Bold(true)
	}
	bubble := style.Render(strings.Join(parts, "\n"))

	out := lipgloss.JoinVertical(lipgloss.Right, b.header(), bubble)
	return lipgloss.PlaceHorizontal(b.Width, lipgloss.Right, out)
}

// ==========================================================================
// ASSISTANT BUBBLE
// ==========================================================================

func (b MessageBubble) renderAssistant() string {
	t := b.Theme
	inner := max(b.bubbleWidth()-4, minContentWidth)

	view := NewDocumentView(t, inner)
	view.Focus = b.Focus
	body := view.Render(b.Tree())
	if chips := b.attachments(inner); chips != "" {
		body += "\n\n" + chips
	}

	style := t.AssistantBubble
	if b.Selected {
		style = style.BorderForeground(t.Palette.Accent)
	}
	return lipgloss.JoinVertical(lipgloss.Left, b.header(), style.Render(body), b.ratingLine())
}

func (b MessageBubble) header() string {
	t := b.Theme
	parts := []string{t.RoleLabel.Render(b.Message.Role.DisplayName())}
	if b.ShowTimestamp && !b.Message.CreatedAt.IsZero() {
		parts = append(parts, t.Timestamp.Render(b.Message.CreatedAt.Format("15:04")))
	}
	return strings.Join(parts, " ")
}

func (b MessageBubble) ratingLine() string {
	t := b.Theme
	up, down := t.RatingIdle, t.RatingIdle
	switch b.Message.Rating {
	case model.RatingUp:
		up = t.RatingActive
	case model.RatingDown:
		down = t.RatingActive
	}
	return up.Render(ThumbUpLabel) + " " + down.Render(ThumbDownLabel)
}

// attachments renders one chip per attachment, wrapped to width.
func (b MessageBubble) attachments(width int) string {
	if len(b.Message.Attachments) == 0 {
		return ""
	}
	chips := make([]string, len(b.Message.Attachments))
	for i, a := range b.Message.Attachments {
		chips[i] = AttachmentChip(b.Theme, a)
	}
	return joinWrapped(chips, width)
}

func (b MessageBubble) bubbleWidth() int {
	return min(b.Theme.BubbleWidth(), max(b.Width, minContentWidth))
}

// ==========================================================================
// ATTACHMENTS
// ==========================================================================

// AttachmentChip is the one-line label for an attachment: icon, name and
// size, plus the image dimensions once a preview exists.
func AttachmentChip(theme *styles.Theme, a model.Attachment) string {
	label := a.Kind().Icon() + " " + a.Name + " " + a.FormattedSize()
	if a.HasPreview() && a.Preview.Width > 0 {
		label += " " + strconv.Itoa(a.Preview.Width) + "x" + strconv.Itoa(a.Preview.Height)
	} else if a.IsImage() {
		label += " ..."
	}
	return theme.AttachmentChip.Render(label)
}

// joinWrapped joins chips with spaces, starting a new line when the next
// chip would overflow width.
func joinWrapped(chips []string, width int) string {
	var lines []string
	var line string
	for _, c := range chips {
		switch {
		case line == "":
			line = c
		case lipgloss.Width(line)+1+lipgloss.Width(c) <= width:
			line += " " + c
		default:
			lines = append(lines, line)
			line = c
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

// ==========================================================================
// COMPOSING INDICATOR
// ==========================================================================

// ComposingBubble is the placeholder shown while a reply is being written.
func ComposingBubble(theme *styles.Theme, frame string) string {
	header := theme.RoleLabel.Render(model.RoleAssistant.DisplayName())
	return lipgloss.JoinVertical(lipgloss.Left, header,
		theme.Spinner.Render(frame)+" "+theme.Composing.Render("Assistant is typing..."))
}
