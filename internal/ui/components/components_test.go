// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-chat/internal/config"
	"github.com/jeranaias/rigrun-chat/internal/document"
	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/render"
	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
)

func plainTheme() *styles.Theme {
	return styles.NewThemeWithProfile(config.ThemeLight, termenv.Ascii)
}

// trimmed returns the rendered lines with surrounding padding removed.
func trimmed(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

// =============================================================================
// INLINE LAYOUT TESTS
// =============================================================================

func TestLayoutWords_Wraps(t *testing.T) {
	words := spanWords([]document.Span{{Kind: document.SpanPlain, Text: "one two three four five"}}, func(document.Span) lipgloss.Style {
		return plainTheme().Plain
	})
	assert.Equal(t, []string{"one two", "three four", "five"}, layoutWords(words, 10))
}

func TestSpanWords_GluesAdjacentSpans(t *testing.T) {
	spans := document.ParseInline("**bold**text and `code`")
	words := spanWords(spans, func(document.Span) lipgloss.Style { return plainTheme().Plain })

	require.Len(t, words, 4)
	assert.Equal(t, "bold", words[0].text)
	assert.Equal(t, "text", words[1].text)
	assert.True(t, words[1].glued)
	assert.False(t, words[2].glued)
	assert.Equal(t, []string{"boldtext and code"}, layoutWords(words, 40))
}

func TestLayoutWords_LongWordGetsOwnLine(t *testing.T) {
	words := []word{{text: "a", width: 1}, {text: strings.Repeat("x", 15), width: 15}, {text: "b", width: 1}}
	assert.Equal(t, []string{"a", strings.Repeat("x", 15), "b"}, layoutWords(words, 10))
}

func TestAlignCell(t *testing.T) {
	assert.Equal(t, "ab  ", alignCell("ab", 4, document.AlignLeft))
	assert.Equal(t, "  ab", alignCell("ab", 4, document.AlignRight))
	assert.Equal(t, " ab  ", alignCell("ab", 5, document.AlignCenter))
	assert.Equal(t, "abc", alignCell("abc", 2, document.AlignCenter))
}

// =============================================================================
// DOCUMENT VIEW TESTS
// =============================================================================

func TestDocumentView_Blocks(t *testing.T) {
	content := "# Title\n\nSome *text* with a [link](https://example.com).\n\n- one\n- two\n\n3. three\n4. four\n\n> quoted\n\n---"
	out := NewDocumentView(plainTheme(), 60).Render(render.ProjectText(content, render.State{}))
	lines := strings.Split(out, "\n")

	assert.Equal(t, "Title", lines[0])
	assert.Contains(t, out, "Some text with a link (https://example.com).")
	assert.Contains(t, out, "• one\n• two")
	assert.Contains(t, out, "3. three\n4. four")
	assert.Contains(t, out, "│ quoted")
	assert.Equal(t, strings.Repeat("─", 60), lines[len(lines)-1])
}

func TestDocumentView_NestedListIndents(t *testing.T) {
	content := "- parent words that wrap past the edge\n  - child"
	out := NewDocumentView(plainTheme(), 24).Render(render.ProjectText(content, render.State{}))
	lines := strings.Split(out, "\n")

	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[0], "• parent"))
	assert.True(t, strings.HasPrefix(lines[1], "  "), lines[1])
	assert.Contains(t, out, "  • child")
}

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestCodeBlock_HeaderAndLines(t *testing.T) {
	tree := render.ProjectText("```go\nfmt.Println(1)\nfmt.Println(2)\n```", render.State{})
	node := tree.Find("0")
	require.NotNil(t, node)

	lines := trimmed(NewCodeBlock(plainTheme(), node, 40).Render())
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "go"))
	assert.True(t, strings.HasSuffix(lines[0], CopyLabel))
	assert.Equal(t, "1 fmt.Println(1)", lines[1])
	assert.Equal(t, "2 fmt.Println(2)", lines[2])
}

func TestCodeBlock_CopiedFeedback(t *testing.T) {
	tree := render.ProjectText("```\nx\n```", render.State{Copied: "0"})
	out := NewCodeBlock(plainTheme(), tree.Find("0"), 40).Render()

	assert.Contains(t, out, CopiedLabel)
	assert.NotContains(t, out, CopyLabel)
	assert.True(t, strings.HasPrefix(out, "text"))
}

func TestHighlightCode_AsciiIsPassthrough(t *testing.T) {
	code := "package main\n\nfunc main() {}"
	assert.Equal(t, code, highlightCode(code, "go", "monokai", termenv.Ascii))

	colored := highlightCode(code, "go", "monokai", termenv.ANSI256)
	assert.Contains(t, colored, "\x1b[")
	assert.Contains(t, colored, "main")
}

func TestFormatterFor(t *testing.T) {
	assert.Equal(t, "terminal16m", formatterFor(termenv.TrueColor))
	assert.Equal(t, "terminal256", formatterFor(termenv.ANSI256))
	assert.Equal(t, "terminal16", formatterFor(termenv.ANSI))
	assert.Empty(t, formatterFor(termenv.Ascii))
}

// =============================================================================
// TABLE TESTS
// =============================================================================

func TestTable_AlignsColumns(t *testing.T) {
	tree := render.ProjectText("| a | b |\n|---|---:|\n| 1 | 22 |", render.State{})
	lines := strings.Split(NewTable(plainTheme(), tree.Find("0"), 40).Render(), "\n")

	require.Len(t, lines, 4)
	assert.Equal(t, "a │  b", lines[0])
	assert.Equal(t, "──┼───", lines[1])
	assert.Equal(t, "1 │ 22", lines[2])
	assert.Equal(t, CopyAsLabel, lines[3])
}

func TestTable_OpenMenuListsFormats(t *testing.T) {
	tree := render.ProjectText("| a | b |\n|---|---|\n| 1 | 2 |", render.State{OpenMenu: "0"})
	out := NewTable(plainTheme(), tree.Find("0"), 40).Render()

	assert.Contains(t, out, "1 Markdown")
	assert.Contains(t, out, "2 CSV")
	assert.Contains(t, out, "3 Plain Text")
}

func TestTable_ShrinksToWidth(t *testing.T) {
	long := strings.Repeat("w", 30)
	tree := render.ProjectText("| h | g |\n|---|---|\n| "+long+" | x |", render.State{})
	lines := strings.Split(NewTable(plainTheme(), tree.Find("0"), 20).Render(), "\n")

	for _, l := range lines[:3] {
		assert.LessOrEqual(t, lipgloss.Width(l), 20, l)
	}
	assert.Contains(t, lines[2], "...")
}

func TestFitWidths(t *testing.T) {
	assert.Equal(t, []int{5, 5}, fitWidths([]int{5, 5}, 20))
	assert.Equal(t, []int{4, 3}, fitWidths([]int{10, 3}, 10))
	assert.Equal(t, []int{3, 3}, fitWidths([]int{3, 3}, 2))
	assert.Empty(t, fitWidths(nil, 10))
}

// =============================================================================
// MESSAGE BUBBLE TESTS
// =============================================================================

func TestMessageBubble_User(t *testing.T) {
	msg := model.Message{
		Role:      model.RoleUser,
		Content:   "hello there",
		CreatedAt: time.Date(2025, 1, 2, 9, 5, 0, 0, time.UTC),
		Attachments: []model.Attachment{
			{Name: "notes.txt", SizeBytes: 2048, MimeType: "text/plain"},
		},
	}
	out := NewMessageBubble(plainTheme(), msg, 60).Render()

	assert.Contains(t, out, "You 09:05")
	assert.Contains(t, out, "hello there")
	assert.Contains(t, out, "[txt] notes.txt 2 KB")
	for _, l := range strings.Split(out, "\n") {
		assert.Equal(t, 60, lipgloss.Width(l), "user bubbles are right-aligned to the full width")
	}
}

func TestMessageBubble_AssistantRating(t *testing.T) {
	msg := model.Message{Role: model.RoleAssistant, Content: "Sure.", Rating: model.RatingUp}
	out := NewMessageBubble(plainTheme(), msg, 60).Render()

	assert.Contains(t, out, "Assistant")
	assert.Contains(t, out, "Sure.")
	assert.Contains(t, out, ThumbUpLabel+" "+ThumbDownLabel)
}

func TestMessageBubble_AssistantUsesTreeState(t *testing.T) {
	msg := model.Message{Role: model.RoleAssistant, Content: "```\nx\n```"}
	b := NewMessageBubble(plainTheme(), msg, 60)
	assert.Contains(t, b.Render(), CopyLabel)

	b.State = render.State{Copied: "0"}
	assert.Contains(t, b.Render(), CopiedLabel)
}

func TestAttachmentChip_ImagePreview(t *testing.T) {
	theme := plainTheme()
	img := model.Attachment{Name: "shot.png", SizeBytes: 10, MimeType: "image/png"}
	assert.Equal(t, " [img] shot.png 10 Bytes ... ", AttachmentChip(theme, img))

	img.Preview = &model.Preview{DataURL: "data:image/png;base64,AA", Width: 3, Height: 2}
	assert.Equal(t, " [img] shot.png 10 Bytes 3x2 ", AttachmentChip(theme, img))
}

func TestJoinWrapped(t *testing.T) {
	assert.Equal(t, "aaa bbb\nccc", joinWrapped([]string{"aaa", "bbb", "ccc"}, 8))
	assert.Equal(t, "aaa", joinWrapped([]string{"aaa"}, 2))
}

// =============================================================================
// CHROME TESTS
// =============================================================================

func TestHeader_View(t *testing.T) {
	h := NewHeader(plainTheme())
	h.Title = "Trip planning"
	h.ModelID = "gemini"
	h.Chats = 3
	h.Composing = 1
	h.SetWidth(70)

	out := h.View()
	assert.Contains(t, out, "rigrun chat  Trip planning")
	assert.Contains(t, out, "Gemini Pro · 3 chats · typing")
}

func TestModelLabel(t *testing.T) {
	assert.Equal(t, "GPT-4.1", modelLabel("gpt-4.1"))
	assert.Equal(t, "custom", modelLabel("custom"))
	assert.Equal(t, "no model", modelLabel(""))
}

func TestStatusBar_NoticeAndShortcuts(t *testing.T) {
	sb := NewStatusBar(plainTheme())
	sb.SetWidth(120)
	sb.SetNotice(NoticeError, "copy failed")

	out := sb.View()
	assert.Contains(t, out, "[X] copy failed")
	assert.Contains(t, out, "enter send")

	sb.SetWidth(30)
	narrow := sb.View()
	assert.Contains(t, narrow, "[X] copy failed")
	assert.NotContains(t, narrow, "quit")
}

func TestQuickPrompts(t *testing.T) {
	q := NewQuickPrompts(plainTheme(), 100)
	out := q.View()
	assert.Contains(t, out, "alt+1 Explain a complex topic")

	got, ok := q.Pick(2)
	require.True(t, ok)
	assert.Equal(t, model.QuickPrompts[1].Prompt, got)

	_, ok = q.Pick(0)
	assert.False(t, ok)
	_, ok = q.Pick(len(model.QuickPrompts) + 1)
	assert.False(t, ok)
}

func TestComposingBubble(t *testing.T) {
	out := ComposingBubble(plainTheme(), "...")
	assert.Contains(t, out, "Assistant")
	assert.Contains(t, out, "... Assistant is typing...")
}
