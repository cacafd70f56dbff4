// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jeranaias/rigrun-chat/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a standalone HTML page.
// Message bodies are rendered from Markdown with goldmark (GFM tables,
// strikethrough, autolinks). Raw HTML in messages is not passed through.
type HTMLExporter struct {
	options  *Options
	markdown goldmark.Markdown
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{
		options:  opts,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Export converts a conversation to HTML.
func (e *HTMLExporter) Export(conv *model.Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "dark" {
		theme = "light"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(conv.Title))
	sb.WriteString("<meta name=\"generator\" content=\"rigrun-chat\">\n")
	fmt.Fprintf(&sb, "<meta name=\"date\" content=\"%s\">\n", conv.CreatedAt.Format(time.RFC3339))
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n<div class=\"container\">\n", theme)

	if e.options.IncludeMetadata {
		e.renderHeader(&sb, conv)
	} else {
		fmt.Fprintf(&sb, "<header class=\"header\"><h1>%s</h1></header>\n", html.EscapeString(conv.Title))
	}

	sb.WriteString("<main class=\"conversation\">\n")
	for _, msg := range conv.Messages {
		if err := e.renderMessage(&sb, msg); err != nil {
			return nil, err
		}
	}
	sb.WriteString("</main>\n")

	fmt.Fprintf(&sb, "<footer class=\"footer\">Exported from <strong>rigrun chat</strong> on %s</footer>\n",
		e.options.now().Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("</div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING
// =============================================================================

func (e *HTMLExporter) renderHeader(sb *strings.Builder, conv *model.Conversation) {
	sb.WriteString("<header class=\"header\">\n")
	fmt.Fprintf(sb, "<h1>%s</h1>\n<div class=\"metadata\">\n", html.EscapeString(conv.Title))
	fmt.Fprintf(sb, "<span><strong>Model:</strong> %s</span>\n", html.EscapeString(modelName(conv.Model)))
	fmt.Fprintf(sb, "<span><strong>Created:</strong> %s</span>\n", formatTimestamp(conv.CreatedAt))
	fmt.Fprintf(sb, "<span><strong>Messages:</strong> %d</span>\n", len(conv.Messages))
	sb.WriteString("</div>\n</header>\n")
}

func (e *HTMLExporter) renderMessage(sb *strings.Builder, msg model.Message) error {
	fmt.Fprintf(sb, "<div class=\"message %s-message\">\n<div class=\"message-header\">\n", html.EscapeString(msg.Role.String()))
	fmt.Fprintf(sb, "<span class=\"role-label\">%s</span>\n", html.EscapeString(msg.Role.DisplayName()))
	if e.options.IncludeTimestamps {
		fmt.Fprintf(sb, "<span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.CreatedAt))
	}
	sb.WriteString("</div>\n<div class=\"message-content\">\n")

	var body bytes.Buffer
	if err := e.markdown.Convert([]byte(msg.Content), &body); err != nil {
		return fmt.Errorf("render message %s: %w", msg.ID, err)
	}
	sb.Write(body.Bytes())
	sb.WriteString("</div>\n")

	if len(msg.Attachments) > 0 {
		sb.WriteString("<ul class=\"attachments\">\n")
		for _, a := range msg.Attachments {
			e.renderAttachment(sb, a)
		}
		sb.WriteString("</ul>\n")
	}
	if msg.Rating != model.RatingNone {
		fmt.Fprintf(sb, "<div class=\"rating\">Rated: %s</div>\n", html.EscapeString(msg.Rating.String()))
	}
	sb.WriteString("</div>\n")
	return nil
}

// renderAttachment embeds image previews; other files are listed by name.
// Preview URLs come from our own encoder and are always data:image URLs.
func (e *HTMLExporter) renderAttachment(sb *strings.Builder, a model.Attachment) {
	sb.WriteString("<li>")
	if a.HasPreview() && strings.HasPrefix(a.Preview.DataURL, "data:image/") {
		fmt.Fprintf(sb, "<img src=\"%s\" alt=\"%s\"", html.EscapeString(a.Preview.DataURL), html.EscapeString(a.Name))
		if a.Preview.Width > 0 && a.Preview.Height > 0 {
			fmt.Fprintf(sb, " width=\"%d\" height=\"%d\"", min(a.Preview.Width, 320), scaledHeight(a.Preview, 320))
		}
		sb.WriteString("><br>")
	}
	sb.WriteString(html.EscapeString(attachmentLine(a)))
	sb.WriteString("</li>\n")
}

// scaledHeight keeps the aspect ratio when the width is capped.
func scaledHeight(p *model.Preview, maxWidth int) int {
	if p.Width <= maxWidth {
		return p.Height
	}
	return p.Height * maxWidth / p.Width
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const pageCSS = `<style>
body { margin: 0; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; line-height: 1.6; }
.light-theme { background: #f9fafb; color: #111827; }
.dark-theme { background: #111827; color: #f3f4f6; }
.container { max-width: 860px; margin: 0 auto; padding: 24px; }
.header h1 { margin: 0 0 8px; font-size: 1.6em; }
.metadata { display: flex; gap: 16px; font-size: 0.9em; opacity: 0.8; }
.message { margin: 16px 0; padding: 12px 16px; border-radius: 12px; }
.light-theme .user-message { background: #2563eb; color: #fff; margin-left: 15%; }
.light-theme .assistant-message { background: #fff; border: 1px solid #e5e7eb; margin-right: 15%; }
.dark-theme .user-message { background: #1d4ed8; color: #fff; margin-left: 15%; }
.dark-theme .assistant-message { background: #1f2937; border: 1px solid #374151; margin-right: 15%; }
.message-header { display: flex; justify-content: space-between; font-size: 0.85em; font-weight: 600; margin-bottom: 4px; }
.timestamp { font-weight: 400; opacity: 0.7; }
pre { overflow-x: auto; padding: 12px; border-radius: 8px; background: #1f2937; color: #e5e7eb; }
code { font-family: "SFMono-Regular", Consolas, monospace; font-size: 0.9em; }
table { border-collapse: collapse; margin: 8px 0; }
th, td { border: 1px solid #d1d5db; padding: 4px 10px; }
blockquote { margin: 8px 0; padding-left: 12px; border-left: 3px solid #9ca3af; opacity: 0.9; }
.attachments { list-style: none; padding: 0; font-size: 0.85em; }
.attachments img { border-radius: 6px; margin-top: 4px; }
.rating { font-size: 0.8em; opacity: 0.7; }
.footer { margin-top: 32px; font-size: 0.8em; opacity: 0.6; text-align: center; }
</style>
`
