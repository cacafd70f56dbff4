// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInline(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Span
	}{
		{
			name: "plain",
			in:   "just text",
			want: []Span{{Kind: SpanPlain, Text: "just text"}},
		},
		{
			name: "bold and italic",
			in:   "a **b** *c* d",
			want: []Span{
				{Kind: SpanPlain, Text: "a "},
				{Kind: SpanBold, Text: "b"},
				{Kind: SpanPlain, Text: " "},
				{Kind: SpanItalic, Text: "c"},
				{Kind: SpanPlain, Text: " d"},
			},
		},
		{
			name: "triple star is bold",
			in:   "***x***",
			want: []Span{{Kind: SpanBold, Text: "x"}},
		},
		{
			name: "underscore emphasis",
			in:   "__strong__ and _soft_",
			want: []Span{
				{Kind: SpanBold, Text: "strong"},
				{Kind: SpanPlain, Text: " and "},
				{Kind: SpanItalic, Text: "soft"},
			},
		},
		{
			name: "intraword underscore is literal",
			in:   "snake_case_name",
			want: []Span{{Kind: SpanPlain, Text: "snake_case_name"}},
		},
		{
			name: "code span keeps markup",
			in:   "run `go **test**` now",
			want: []Span{
				{Kind: SpanPlain, Text: "run "},
				{Kind: SpanCode, Text: "go **test**"},
				{Kind: SpanPlain, Text: " now"},
			},
		},
		{
			name: "double backtick code span",
			in:   "`` a`b ``",
			want: []Span{{Kind: SpanCode, Text: "a`b"}},
		},
		{
			name: "link",
			in:   "see [the *docs*](https://example.com/a_(b) \"title\")",
			want: []Span{
				{Kind: SpanPlain, Text: "see "},
				{Kind: SpanLink, Text: "the docs", Href: "https://example.com/a_(b)"},
			},
		},
		{
			name: "autolink",
			in:   "<https://go.dev> or <me@example.com>",
			want: []Span{
				{Kind: SpanLink, Text: "https://go.dev", Href: "https://go.dev"},
				{Kind: SpanPlain, Text: " or "},
				{Kind: SpanLink, Text: "me@example.com", Href: "mailto:me@example.com"},
			},
		},
		{
			name: "escapes",
			in:   `\*not italic\* and a\\b`,
			want: []Span{{Kind: SpanPlain, Text: `*not italic* and a\b`}},
		},
		{
			name: "unmatched delimiters",
			in:   "2 * 3 and [x] and `open",
			want: []Span{{Kind: SpanPlain, Text: "2 * 3 and [x] and `open"}},
		},
		{
			name: "nested emphasis takes outer kind",
			in:   "*a **b** c*",
			want: []Span{{Kind: SpanItalic, Text: "a b c"}},
		},
		{
			name: "code inside bold stays code",
			in:   "**use `x`**",
			want: []Span{
				{Kind: SpanBold, Text: "use "},
				{Kind: SpanCode, Text: "x"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseInline(tc.in))
		})
	}
}

func TestParseInline_Empty(t *testing.T) {
	assert.Empty(t, ParseInline(""))
}

func TestSpanKind_String(t *testing.T) {
	assert.Equal(t, "plain", SpanPlain.String())
	assert.Equal(t, "bold", SpanBold.String())
	assert.Equal(t, "italic", SpanItalic.String())
	assert.Equal(t, "code", SpanCode.String())
	assert.Equal(t, "link", SpanLink.String())
}
