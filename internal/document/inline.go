// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// =============================================================================
// INLINE PARSER
// =============================================================================

var (
	autolinkURL   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]{1,31}:[^\s<>]*$`)
	autolinkEmail = regexp.MustCompile(`^[A-Za-z0-9.!#$%&'*+/=?^_{|}~\-]+@[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?)*$`)
)

// ParseInline resolves inline markup in a run of text into flat spans.
//
// Recognized, in order of precedence at each position: backslash escapes,
// code spans, links, autolinks, then emphasis. "***x***" and "**x**" are
// bold, "*x*" is italic, and '_' only delimits at word boundaries. Markup
// nested inside emphasis takes the outer kind, except code and links which
// keep their own. Unmatched delimiters are literal text.
func ParseInline(s string) []Span {
	p := inlineParser{src: s}
	p.run()
	return p.out
}

type inlineParser struct {
	src string
	out []Span
	buf strings.Builder
}

func (p *inlineParser) flush() {
	if p.buf.Len() > 0 {
		p.emit(Span{Kind: SpanPlain, Text: p.buf.String()})
		p.buf.Reset()
	}
}

// emit appends a span, merging it into the previous one when both are
// plain-styled runs of the same kind.
func (p *inlineParser) emit(sp Span) {
	if sp.Text == "" {
		return
	}
	if n := len(p.out); n > 0 {
		last := &p.out[n-1]
		if last.Kind == sp.Kind && sp.Kind != SpanCode && sp.Kind != SpanLink {
			last.Text += sp.Text
			return
		}
	}
	p.out = append(p.out, sp)
}

func (p *inlineParser) run() {
	s := p.src
	for i := 0; i < len(s); {
		switch c := s[i]; c {
		case '\\':
			if i+1 < len(s) && isASCIIPunct(s[i+1]) {
				p.buf.WriteByte(s[i+1])
				i += 2
				continue
			}
		case '`':
			if next, ok := p.codeSpan(i); ok {
				i = next
				continue
			}
			// An unmatched backtick run is literal as a whole.
			n := runLength(s, i, '`')
			p.buf.WriteString(s[i : i+n])
			i += n
			continue
		case '[':
			if next, ok := p.link(i); ok {
				i = next
				continue
			}
		case '<':
			if next, ok := p.autolink(i); ok {
				i = next
				continue
			}
		case '*', '_':
			next, ok := p.emphasis(i)
			if ok {
				i = next
				continue
			}
			n := runLength(s, i, c)
			p.buf.WriteString(s[i : i+n])
			i += n
			continue
		}
		p.buf.WriteByte(s[i])
		i++
	}
	p.flush()
}

// codeSpan matches a backtick run with a closing run of the same length.
func (p *inlineParser) codeSpan(i int) (int, bool) {
	s := p.src
	n := runLength(s, i, '`')
	for j := i + n; j < len(s); {
		k := strings.IndexByte(s[j:], '`')
		if k < 0 {
			return 0, false
		}
		j += k
		m := runLength(s, j, '`')
		if m == n {
			content := strings.ReplaceAll(s[i+n:j], "\n", " ")
			if len(content) >= 2 && content[0] == ' ' && content[len(content)-1] == ' ' && strings.TrimSpace(content) != "" {
				content = content[1 : len(content)-1]
			}
			p.flush()
			p.out = append(p.out, Span{Kind: SpanCode, Text: content})
			return j + m, true
		}
		j += m
	}
	return 0, false
}

// link matches [label](href). The label may contain balanced brackets and
// the destination balanced parentheses; an optional quoted title is dropped.
func (p *inlineParser) link(i int) (int, bool) {
	s := p.src
	labelEnd := matchBracket(s, i, '[', ']')
	if labelEnd < 0 || labelEnd+1 >= len(s) || s[labelEnd+1] != '(' {
		return 0, false
	}
	destEnd := matchBracket(s, labelEnd+1, '(', ')')
	if destEnd < 0 {
		return 0, false
	}

	dest := strings.TrimSpace(s[labelEnd+2 : destEnd])
	if strings.HasPrefix(dest, "<") {
		if end := strings.IndexByte(dest, '>'); end > 0 {
			dest = dest[1:end]
		}
	} else if idx := strings.IndexAny(dest, " \t\n"); idx >= 0 {
		dest = dest[:idx]
	}

	label := PlainText(ParseInline(s[i+1 : labelEnd]))
	if label == "" {
		label = dest
	}

	p.flush()
	p.out = append(p.out, Span{Kind: SpanLink, Text: label, Href: unescape(dest)})
	return destEnd + 1, true
}

// autolink matches <scheme:...> and <user@host>.
func (p *inlineParser) autolink(i int) (int, bool) {
	s := p.src
	end := strings.IndexByte(s[i+1:], '>')
	if end < 0 {
		return 0, false
	}
	content := s[i+1 : i+1+end]
	var href string
	switch {
	case autolinkURL.MatchString(content):
		href = content
	case autolinkEmail.MatchString(content):
		href = "mailto:" + content
	default:
		return 0, false
	}
	p.flush()
	p.out = append(p.out, Span{Kind: SpanLink, Text: content, Href: href})
	return i + 1 + end + 1, true
}

// emphasis tries the longest usable delimiter first: three, two, then one.
func (p *inlineParser) emphasis(i int) (int, bool) {
	s := p.src
	c := s[i]
	n := runLength(s, i, c)

	if c == '_' && i > 0 && isWordByte(s, i-1) {
		return 0, false
	}

	for d := min(n, 3); d >= 1; d-- {
		open := i + d
		if open >= len(s) || isSpaceByte(s[open]) {
			continue
		}
		closeAt := findCloser(s, open+1, c, d)
		if closeAt < 0 {
			continue
		}
		kind := SpanItalic
		if d >= 2 {
			kind = SpanBold
		}

		p.flush()
		for _, inner := range ParseInline(s[open:closeAt]) {
			if inner.Kind == SpanPlain || inner.Kind == SpanBold || inner.Kind == SpanItalic {
				inner.Kind = kind
			}
			p.emit(inner)
		}
		return closeAt + d, true
	}
	return 0, false
}

// findCloser returns the index of a run of exactly d delimiter characters,
// not preceded by whitespace, at or after from. Escaped characters and code
// spans are skipped. For '_' the closer must not be followed by a word byte.
func findCloser(s string, from int, c byte, d int) int {
	for j := from; j < len(s); {
		switch s[j] {
		case '\\':
			j += 2
			continue
		case '`':
			n := runLength(s, j, '`')
			if k := strings.Index(s[j+n:], strings.Repeat("`", n)); k >= 0 {
				j += n + k + n
				continue
			}
			j += n
			continue
		case c:
			n := runLength(s, j, c)
			if n == d && !isSpaceByte(s[j-1]) {
				end := j + d
				if c != '_' || end >= len(s) || !isWordByte(s, end) {
					return j
				}
			}
			j += n
			continue
		}
		j++
	}
	return -1
}

// =============================================================================
// HELPERS
// =============================================================================

// PlainText concatenates span text.
func PlainText(spans []Span) string {
	var b strings.Builder
	for _, sp := range spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}

func runLength(s string, i int, c byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == c {
		n++
	}
	return n
}

// matchBracket returns the index of the bracket closing s[i], honoring
// nesting and backslash escapes, or -1.
func matchBracket(s string, i int, open, close byte) int {
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isASCIIPunct(s[i+1]) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isASCIIPunct(c byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", c) >= 0
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}

// isWordByte reports whether the rune ending at or starting at s[i] is a
// letter or digit.
func isWordByte(s string, i int) bool {
	if s[i] < utf8.RuneSelf {
		c := s[i]
		return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	if r == utf8.RuneError {
		r, _ = utf8.DecodeLastRuneInString(s[:i+1])
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
