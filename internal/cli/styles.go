// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
)

// =============================================================================
// PRINTER
// =============================================================================

// printer writes styled lines for line mode. It shares the theme with the
// full-screen chat so both modes look alike.
type printer struct {
	out   io.Writer
	theme *styles.Theme
}

func (p *printer) line(s string) {
	fmt.Fprintln(p.out, s)
}

func (p *printer) title(s string) {
	p.line(p.theme.HeaderTitle.Render(s))
}

func (p *printer) muted(format string, a ...any) {
	p.line(p.theme.Muted.Render(fmt.Sprintf(format, a...)))
}

func (p *printer) ok(format string, a ...any) {
	p.line(p.theme.RenderSuccess(fmt.Sprintf(format, a...)))
}

func (p *printer) info(format string, a ...any) {
	p.line(p.theme.RenderInfo(fmt.Sprintf(format, a...)))
}

func (p *printer) warn(format string, a ...any) {
	p.line(p.theme.RenderWarning(fmt.Sprintf(format, a...)))
}

func (p *printer) fail(err error) {
	p.line(p.theme.RenderError(err.Error()))
}
