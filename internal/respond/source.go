// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:generate go run go.uber.org/mock/mockgen -source=source.go -destination=../mocks/mock_source.go -package=mocks

// Package respond defines where assistant replies come from.
//
// The chat controller only knows the Source interface. The Canned source
// stands in for a model backend: it picks one of a few markdown replies
// after a random delay, which is enough to exercise the renderer and the
// asynchronous reply path.
package respond

import (
	"context"
)

// Source produces an assistant reply for a prompt.
type Source interface {
	GenerateReply(ctx context.Context, prompt string) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, prompt string) (string, error)

// GenerateReply calls f.
func (f SourceFunc) GenerateReply(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
