// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:generate go run go.uber.org/mock/mockgen -source=clipboard.go -destination=../mocks/mock_sink.go -package=mocks

// Package clipboard provides destinations for copied text.
package clipboard

import (
	"context"
	"sync"

	"github.com/atotto/clipboard"
)

// Sink receives copied text. Implementations may fail; callers log the
// failure and carry on.
type Sink interface {
	WriteText(ctx context.Context, text string) error
}

// =============================================================================
// SYSTEM CLIPBOARD
// =============================================================================

// System writes to the operating system clipboard.
type System struct{}

// NewSystem returns the system clipboard sink.
func NewSystem() System {
	return System{}
}

// Available reports whether a clipboard utility was found on this system.
func (System) Available() bool {
	return !clipboard.Unsupported
}

// WriteText copies text to the system clipboard. The write itself cannot
// be interrupted; ctx is checked before it starts.
func (System) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return clipboard.WriteAll(text)
}

// =============================================================================
// IN-MEMORY CLIPBOARD
// =============================================================================

// Memory keeps the most recent copy in memory. It backs headless runs and
// tests.
type Memory struct {
	mu      sync.Mutex
	text    string
	history []string
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// WriteText records text.
func (m *Memory) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.history = append(m.history, text)
	return nil
}

// Text returns the last copied text.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// History returns every copy in order.
func (m *Memory) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}

// =============================================================================
// SELECTION
// =============================================================================

// Default returns the system clipboard when one is available and an
// in-memory sink otherwise.
func Default() Sink {
	if sys := NewSystem(); sys.Available() {
		return sys
	}
	return NewMemory()
}
