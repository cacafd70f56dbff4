// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package clipboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.WriteText(context.Background(), "first"))
	require.NoError(t, m.WriteText(context.Background(), "second"))

	assert.Equal(t, "second", m.Text())
	assert.Equal(t, []string{"first", "second"}, m.History())
}

func TestMemory_CanceledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.WriteText(ctx, "nope"), context.Canceled)
	assert.Empty(t, m.Text())
}

func TestDefault(t *testing.T) {
	var _ Sink = NewSystem()
	var _ Sink = NewMemory()
	assert.NotNil(t, Default())
}
