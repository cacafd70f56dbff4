// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	err := New(KindInvalidState, "append", "empty submission")

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, ErrInvalidIndex)

	wrapped := fmt.Errorf("submit: %w", err)
	assert.ErrorIs(t, wrapped, ErrInvalidState)
	assert.Equal(t, KindInvalidState, KindOf(wrapped))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(KindExternalFailure, "copy", nil))

	cause := errors.New("no clipboard")
	err := Wrap(KindExternalFailure, "copy", cause)
	assert.ErrorIs(t, err, ErrExternalFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "copy: external failure: no clipboard", err.Error())
}

func TestKindString(t *testing.T) {
	tests := map[Kind]string{
		KindInvalidState:    "invalid state",
		KindInvalidIndex:    "invalid index",
		KindExternalFailure: "external failure",
		KindNotFound:        "not found",
		Kind(99):            "unknown",
	}
	for kind, want := range tests {
		assert.Equal(t, want, kind.String())
	}
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}
