// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"time"
)

// =============================================================================
// SPINNER ANIMATIONS
// =============================================================================

// SpinnerConfig holds the frames and rate of a spinner animation.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// Duration returns the duration of each frame.
func (s SpinnerConfig) Duration() time.Duration {
	if s.FPS <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(s.FPS)
}

// Frame returns the frame shown at tick n.
func (s SpinnerConfig) Frame(n int) string {
	if len(s.Frames) == 0 {
		return ""
	}
	return s.Frames[((n%len(s.Frames))+len(s.Frames))%len(s.Frames)]
}

// DotsSpinner is the three-dot "composing" animation.
var DotsSpinner = SpinnerConfig{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    6,
}

// LineSpinner is a simple line rotation used for background work.
var LineSpinner = SpinnerConfig{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    10,
}

// CopiedFeedback is how long a "Copied" marker stays on a block.
const CopiedFeedback = 2 * time.Second
